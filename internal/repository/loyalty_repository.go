package repository

import (
	"errors"

	"github.com/printroll-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoyaltyRepository 积分账户数据访问接口
type LoyaltyRepository interface {
	GetAccount(userID uint) (*models.LoyaltyPoints, error)
	GetOrCreateAccountForUpdate(userID uint) (*models.LoyaltyPoints, error)
	UpdateAccount(account *models.LoyaltyPoints) error
	CreateTransaction(txn *models.PointTransaction) error
	ListTransactions(filter PointTransactionListFilter) ([]models.PointTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormLoyaltyRepository
}

// GormLoyaltyRepository GORM 实现
type GormLoyaltyRepository struct {
	db *gorm.DB
}

// NewLoyaltyRepository 创建积分仓库
func NewLoyaltyRepository(db *gorm.DB) *GormLoyaltyRepository {
	return &GormLoyaltyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoyaltyRepository) WithTx(tx *gorm.DB) *GormLoyaltyRepository {
	if tx == nil {
		return r
	}
	return &GormLoyaltyRepository{db: tx}
}

// GetAccount 获取积分账户
func (r *GormLoyaltyRepository) GetAccount(userID uint) (*models.LoyaltyPoints, error) {
	if userID == 0 {
		return nil, nil
	}
	return firstOrNil[models.LoyaltyPoints](r.db.Where("user_id = ?", userID))
}

// GetOrCreateAccountForUpdate 加锁获取积分账户，不存在时创建
func (r *GormLoyaltyRepository) GetOrCreateAccountForUpdate(userID uint) (*models.LoyaltyPoints, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	var account models.LoyaltyPoints
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	account = models.LoyaltyPoints{UserID: userID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
		return nil, err
	}
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount 更新积分账户
func (r *GormLoyaltyRepository) UpdateAccount(account *models.LoyaltyPoints) error {
	return r.db.Save(account).Error
}

// CreateTransaction 追加积分流水
func (r *GormLoyaltyRepository) CreateTransaction(txn *models.PointTransaction) error {
	return r.db.Create(txn).Error
}

// ListTransactions 分页查询积分流水
func (r *GormLoyaltyRepository) ListTransactions(filter PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	query := r.db.Model(&models.PointTransaction{}).Where("user_id = ?", filter.UserID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.PointTransaction
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
