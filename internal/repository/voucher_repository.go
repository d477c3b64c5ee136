package repository

import (
	"strings"
	"time"

	"github.com/printroll-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoucherRepository 优惠凭证数据访问接口
type VoucherRepository interface {
	Create(voucher *models.Voucher) error
	Update(voucher *models.Voucher) error
	GetByID(id uint) (*models.Voucher, error)
	GetByIDForUpdate(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	ListUsableByUser(userID uint, now time.Time) ([]models.Voucher, error)
	Debit(id uint, meters decimal.Decimal, shipments int) (bool, error)
	Credit(id uint, meters decimal.Decimal, shipments int) (bool, error)
	CreateRedemption(redemption *models.VoucherRedemption) error
	GetOpenQuoteHold(quoteID uint) (*models.VoucherRedemption, error)
	AttachOrder(redemptionID, orderID uint) (bool, error)
	MarkReleased(redemptionID uint, releasedAt time.Time) (bool, error)
	ListRedemptions(voucherID uint) ([]models.VoucherRedemption, error)
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠凭证仓库
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// Create 创建凭证
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	return r.db.Create(voucher).Error
}

// Update 更新凭证（仅后台调整备注、有效期、启用状态时使用）
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	return r.db.Save(voucher).Error
}

// GetByID 根据 ID 获取凭证
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Voucher](r.db, id)
}

// GetByIDForUpdate 加锁获取凭证
func (r *GormVoucherRepository) GetByIDForUpdate(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Voucher](r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// GetByCode 根据凭证码获取凭证
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	return firstOrNil[models.Voucher](r.db.Where("code = ?", code))
}

// List 凭证列表
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", strings.ToUpper(filter.Type))
	}
	if filter.Code != "" {
		query = query.Where("code = ?", strings.ToUpper(strings.TrimSpace(filter.Code)))
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var vouchers []models.Voucher
	if err := query.Order("id DESC").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// ListUsableByUser 获取用户当前可用的凭证
func (r *GormVoucherRepository) ListUsableByUser(userID uint, now time.Time) ([]models.Voucher, error) {
	if userID == 0 {
		return []models.Voucher{}, nil
	}
	var vouchers []models.Voucher
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("expires_at ASC, id ASC").
		Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

// Debit 条件扣减凭证余额，余额不足或已停用时返回 false；余额归零时同步停用
func (r *GormVoucherRepository) Debit(id uint, meters decimal.Decimal, shipments int) (bool, error) {
	if id == 0 || meters.IsNegative() || shipments < 0 {
		return false, nil
	}
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND is_active = ? AND remaining_meters >= ? AND remaining_shipments >= ?", id, true, meters, shipments).
		Updates(map[string]interface{}{
			"remaining_meters":    gorm.Expr("remaining_meters - ?", meters),
			"remaining_shipments": gorm.Expr("remaining_shipments - ?", shipments),
			"usage_count":         gorm.Expr("usage_count + 1"),
			"is_active":           gorm.Expr("CASE WHEN remaining_meters - ? <= 0 AND remaining_shipments - ? <= 0 THEN ? ELSE is_active END", meters, shipments, false),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Credit 退回报价单占用的余额，退回后不得超过初始值；余额曾归零而被停用的凭证重新启用
func (r *GormVoucherRepository) Credit(id uint, meters decimal.Decimal, shipments int) (bool, error) {
	if id == 0 || meters.IsNegative() || shipments < 0 {
		return false, nil
	}
	result := r.db.Model(&models.Voucher{}).
		Where("id = ? AND remaining_meters + ? <= initial_meters AND remaining_shipments + ? <= initial_shipments", id, meters, shipments).
		Updates(map[string]interface{}{
			"is_active":           gorm.Expr("CASE WHEN remaining_meters <= 0 AND remaining_shipments <= 0 THEN ? ELSE is_active END", true),
			"remaining_meters":    gorm.Expr("remaining_meters + ?", meters),
			"remaining_shipments": gorm.Expr("remaining_shipments + ?", shipments),
			"usage_count":         gorm.Expr("CASE WHEN usage_count > 0 THEN usage_count - 1 ELSE 0 END"),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetOpenQuoteHold 获取报价单尚未转单也未退回的核销行
func (r *GormVoucherRepository) GetOpenQuoteHold(quoteID uint) (*models.VoucherRedemption, error) {
	if quoteID == 0 {
		return nil, nil
	}
	return firstOrNil[models.VoucherRedemption](
		r.db.Where("quote_id = ? AND order_id IS NULL AND released_at IS NULL", quoteID).Order("id DESC"),
	)
}

// AttachOrder 转单时为报价单核销行补写订单ID
func (r *GormVoucherRepository) AttachOrder(redemptionID, orderID uint) (bool, error) {
	result := r.db.Model(&models.VoucherRedemption{}).
		Where("id = ? AND order_id IS NULL AND released_at IS NULL", redemptionID).
		Update("order_id", orderID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkReleased 标记核销行已退回，只生效一次
func (r *GormVoucherRepository) MarkReleased(redemptionID uint, releasedAt time.Time) (bool, error) {
	result := r.db.Model(&models.VoucherRedemption{}).
		Where("id = ? AND order_id IS NULL AND released_at IS NULL", redemptionID).
		Update("released_at", releasedAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreateRedemption 追加核销流水
func (r *GormVoucherRepository) CreateRedemption(redemption *models.VoucherRedemption) error {
	return r.db.Create(redemption).Error
}

// ListRedemptions 获取凭证核销流水
func (r *GormVoucherRepository) ListRedemptions(voucherID uint) ([]models.VoucherRedemption, error) {
	var rows []models.VoucherRedemption
	if err := r.db.Where("voucher_id = ?", voucherID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
