package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteRepository 报价单数据访问接口
type QuoteRepository interface {
	Create(quote *models.Quote) error
	GetByID(id uint) (*models.Quote, error)
	GetByIDForUpdate(id uint) (*models.Quote, error)
	GetByIDAndUser(id, userID uint) (*models.Quote, error)
	GetByNumber(number string) (*models.Quote, error)
	GetByPaymentReference(reference string) (*models.Quote, error)
	List(filter QuoteListFilter) ([]models.Quote, int64, error)
	NextSequence(prefix string, year int) (int, error)
	TransitionStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (bool, error)
	BindOrder(id, orderID uint, convertedAt time.Time) (bool, error)
	ListExpirable(now time.Time, limit int) ([]models.Quote, error)
	ExpireDue(ids []uint, now time.Time) (int64, error)
	CountByStatus() (map[string]int64, error)
	WithTx(tx *gorm.DB) *GormQuoteRepository
}

// GormQuoteRepository GORM 实现
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository 创建报价单仓库
func NewQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// WithTx 绑定事务
func (r *GormQuoteRepository) WithTx(tx *gorm.DB) *GormQuoteRepository {
	if tx == nil {
		return r
	}
	return &GormQuoteRepository{db: tx}
}

// ExpirableQuoteStatuses 可被过期扫描处理的状态
func ExpirableQuoteStatuses() []string {
	return []string{
		constants.QuoteStatusPendingReview,
		constants.QuoteStatusQuoted,
		constants.QuoteStatusPaymentSent,
	}
}

// Create 创建报价单
func (r *GormQuoteRepository) Create(quote *models.Quote) error {
	return r.db.Create(quote).Error
}

func (r *GormQuoteRepository) first(query *gorm.DB) (*models.Quote, error) {
	return firstOrNil[models.Quote](query)
}

// GetByID 根据 ID 获取报价单
func (r *GormQuoteRepository) GetByID(id uint) (*models.Quote, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDForUpdate 加锁获取报价单（SELECT ... FOR UPDATE）
func (r *GormQuoteRepository) GetByIDForUpdate(id uint) (*models.Quote, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetByIDAndUser 获取用户自己的报价单
func (r *GormQuoteRepository) GetByIDAndUser(id, userID uint) (*models.Quote, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id = ? AND user_id = ?", id, userID))
}

// GetByNumber 根据报价单号获取报价单
func (r *GormQuoteRepository) GetByNumber(number string) (*models.Quote, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, nil
	}
	return r.first(r.db.Where("quote_number = ?", number))
}

// GetByPaymentReference 根据支付参考号获取报价单
func (r *GormQuoteRepository) GetByPaymentReference(reference string) (*models.Quote, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	return r.first(r.db.Where("payment_reference = ?", reference))
}

// List 报价单列表
func (r *GormQuoteRepository) List(filter QuoteListFilter) ([]models.Quote, int64, error) {
	query := r.db.Model(&models.Quote{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = applyKeyword(query, filter.Keyword, "quote_number", "customer_name", "customer_email", "company_name")
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var quotes []models.Quote
	if err := query.Order("id DESC").Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// NextSequence 计算指定年份的下一个报价单序号（含已删除记录，避免号码复用）
func (r *GormQuoteRepository) NextSequence(prefix string, year int) (int, error) {
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, year)
	var numbers []string
	if err := r.db.Unscoped().Model(&models.Quote{}).
		Where("quote_number LIKE ?", yearPrefix+"%").
		Order("LENGTH(quote_number) DESC, quote_number DESC").
		Limit(1).
		Pluck("quote_number", &numbers).Error; err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 1, nil
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(numbers[0], yearPrefix))
	if err != nil {
		return 0, fmt.Errorf("parse quote number %q: %w", numbers[0], err)
	}
	return seq + 1, nil
}

// TransitionStatus 条件更新状态，仅当当前状态在 fromStatuses 内时生效
func (r *GormQuoteRepository) TransitionStatus(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (bool, error) {
	if id == 0 || len(fromStatuses) == 0 {
		return false, nil
	}
	values := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		values[k] = v
	}
	values["status"] = toStatus
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now()
	}
	result := r.db.Model(&models.Quote{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// BindOrder 写入转单关联，order_id 只允许从空写入一次
func (r *GormQuoteRepository) BindOrder(id, orderID uint, convertedAt time.Time) (bool, error) {
	result := r.db.Model(&models.Quote{}).
		Where("id = ? AND order_id IS NULL AND status IN ?", id, []string{constants.QuoteStatusPaid, constants.QuoteStatusQuoted}).
		Updates(map[string]interface{}{
			"order_id":     orderID,
			"status":       constants.QuoteStatusConverted,
			"converted_at": convertedAt,
			"updated_at":   convertedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListExpirable 获取已到期但仍处于可过期状态的报价单
func (r *GormQuoteRepository) ListExpirable(now time.Time, limit int) ([]models.Quote, error) {
	if limit <= 0 {
		limit = 100
	}
	var quotes []models.Quote
	if err := r.db.Where("status IN ? AND expires_at <= ?", ExpirableQuoteStatuses(), now).
		Order("expires_at ASC, id ASC").
		Limit(limit).
		Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// ExpireDue 将到期报价单置为过期，状态过滤条件保证已支付或已转单的记录不受影响
func (r *GormQuoteRepository) ExpireDue(ids []uint, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Quote{}).
		Where("id IN ? AND status IN ? AND expires_at <= ?", ids, ExpirableQuoteStatuses(), now).
		Updates(map[string]interface{}{
			"status":     constants.QuoteStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByStatus 按状态统计报价单数量
func (r *GormQuoteRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	if err := r.db.Model(&models.Quote{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, item := range rows {
		result[item.Status] = item.Total
	}
	return result, nil
}
