package repository

import (
	"strings"
	"time"

	"github.com/printroll-next/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券存取
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	Delete(id uint) error
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	IncrementUsedCount(id uint, delta int) (bool, error)
	DecrementUsedCount(id uint, delta int) error
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// CouponListFilter 优惠券列表筛选
//
// CodePrefix 按前缀匹配优惠码；UsableAt 非空时只返回该时刻启用、处于有效期且未用尽的优惠券。
type CouponListFilter struct {
	ID         uint
	CodePrefix string
	Type       string
	IsActive   *bool
	UsableAt   *time.Time
	Page       int
	PageSize   int
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID 根据ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Coupon](r.db, id)
}

// GetByCode 优惠码统一按大写存储
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	code = normalizeCouponCode(code)
	if code == "" {
		return nil, nil
	}
	return firstOrNil[models.Coupon](r.db.Where("code = ?", code))
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// Update 更新优惠券
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Save(coupon).Error
}

// Delete 软删除优惠券，已有使用记录保留
func (r *GormCouponRepository) Delete(id uint) error {
	return r.db.Delete(&models.Coupon{}, id).Error
}

// List 获取优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := applyCouponFilter(r.db.Model(&models.Coupon{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	coupons := make([]models.Coupon, 0)
	err := applyPagination(query, filter.Page, filter.PageSize).Order("id desc").Find(&coupons).Error
	return coupons, total, err
}

func applyCouponFilter(query *gorm.DB, filter CouponListFilter) *gorm.DB {
	if filter.ID > 0 {
		query = query.Where("id = ?", filter.ID)
	}
	if prefix := normalizeCouponCode(filter.CodePrefix); prefix != "" {
		query = query.Where(`code LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	}
	if t := strings.ToLower(strings.TrimSpace(filter.Type)); t != "" {
		query = query.Where("type = ?", t)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.UsableAt != nil {
		at := *filter.UsableAt
		query = query.
			Where("is_active = ?", true).
			Where("starts_at IS NULL OR starts_at <= ?", at).
			Where("ends_at IS NULL OR ends_at >= ?", at).
			Where("usage_limit = 0 OR used_count < usage_limit")
	}
	return query
}

// IncrementUsedCount 条件自增，超过 usage_limit 时不更新并返回 false
func (r *GormCouponRepository) IncrementUsedCount(id uint, delta int) (bool, error) {
	if delta <= 0 {
		delta = 1
	}
	result := r.db.Model(&models.Coupon{}).
		Where("id = ?", id).
		Where("usage_limit = 0 OR used_count + ? <= usage_limit", delta).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DecrementUsedCount 订单取消时归还次数，不会减到负数
func (r *GormCouponRepository) DecrementUsedCount(id uint, delta int) error {
	if delta < 0 {
		delta = -delta
	}
	if delta == 0 {
		delta = 1
	}
	return r.db.Model(&models.Coupon{}).
		Where("id = ? AND used_count >= ?", id, delta).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", delta)).Error
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(value)
}
