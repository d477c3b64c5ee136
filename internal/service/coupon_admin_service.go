package service

import (
	"strings"
	"time"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo      repository.CouponRepository
	usageRepo repository.CouponUsageRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo, usageRepo: usageRepo}
}

// CouponUsageReport 优惠券核销明细与累计让利
type CouponUsageReport struct {
	Coupon        *models.Coupon       `json:"coupon"`
	RemainingUses int                  `json:"remaining_uses"`
	TotalDiscount models.Money         `json:"total_discount"`
	Usages        []models.CouponUsage `json:"usages"`
}

// CreateCouponInput 创建优惠券输入
type CreateCouponInput struct {
	Code         string
	Type         string
	Value        models.Money
	MinAmount    models.Money
	MaxDiscount  models.Money
	UsageLimit   int
	PerUserLimit int
	StartsAt     *time.Time
	EndsAt       *time.Time
	IsActive     *bool
}

// UpdateCouponInput 更新优惠券输入
type UpdateCouponInput struct {
	Code         string
	Type         string
	Value        models.Money
	MinAmount    models.Money
	MaxDiscount  models.Money
	UsageLimit   int
	PerUserLimit int
	StartsAt     *time.Time
	EndsAt       *time.Time
	IsActive     *bool
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrCouponInvalid
	}
	couponType, err := normalizeCouponValue(input.Type, input.Value, input.MinAmount, input.MaxDiscount)
	if err != nil {
		return nil, err
	}

	exist, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrCouponInvalid
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	coupon := &models.Coupon{
		Code:         code,
		Type:         couponType,
		Value:        input.Value,
		MinAmount:    input.MinAmount,
		MaxDiscount:  input.MaxDiscount,
		UsageLimit:   input.UsageLimit,
		UsedCount:    0,
		PerUserLimit: input.PerUserLimit,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		IsActive:     isActive,
	}

	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券
func (s *CouponAdminService) Update(id uint, input UpdateCouponInput) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrCouponInvalid
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCouponNotFound
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrCouponInvalid
	}
	couponType, err := normalizeCouponValue(input.Type, input.Value, input.MinAmount, input.MaxDiscount)
	if err != nil {
		return nil, err
	}

	if code != existing.Code {
		dup, err := s.repo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrCouponCodeExists
		}
	}

	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrCouponInvalid
	}

	isActive := existing.IsActive
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	existing.Code = code
	existing.Type = couponType
	existing.Value = input.Value
	existing.MinAmount = input.MinAmount
	existing.MaxDiscount = input.MaxDiscount
	existing.UsageLimit = input.UsageLimit
	existing.PerUserLimit = input.PerUserLimit
	existing.StartsAt = input.StartsAt
	existing.EndsAt = input.EndsAt
	existing.IsActive = isActive

	if err := s.repo.Update(existing); err != nil {
		return nil, ErrCouponUpdateFailed
	}
	return existing, nil
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrCouponInvalid
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCouponNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return ErrCouponDeleteFailed
	}
	return nil
}

// List 获取优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.repo.List(filter)
}

// ListUsages 查询优惠券核销记录，total 为记录总数
func (s *CouponAdminService) ListUsages(couponID uint, page, pageSize int) (*CouponUsageReport, int64, error) {
	coupon, err := s.repo.GetByID(couponID)
	if err != nil {
		return nil, 0, err
	}
	if coupon == nil {
		return nil, 0, ErrCouponNotFound
	}
	usages, total, err := s.usageRepo.List(repository.CouponUsageListFilter{
		Page:     page,
		PageSize: pageSize,
		CouponID: couponID,
	})
	if err != nil {
		return nil, 0, err
	}
	discount, err := s.usageRepo.SumDiscountByCoupon(couponID)
	if err != nil {
		return nil, 0, err
	}
	return &CouponUsageReport{
		Coupon:        coupon,
		RemainingUses: coupon.RemainingUses(),
		TotalDiscount: discount,
		Usages:        usages,
	}, total, nil
}

// SetActive 启用或停用优惠券
func (s *CouponAdminService) SetActive(id uint, active bool) (*models.Coupon, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCouponNotFound
	}
	existing.IsActive = active
	if err := s.repo.Update(existing); err != nil {
		return nil, ErrCouponUpdateFailed
	}
	return existing, nil
}

func normalizeCouponValue(rawType string, value, minAmount, maxDiscount models.Money) (string, error) {
	couponType := strings.ToLower(strings.TrimSpace(rawType))
	if couponType != constants.CouponTypeFixed && couponType != constants.CouponTypePercent {
		return "", ErrCouponInvalid
	}
	if value.Decimal.LessThanOrEqual(decimal.Zero) {
		return "", ErrCouponInvalid
	}
	if couponType == constants.CouponTypePercent && value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return "", ErrCouponInvalid
	}
	if minAmount.Decimal.IsNegative() || maxDiscount.Decimal.IsNegative() {
		return "", ErrCouponInvalid
	}
	return couponType, nil
}
