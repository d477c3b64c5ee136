package service

import (
	"strings"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
	clock      clock.Clock
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository, c clock.Clock) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
		clock:      clock.OrReal(c),
	}
}

// ApplyCoupon 计算优惠券折扣金额，subtotal 为商品小计（税费与运费之前）
func (s *CouponService) ApplyCoupon(subtotal models.Money, code string, userID uint) (models.Money, *models.Coupon, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return models.Money{}, nil, ErrCouponInvalid
	}

	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return models.Money{}, nil, err
	}
	if coupon == nil {
		return models.Money{}, nil, ErrCouponNotFound
	}
	if err := s.checkUsable(coupon, userID); err != nil {
		return models.Money{}, coupon, err
	}

	if subtotal.Decimal.Cmp(coupon.MinAmount.Decimal) < 0 {
		return models.Money{}, coupon, ErrCouponMinAmount
	}

	discount, err := calculateCouponDiscount(coupon, subtotal)
	if err != nil {
		return models.Money{}, coupon, err
	}
	return discount, coupon, nil
}

func (s *CouponService) checkUsable(coupon *models.Coupon, userID uint) error {
	if !coupon.IsActive {
		return ErrCouponInactive
	}
	now := s.clock.Now()
	if coupon.NotStarted(now) {
		return ErrCouponNotStarted
	}
	if coupon.Ended(now) {
		return ErrCouponExpired
	}
	if coupon.Exhausted() {
		return ErrCouponUsageLimit
	}
	if coupon.PerUserLimit > 0 && userID != 0 {
		count, err := s.usageRepo.CountByUser(coupon.ID, userID)
		if err != nil {
			return err
		}
		if int(count) >= coupon.PerUserLimit {
			return ErrCouponPerUserLimit
		}
	}
	return nil
}

// RecordUsageInTx 在结算事务内占用优惠券次数并写入使用记录
//
// 使用次数通过条件自增保证不超过总上限，并发超限时返回 ErrCouponUsageLimit。
func (s *CouponService) RecordUsageInTx(tx *gorm.DB, coupon *models.Coupon, userID, orderID uint, discount models.Money) error {
	if coupon == nil {
		return nil
	}
	ok, err := s.couponRepo.WithTx(tx).IncrementUsedCount(coupon.ID, 1)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCouponUsageLimit
	}
	return s.usageRepo.WithTx(tx).Create(&models.CouponUsage{
		CouponID:       coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
		CreatedAt:      s.clock.Now(),
	})
}

// ReleaseUsageInTx 订单取消时回退优惠券使用记录
func (s *CouponService) ReleaseUsageInTx(tx *gorm.DB, orderID uint) error {
	usageRepo := s.usageRepo.WithTx(tx)
	usages, err := usageRepo.ListByOrderID(orderID)
	if err != nil {
		return err
	}
	if len(usages) == 0 {
		return nil
	}
	couponRepo := s.couponRepo.WithTx(tx)
	for _, usage := range usages {
		if err := couponRepo.DecrementUsedCount(usage.CouponID, 1); err != nil {
			return err
		}
	}
	return usageRepo.DeleteByOrderID(orderID)
}

func calculateCouponDiscount(coupon *models.Coupon, subtotal models.Money) (models.Money, error) {
	var discount decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(coupon.Type)) {
	case constants.CouponTypeFixed:
		if !coupon.Value.Decimal.IsPositive() {
			return models.Money{}, ErrCouponInvalid
		}
		discount = coupon.Value.Decimal
	case constants.CouponTypePercent:
		if !coupon.Value.Decimal.IsPositive() || coupon.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return models.Money{}, ErrCouponInvalid
		}
		discount = subtotal.Decimal.Mul(coupon.Value.Decimal).Div(decimal.NewFromInt(100))
	default:
		return models.Money{}, ErrCouponInvalid
	}

	if coupon.MaxDiscount.Decimal.IsPositive() && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
		discount = coupon.MaxDiscount.Decimal
	}
	if discount.GreaterThan(subtotal.Decimal) {
		discount = subtotal.Decimal
	}
	return models.NewMoneyFromDecimal(discount), nil
}
