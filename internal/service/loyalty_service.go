package service

import (
	"context"
	"fmt"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoyaltyService 会员积分服务
type LoyaltyService struct {
	userRepo    repository.UserRepository
	loyaltyRepo repository.LoyaltyRepository
	settings    *ConfigProvider
}

// NewLoyaltyService 创建会员积分服务
func NewLoyaltyService(userRepo repository.UserRepository, loyaltyRepo repository.LoyaltyRepository, settings *ConfigProvider) *LoyaltyService {
	return &LoyaltyService{
		userRepo:    userRepo,
		loyaltyRepo: loyaltyRepo,
		settings:    settings,
	}
}

// AccrualRequest 积分累计请求
type AccrualRequest struct {
	UserID          uint
	MonetarySpend   decimal.Decimal
	PaidWithVoucher bool
	OrderID         uint
	Description     string
	PointsPerUnit   decimal.Decimal
}

// LoyaltySummary 用户积分概览
type LoyaltySummary struct {
	Tier            string          `json:"tier"`
	TotalSpent      models.Money    `json:"total_spent"`
	Points          int64           `json:"points"`
	LifetimePoints  int64           `json:"lifetime_points"`
	PointsValue     models.Money    `json:"points_value"`
	NextTier        string          `json:"next_tier,omitempty"`
	SpendToNextTier *models.Money   `json:"spend_to_next_tier,omitempty"`
	Multiplier      decimal.Decimal `json:"multiplier"`
}

// AccrueInTx 在结算事务内累计积分、累计消费并刷新等级
//
// 游客、凭证结算与零金额结算都会跳过；用户行加锁后再读取当前累计值。
func (s *LoyaltyService) AccrueInTx(ctx context.Context, tx *gorm.DB, req AccrualRequest) (pricing.Accrual, error) {
	if req.UserID == 0 {
		return pricing.Accrual{Skipped: true}, nil
	}
	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByIDForUpdate(req.UserID)
	if err != nil {
		return pricing.Accrual{}, err
	}
	if user == nil {
		logger.Warnw("loyalty_accrue_user_missing", "user_id", req.UserID, "order_id", req.OrderID)
		return pricing.Accrual{Skipped: true}, nil
	}

	accrual := pricing.Accrue(pricing.AccrualInput{
		MonetarySpend:     req.MonetarySpend,
		CurrentTotalSpent: user.TotalSpent.Decimal,
		CurrentTier:       user.LoyaltyTier,
		PointsPerUnit:     s.pointsRate(ctx, req.PointsPerUnit),
		PaidWithVoucher:   req.PaidWithVoucher,
	})
	if accrual.Skipped {
		return accrual, nil
	}

	newPoints := user.LoyaltyPoints + accrual.PointsEarned
	if err := userRepo.UpdateLoyalty(user.ID, models.NewMoneyFromDecimal(accrual.NewTotalSpent), newPoints, accrual.NewTier); err != nil {
		return pricing.Accrual{}, err
	}
	if accrual.PointsEarned <= 0 {
		return accrual, nil
	}

	loyaltyRepo := s.loyaltyRepo.WithTx(tx)
	account, err := loyaltyRepo.GetOrCreateAccountForUpdate(user.ID)
	if err != nil {
		return pricing.Accrual{}, err
	}
	account.TotalPoints += accrual.PointsEarned
	account.AvailablePoints += accrual.PointsEarned
	account.LifetimePoints += accrual.PointsEarned
	if err := loyaltyRepo.UpdateAccount(account); err != nil {
		return pricing.Accrual{}, err
	}
	if err := loyaltyRepo.CreateTransaction(&models.PointTransaction{
		UserID:      user.ID,
		Type:        constants.PointTxnTypeEarned,
		Amount:      accrual.PointsEarned,
		OrderID:     optionalID(req.OrderID),
		Description: req.Description,
	}); err != nil {
		return pricing.Accrual{}, err
	}
	if accrual.NewTier != user.LoyaltyTier {
		logger.Infow("loyalty_tier_upgraded",
			"user_id", user.ID,
			"from", user.LoyaltyTier,
			"to", accrual.NewTier,
			"total_spent", accrual.NewTotalSpent.String(),
		)
	}
	return accrual, nil
}

// RedeemPointsInTx 在结算事务内扣减积分并追加流水
func (s *LoyaltyService) RedeemPointsInTx(tx *gorm.DB, userID uint, points int64, orderID uint, description string) error {
	if points <= 0 {
		return nil
	}
	if userID == 0 {
		return ErrPointsInsufficient
	}
	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByIDForUpdate(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.LoyaltyPoints < points {
		return ErrPointsInsufficient
	}
	if err := userRepo.UpdateLoyalty(user.ID, user.TotalSpent, user.LoyaltyPoints-points, user.LoyaltyTier); err != nil {
		return err
	}

	loyaltyRepo := s.loyaltyRepo.WithTx(tx)
	account, err := loyaltyRepo.GetOrCreateAccountForUpdate(user.ID)
	if err != nil {
		return err
	}
	account.AvailablePoints -= points
	account.TotalPoints -= points
	if account.AvailablePoints < 0 {
		account.AvailablePoints = 0
	}
	if account.TotalPoints < 0 {
		account.TotalPoints = 0
	}
	if err := loyaltyRepo.UpdateAccount(account); err != nil {
		return err
	}
	return loyaltyRepo.CreateTransaction(&models.PointTransaction{
		UserID:      user.ID,
		Type:        constants.PointTxnTypeRedeemed,
		Amount:      points,
		OrderID:     optionalID(orderID),
		Description: description,
	})
}

// RefundPointsInTx 订单取消时退回已抵扣积分
func (s *LoyaltyService) RefundPointsInTx(tx *gorm.DB, userID uint, points int64, orderID uint, description string) error {
	if points <= 0 || userID == 0 {
		return nil
	}
	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByIDForUpdate(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if err := userRepo.UpdateLoyalty(user.ID, user.TotalSpent, user.LoyaltyPoints+points, user.LoyaltyTier); err != nil {
		return err
	}

	loyaltyRepo := s.loyaltyRepo.WithTx(tx)
	account, err := loyaltyRepo.GetOrCreateAccountForUpdate(user.ID)
	if err != nil {
		return err
	}
	account.AvailablePoints += points
	account.TotalPoints += points
	if err := loyaltyRepo.UpdateAccount(account); err != nil {
		return err
	}
	return loyaltyRepo.CreateTransaction(&models.PointTransaction{
		UserID:      user.ID,
		Type:        constants.PointTxnTypeRefunded,
		Amount:      points,
		OrderID:     optionalID(orderID),
		Description: description,
	})
}

// Summary 用户积分概览
func (s *LoyaltyService) Summary(userID uint) (*LoyaltySummary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	var lifetime int64
	account, err := s.loyaltyRepo.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		lifetime = account.LifetimePoints
	}
	tier := user.LoyaltyTier
	if tier == "" {
		tier = pricing.TierFor(user.TotalSpent.Decimal)
	}
	summary := &LoyaltySummary{
		Tier:           tier,
		TotalSpent:     user.TotalSpent,
		Points:         user.LoyaltyPoints,
		LifetimePoints: lifetime,
		PointsValue:    models.NewMoneyFromDecimal(pricing.PointsToDiscount(user.LoyaltyPoints)),
		Multiplier:     pricing.TierMultiplier(tier),
	}
	if next, threshold, ok := pricing.NextTier(user.TotalSpent.Decimal); ok {
		remaining := models.NewMoneyFromDecimal(threshold.Sub(user.TotalSpent.Decimal))
		summary.NextTier = next
		summary.SpendToNextTier = &remaining
	}
	return summary, nil
}

// ListTransactions 积分流水
func (s *LoyaltyService) ListTransactions(filter repository.PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, fmt.Errorf("%w: user id required", ErrNotFound)
	}
	return s.loyaltyRepo.ListTransactions(filter)
}

// pointsRate 调用方已读取设置时直接使用，避免事务内再访问设置表
func (s *LoyaltyService) pointsRate(ctx context.Context, preset decimal.Decimal) decimal.Decimal {
	if preset.IsPositive() {
		return preset
	}
	if s.settings == nil {
		return decimal.NewFromInt(1)
	}
	return s.settings.Pricing(ctx).PointsPerCurrencyUnit
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
