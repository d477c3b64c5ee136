package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/metrics"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherService 优惠凭证服务
type VoucherService struct {
	voucherRepo repository.VoucherRepository
	userRepo    repository.UserRepository
	clock       clock.Clock
}

// NewVoucherService 创建优惠凭证服务
func NewVoucherService(voucherRepo repository.VoucherRepository, userRepo repository.UserRepository, c clock.Clock) *VoucherService {
	return &VoucherService{
		voucherRepo: voucherRepo,
		userRepo:    userRepo,
		clock:       clock.OrReal(c),
	}
}

// GrantVoucherInput 发放凭证参数
type GrantVoucherInput struct {
	UserID         uint
	Type           string
	Meters         decimal.Decimal
	Shipments      int
	DiscountPct    decimal.Decimal
	DiscountAmount decimal.Decimal
	ExpiresAt      *time.Time
	Note           string
	AdminID        uint
}

// RedemptionRef 核销关联的结算记录
type RedemptionRef struct {
	OrderID *uint
	QuoteID *uint
	Source  string
}

var voucherTypes = map[string]bool{
	constants.VoucherTypeMeters:          true,
	constants.VoucherTypeDiscountPercent: true,
	constants.VoucherTypeDiscountAmount:  true,
	constants.VoucherTypeFreeShipping:    true,
	constants.VoucherTypeFreeProduct:     true,
}

// GrantVoucher 后台发放凭证
func (s *VoucherService) GrantVoucher(input GrantVoucherInput) (*models.Voucher, error) {
	voucherType := strings.ToUpper(strings.TrimSpace(input.Type))
	if voucherType == "" {
		voucherType = constants.VoucherTypeMeters
	}
	if !voucherTypes[voucherType] {
		return nil, fmt.Errorf("%w: unknown type %s", ErrVoucherInvalidInput, input.Type)
	}
	if input.Meters.IsNegative() || input.Shipments < 0 || input.DiscountPct.IsNegative() || input.DiscountAmount.IsNegative() {
		return nil, ErrVoucherInvalidInput
	}
	if input.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrVoucherInvalidInput
	}
	if voucherType == constants.VoucherTypeMeters && !input.Meters.IsPositive() && input.Shipments == 0 {
		return nil, fmt.Errorf("%w: meters voucher needs meters or shipments", ErrVoucherInvalidInput)
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.clock.Now()) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", ErrVoucherInvalidInput)
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	meters := input.Meters.Round(2)
	voucher := &models.Voucher{
		Code:               generateVoucherCode(),
		Type:               voucherType,
		UserID:             user.ID,
		InitialMeters:      meters,
		RemainingMeters:    meters,
		InitialShipments:   input.Shipments,
		RemainingShipments: input.Shipments,
		DiscountPct:        input.DiscountPct.Round(2),
		DiscountAmount:     models.NewMoneyFromDecimal(input.DiscountAmount),
		IsActive:           true,
		ExpiresAt:          input.ExpiresAt,
		GrantedBy:          input.AdminID,
		Note:               strings.TrimSpace(input.Note),
	}
	if err := s.voucherRepo.Create(voucher); err != nil {
		return nil, err
	}
	logger.Infow("voucher_granted",
		"voucher_id", voucher.ID,
		"user_id", user.ID,
		"type", voucherType,
		"meters", meters.String(),
		"shipments", input.Shipments,
		"admin_id", input.AdminID,
	)
	return voucher, nil
}

// SetActive 后台启用或停用凭证
func (s *VoucherService) SetActive(id uint, active bool) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	if active && !voucher.RemainingMeters.IsPositive() && voucher.RemainingShipments <= 0 {
		return nil, ErrVoucherInsufficient
	}
	voucher.IsActive = active
	if err := s.voucherRepo.Update(voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// Get 获取凭证
func (s *VoucherService) Get(id uint) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// List 凭证列表
func (s *VoucherService) List(filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	return s.voucherRepo.List(filter)
}

// ListUsable 用户当前可用凭证
func (s *VoucherService) ListUsable(userID uint) ([]models.Voucher, error) {
	return s.voucherRepo.ListUsableByUser(userID, s.clock.Now())
}

// ListRedemptions 凭证核销流水
func (s *VoucherService) ListRedemptions(voucherID uint) ([]models.VoucherRedemption, error) {
	return s.voucherRepo.ListRedemptions(voucherID)
}

// Balance 凭证余额快照，过期或停用的凭证视为不可用
func (s *VoucherService) Balance(voucher *models.Voucher) pricing.VoucherBalance {
	if voucher == nil {
		return pricing.VoucherBalance{}
	}
	active := voucher.IsActive
	if voucher.ExpiresAt != nil && !voucher.ExpiresAt.After(s.clock.Now()) {
		active = false
	}
	meters := voucher.RemainingMeters
	if voucher.Type != constants.VoucherTypeMeters {
		meters = decimal.Zero
	}
	return pricing.VoucherBalance{
		RemainingMeters:    meters,
		RemainingShipments: voucher.RemainingShipments,
		Active:             active,
	}
}

// EvaluateForUser 校验凭证归属并评估覆盖情况
func (s *VoucherService) EvaluateForUser(voucherID, userID uint, requiredMeters decimal.Decimal, shippingMethod string) (*models.Voucher, pricing.Coverage, error) {
	voucher, err := s.voucherRepo.GetByID(voucherID)
	if err != nil {
		return nil, pricing.Coverage{}, err
	}
	return s.evaluate(voucher, userID, requiredMeters, shippingMethod)
}

// EvaluateInTx 在事务内加锁读取凭证并评估覆盖情况
func (s *VoucherService) EvaluateInTx(tx *gorm.DB, voucherID, userID uint, requiredMeters decimal.Decimal, shippingMethod string) (*models.Voucher, pricing.Coverage, error) {
	voucher, err := s.voucherRepo.WithTx(tx).GetByIDForUpdate(voucherID)
	if err != nil {
		return nil, pricing.Coverage{}, err
	}
	return s.evaluate(voucher, userID, requiredMeters, shippingMethod)
}

func (s *VoucherService) evaluate(voucher *models.Voucher, userID uint, requiredMeters decimal.Decimal, shippingMethod string) (*models.Voucher, pricing.Coverage, error) {
	if voucher == nil {
		return nil, pricing.Coverage{}, ErrVoucherNotFound
	}
	if userID == 0 || voucher.UserID != userID {
		return nil, pricing.Coverage{}, ErrVoucherNotOwned
	}
	balance := s.Balance(voucher)
	if !balance.Active {
		return nil, pricing.Coverage{}, ErrVoucherInactive
	}
	required, eligible := requiredShipmentsFor(shippingMethod)
	return voucher, pricing.EvaluateCoverage(requiredMeters, required, balance, eligible), nil
}

// RedeemInTx 在调用方事务内扣减凭证余额并追加核销流水
//
// 行锁读取后再做条件扣减，两者任一失败都不会写入流水。
func (s *VoucherService) RedeemInTx(tx *gorm.DB, voucherID uint, meters decimal.Decimal, shipments int, ref RedemptionRef) (*models.VoucherRedemption, error) {
	if meters.IsNegative() || shipments < 0 || (!meters.IsPositive() && shipments == 0) {
		return nil, ErrVoucherInvalidInput
	}
	meters = meters.Round(2)
	repo := s.voucherRepo.WithTx(tx)
	voucher, err := repo.GetByIDForUpdate(voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	if !s.Balance(voucher).Active {
		return nil, ErrVoucherInactive
	}
	if voucher.RemainingMeters.LessThan(meters) || voucher.RemainingShipments < shipments {
		return nil, ErrVoucherInsufficient
	}
	ok, err := repo.Debit(voucher.ID, meters, shipments)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVoucherInsufficient
	}
	redemption := &models.VoucherRedemption{
		VoucherID: voucher.ID,
		OrderID:   ref.OrderID,
		QuoteID:   ref.QuoteID,
		Meters:    meters,
		Shipments: shipments,
		CreatedAt: s.clock.Now(),
	}
	if err := repo.CreateRedemption(redemption); err != nil {
		return nil, err
	}
	metrics.Store().IncVoucherRedemption(ref.Source, meters.InexactFloat64())
	return redemption, nil
}

// HoldForQuoteInTx 报价单定价时在同一事务内扣减凭证，核销行暂不关联订单
func (s *VoucherService) HoldForQuoteInTx(tx *gorm.DB, voucherID, quoteID uint, meters decimal.Decimal, shipments int) (*models.VoucherRedemption, error) {
	if quoteID == 0 {
		return nil, ErrVoucherInvalidInput
	}
	return s.RedeemInTx(tx, voucherID, meters, shipments, RedemptionRef{
		QuoteID: &quoteID,
		Source:  "quote",
	})
}

// SettleQuoteHoldInTx 转单时将报价单占用的核销行关联到订单，不存在占用时返回 false
func (s *VoucherService) SettleQuoteHoldInTx(tx *gorm.DB, quoteID, orderID uint) (bool, error) {
	repo := s.voucherRepo.WithTx(tx)
	hold, err := repo.GetOpenQuoteHold(quoteID)
	if err != nil || hold == nil {
		return false, err
	}
	ok, err := repo.AttachOrder(hold.ID, orderID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrQuoteConversionConflict
	}
	return true, nil
}

// ReleaseQuoteHoldInTx 报价单取消、过期或重新定价时退回占用的余额
func (s *VoucherService) ReleaseQuoteHoldInTx(tx *gorm.DB, quoteID uint) (bool, error) {
	repo := s.voucherRepo.WithTx(tx)
	hold, err := repo.GetOpenQuoteHold(quoteID)
	if err != nil || hold == nil {
		return false, err
	}
	voucher, err := repo.GetByIDForUpdate(hold.VoucherID)
	if err != nil {
		return false, err
	}
	if voucher == nil {
		return false, ErrVoucherNotFound
	}
	ok, err := repo.MarkReleased(hold.ID, s.clock.Now())
	if err != nil || !ok {
		return false, err
	}
	credited, err := repo.Credit(voucher.ID, hold.Meters, hold.Shipments)
	if err != nil {
		return false, err
	}
	if !credited {
		return false, fmt.Errorf("%w: release exceeds initial balance", ErrVoucherInvalidInput)
	}
	logger.Infow("voucher_quote_hold_released",
		"voucher_id", voucher.ID,
		"quote_id", quoteID,
		"redemption_id", hold.ID,
		"meters", hold.Meters.String(),
		"shipments", hold.Shipments,
	)
	return true, nil
}

// requiredShipmentsFor 自提不消耗免运费次数
func requiredShipmentsFor(shippingMethod string) (int, bool) {
	if normalizeShippingMethod(shippingMethod) == constants.ShippingMethodPickup {
		return 0, false
	}
	return 1, true
}

func generateVoucherCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "V" + strings.ToUpper(raw[:11])
}
