package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/metrics"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultQuoteExpireDays   = 15
	defaultQuoteNumberPrefix = "Q"
	quoteNumberRetries       = 3
)

// QuoteService 报价单服务
type QuoteService struct {
	quoteRepo   repository.QuoteRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	vouchers    *VoucherService
	loyalty     *LoyaltyService
	settings    *ConfigProvider
	gateway     PaymentGateway
	notifier    Notifier
	expireDays  int
	prefix      string
	clock       clock.Clock
}

// NewQuoteService 创建报价单服务
func NewQuoteService(
	quoteRepo repository.QuoteRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	vouchers *VoucherService,
	loyalty *LoyaltyService,
	settings *ConfigProvider,
	gateway PaymentGateway,
	notifier Notifier,
	cfg config.QuoteConfig,
	c clock.Clock,
) *QuoteService {
	expireDays := cfg.ExpireDays
	if expireDays <= 0 {
		expireDays = defaultQuoteExpireDays
	}
	prefix := strings.TrimSpace(cfg.NumberPrefix)
	if prefix == "" {
		prefix = defaultQuoteNumberPrefix
	}
	return &QuoteService{
		quoteRepo:   quoteRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		vouchers:    vouchers,
		loyalty:     loyalty,
		settings:    settings,
		gateway:     gateway,
		notifier:    notifier,
		expireDays:  expireDays,
		prefix:      prefix,
		clock:       clock.OrReal(c),
	}
}

// CreateQuoteInput 创建报价单参数
type CreateQuoteInput struct {
	UserID          uint
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	ShippingCity    string
	ShippingPostal  string
	CompanyName     string
	TaxID           string
	TaxExempt       bool
	Description     string
	DesignFileURL   string
	ShippingMethod  string
	NeedsCutting    bool
	NeedsLayout     bool
	IsPriority      bool
}

// PriceQuoteInput 管理员定价参数
type PriceQuoteInput struct {
	Meters         decimal.Decimal
	NeedsCutting   bool
	NeedsLayout    bool
	IsPriority     bool
	ShippingMethod string
	TaxExempt      bool
	UseVoucher     bool
	VoucherID      uint
	AdminNote      string
	ShippingCost   *decimal.Decimal
}

// Create 创建报价单（客户提交需求）
func (s *QuoteService) Create(ctx context.Context, input CreateQuoteInput) (*models.Quote, error) {
	name := strings.TrimSpace(input.CustomerName)
	email := strings.TrimSpace(input.CustomerEmail)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email required", ErrQuoteInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrQuoteInvalidInput)
	}
	companyName := strings.TrimSpace(input.CompanyName)
	taxID := strings.TrimSpace(input.TaxID)
	if input.TaxExempt && (companyName == "" || taxID == "") {
		return nil, ErrQuoteTaxIDRequired
	}

	now := s.clock.Now()
	quote := &models.Quote{
		Status:          constants.QuoteStatusPendingReview,
		UserID:          optionalID(input.UserID),
		CustomerName:    name,
		CustomerEmail:   strings.ToLower(email),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		ShippingCity:    strings.TrimSpace(input.ShippingCity),
		ShippingPostal:  strings.TrimSpace(input.ShippingPostal),
		CompanyName:     companyName,
		TaxID:           taxID,
		TaxExempt:       input.TaxExempt,
		Description:     strings.TrimSpace(input.Description),
		DesignFileURL:   strings.TrimSpace(input.DesignFileURL),
		ShippingMethod:  normalizeShippingMethod(input.ShippingMethod),
		NeedsCutting:    input.NeedsCutting,
		NeedsLayout:     input.NeedsLayout,
		IsPriority:      input.IsPriority,
		ExpiresAt:       now.AddDate(0, 0, s.expireDays),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var lastErr error
	for attempt := 0; attempt < quoteNumberRetries; attempt++ {
		seq, err := s.quoteRepo.NextSequence(s.prefix, now.Year())
		if err != nil {
			logger.Errorw("quote_next_sequence_failed", "error", err)
			return nil, ErrQuoteCreateFailed
		}
		quote.ID = 0
		quote.QuoteNumber = formatQuoteNumber(s.prefix, now.Year(), seq)
		if err := s.quoteRepo.Create(quote); err != nil {
			lastErr = err
			// 号码被并发请求占用时重试
			if existing, getErr := s.quoteRepo.GetByNumber(quote.QuoteNumber); getErr == nil && existing != nil {
				continue
			}
			break
		}
		metrics.Store().IncQuoteTransition("", constants.QuoteStatusPendingReview)
		logger.Infow("quote_created",
			"quote_id", quote.ID,
			"quote_number", quote.QuoteNumber,
			"user_id", input.UserID,
		)
		return quote, nil
	}
	logger.Errorw("quote_create_failed", "quote_number", quote.QuoteNumber, "error", lastErr)
	return nil, ErrQuoteCreateFailed
}

// Quote 管理员定价：PENDING_REVIEW/QUOTED → QUOTED
//
// 使用凭证时覆盖的米数与免运费次数在同一事务内扣减；凭证完全覆盖时直接结算并转为订单，返回的订单非空。
func (s *QuoteService) Quote(ctx context.Context, id uint, input PriceQuoteInput, actor Actor) (*models.Quote, *models.Order, error) {
	if !input.Meters.IsPositive() {
		return nil, nil, fmt.Errorf("%w: meters must be positive", ErrQuoteInvalidInput)
	}
	if input.ShippingCost != nil && input.ShippingCost.IsNegative() {
		return nil, nil, fmt.Errorf("%w: shipping cost must not be negative", ErrQuoteInvalidInput)
	}
	if input.UseVoucher && input.VoucherID == 0 {
		return nil, nil, fmt.Errorf("%w: voucher id required", ErrQuoteInvalidInput)
	}
	actor = actor.normalized()

	settings := s.pricingSettings(ctx)
	policy, err := settings.ExtrasPolicy()
	if err != nil {
		return nil, nil, err
	}
	product, err := s.productRepo.GetPrintProduct()
	if err != nil {
		logger.Errorw("quote_print_product_fetch_failed", "quote_id", id, "error", err)
		return nil, nil, ErrQuoteFetchFailed
	}
	if product == nil {
		return nil, nil, ErrPrintProductMissing
	}
	ranges := toPricingRanges(product.PriceRanges)
	selection := pricing.Selection{
		Priority: input.IsPriority,
		Layout:   input.NeedsLayout,
		Cutting:  input.NeedsCutting,
	}
	meters := input.Meters.Round(2)
	shippingMethod := normalizeShippingMethod(input.ShippingMethod)

	var (
		quote     *models.Quote
		order     *models.Order
		fromState string
	)
	start := s.clock.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		quoteRepo := s.quoteRepo.WithTx(tx)
		current, err := quoteRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrQuoteNotFound
		}
		fromState = current.Status
		if !isQuoteTransitionAllowed(current.Status, constants.QuoteStatusQuoted) {
			return ErrInvalidQuoteTransition
		}
		if input.TaxExempt && (current.TaxID == "" || current.CompanyName == "") {
			return ErrQuoteTaxIDRequired
		}
		// 重新定价前退回上一次定价占用的凭证余额
		if s.vouchers != nil {
			if _, err := s.vouchers.ReleaseQuoteHoldInTx(tx, current.ID); err != nil {
				return err
			}
		}

		var coverage *pricing.Coverage
		var voucherID *uint
		if input.UseVoucher {
			if current.UserID == nil {
				return ErrVoucherNotOwned
			}
			voucher, cov, err := s.vouchers.EvaluateInTx(tx, input.VoucherID, *current.UserID, meters, shippingMethod)
			if err != nil {
				return err
			}
			coverage = &cov
			voucherID = &voucher.ID
		}

		computed, err := computeQuotePricing(settings, policy, ranges, quotePricingInput{
			Meters:         meters,
			Selection:      selection,
			ShippingMethod: shippingMethod,
			TaxExempt:      input.TaxExempt,
			ShippingCost:   input.ShippingCost,
			Coverage:       coverage,
		})
		if err != nil {
			return err
		}

		now := s.clock.Now()
		updates := computed.updates(meters)
		updates["needs_cutting"] = input.NeedsCutting
		updates["needs_layout"] = input.NeedsLayout
		updates["is_priority"] = input.IsPriority
		updates["shipping_method"] = shippingMethod
		updates["tax_exempt"] = input.TaxExempt
		updates["voucher_id"] = voucherID
		updates["admin_note"] = strings.TrimSpace(input.AdminNote)
		updates["payment_link_url"] = ""
		updates["payment_reference"] = ""
		updates["payment_method"] = ""
		updates["quoted_at"] = now
		updates["updated_at"] = now
		if computed.FullyCovered {
			updates["payment_method"] = constants.PaymentMethodVoucher
			updates["paid_at"] = now
		}

		ok, err := quoteRepo.TransitionStatus(current.ID, []string{current.Status}, constants.QuoteStatusQuoted, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidQuoteTransition
		}
		if voucherID != nil && (computed.MetersFromVoucher.IsPositive() || computed.ShipmentsFromVoucher > 0) {
			if _, err := s.vouchers.HoldForQuoteInTx(tx, *voucherID, current.ID, computed.MetersFromVoucher, computed.ShipmentsFromVoucher); err != nil {
				return err
			}
		}
		quote, err = quoteRepo.GetByID(current.ID)
		if err != nil {
			return err
		}
		if !computed.FullyCovered {
			return nil
		}
		order, err = s.convertInTx(ctx, tx, quote, settings, actor)
		if err != nil {
			return err
		}
		quote, err = quoteRepo.GetByID(current.ID)
		return err
	})
	if err != nil {
		if order != nil || errors.Is(err, ErrQuoteConversionConflict) {
			s.recordConversion(err, start)
		}
		return nil, nil, s.mapQuoteError("quote_price_failed", id, err)
	}

	metrics.Store().IncQuoteTransition(fromState, constants.QuoteStatusQuoted)
	logger.Infow("quote_priced",
		"quote_id", quote.ID,
		"quote_number", quote.QuoteNumber,
		"actor_type", actor.Type,
		"actor_id", actor.ID,
		"meters", meters.String(),
		"voucher_fast_path", order != nil,
	)
	if order != nil {
		metrics.Store().IncQuoteTransition(constants.QuoteStatusQuoted, constants.QuoteStatusConverted)
		s.recordConversion(nil, start)
		s.notifyOrder(order)
		return quote, order, nil
	}
	if s.notifier != nil {
		s.notifier.SendQuoteReady(quote)
	}
	return quote, nil, nil
}

// GeneratePaymentLink 生成网关支付链接：QUOTED/PAYMENT_SENT → PAYMENT_SENT
//
// 网关调用在事务外进行，失败时报价单保持原状态。
func (s *QuoteService) GeneratePaymentLink(ctx context.Context, id uint, actor Actor) (*models.Quote, error) {
	quote, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !isQuoteTransitionAllowed(quote.Status, constants.QuoteStatusPaymentSent) {
		return nil, ErrInvalidQuoteTransition
	}
	if quote.EstimatedTotal == nil {
		return nil, ErrQuoteNotPriced
	}
	if !quote.EstimatedTotal.IsPositive() {
		return nil, fmt.Errorf("%w: nothing to pay", ErrQuoteInvalidInput)
	}
	if s.gateway == nil {
		return nil, ErrPaymentProviderUnavailable
	}

	settings := s.pricingSettings(ctx)
	link, err := s.gateway.CreatePaymentLink(ctx, PaymentLinkInput{
		Reference:     quote.QuoteNumber,
		Amount:        quote.EstimatedTotal.Decimal,
		Currency:      settings.Currency,
		Description:   "Quote " + quote.QuoteNumber,
		CustomerEmail: quote.CustomerEmail,
		Metadata: map[string]string{
			"quote_id":     strconv.FormatUint(uint64(quote.ID), 10),
			"quote_number": quote.QuoteNumber,
		},
	})
	if err != nil {
		logger.Warnw("quote_payment_link_failed", "quote_id", quote.ID, "error", err)
		if errors.Is(err, ErrPaymentProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayFailed, err)
	}
	if link == nil || strings.TrimSpace(link.URL) == "" {
		return nil, fmt.Errorf("%w: empty payment link", ErrPaymentGatewayFailed)
	}

	updated, err := s.transition(quote, constants.QuoteStatusPaymentSent, map[string]interface{}{
		"payment_method":    constants.PaymentMethodCard,
		"payment_link_url":  link.URL,
		"payment_reference": link.Reference,
	}, actor)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.SendQuoteReady(updated)
	}
	return updated, nil
}

// SetManualPayment 登记线下支付参考号（如 Bizum）：QUOTED/PAYMENT_SENT → PAYMENT_SENT
func (s *QuoteService) SetManualPayment(ctx context.Context, id uint, reference, method string, actor Actor) (*models.Quote, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrQuotePaymentReference
	}
	method = strings.ToLower(strings.TrimSpace(method))
	switch method {
	case "":
		method = constants.PaymentMethodBizum
	case constants.PaymentMethodBizum, constants.PaymentMethodCash, constants.PaymentMethodCard:
	default:
		return nil, fmt.Errorf("%w: unsupported payment method", ErrQuoteInvalidInput)
	}
	quote, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if quote.EstimatedTotal == nil {
		return nil, ErrQuoteNotPriced
	}
	return s.transition(quote, constants.QuoteStatusPaymentSent, map[string]interface{}{
		"payment_method":    method,
		"payment_link_url":  "",
		"payment_reference": reference,
	}, actor)
}

// MarkPaid 确认到账：QUOTED/PAYMENT_SENT → PAID，不会触发转单
func (s *QuoteService) MarkPaid(ctx context.Context, id uint, reference string, actor Actor) (*models.Quote, error) {
	quote, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if quote.EstimatedTotal == nil {
		return nil, ErrQuoteNotPriced
	}
	updates := map[string]interface{}{
		"paid_at": s.clock.Now(),
	}
	if reference = strings.TrimSpace(reference); reference != "" {
		updates["payment_reference"] = reference
	}
	if quote.PaymentMethod == "" {
		updates["payment_method"] = constants.PaymentMethodBizum
	}
	return s.transition(quote, constants.QuoteStatusPaid, updates, actor)
}

// SyncPaymentStatus 查询网关支付状态，已到账时标记为已支付
func (s *QuoteService) SyncPaymentStatus(ctx context.Context, id uint, actor Actor) (*models.Quote, error) {
	quote, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if quote.Status == constants.QuoteStatusPaid || quote.Status == constants.QuoteStatusConverted {
		return quote, nil
	}
	if quote.Status != constants.QuoteStatusPaymentSent || quote.PaymentReference == "" {
		return nil, ErrQuotePaymentReference
	}
	if s.gateway == nil {
		return nil, ErrPaymentProviderUnavailable
	}
	status, err := s.gateway.GetPaymentStatus(ctx, quote.PaymentReference)
	if err != nil {
		logger.Warnw("quote_payment_status_failed", "quote_id", quote.ID, "error", err)
		if errors.Is(err, ErrPaymentProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayFailed, err)
	}
	if !status.Confirmed() {
		return quote, nil
	}
	return s.MarkPaid(ctx, quote.ID, "", actor)
}

// Cancel 取消报价单
func (s *QuoteService) Cancel(ctx context.Context, id uint, reason string, actor Actor) (*models.Quote, error) {
	quote, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) > 500 {
		reason = string([]rune(reason)[:500])
	}
	return s.transition(quote, constants.QuoteStatusCancelled, map[string]interface{}{
		"cancel_reason": reason,
		"cancelled_at":  s.clock.Now(),
	}, actor)
}

// Expire 手动置为过期
func (s *QuoteService) Expire(ctx context.Context, id uint, actor Actor) (*models.Quote, error) {
	quote, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.transition(quote, constants.QuoteStatusExpired, nil, actor)
}

// ExpireDue 过期扫描：处理已到期且仍未支付的报价单
func (s *QuoteService) ExpireDue(ctx context.Context, limit int) (int64, error) {
	now := s.clock.Now()
	quotes, err := s.quoteRepo.ListExpirable(now, limit)
	if err != nil {
		return 0, err
	}
	if len(quotes) == 0 {
		return 0, nil
	}
	ids := make([]uint, 0, len(quotes))
	for _, quote := range quotes {
		ids = append(ids, quote.ID)
	}
	var affected int64
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		quoteRepo := s.quoteRepo.WithTx(tx)
		var err error
		affected, err = quoteRepo.ExpireDue(ids, now)
		if err != nil || affected == 0 || s.vouchers == nil {
			return err
		}
		for _, id := range ids {
			quote, err := quoteRepo.GetByID(id)
			if err != nil {
				return err
			}
			if quote == nil || quote.Status != constants.QuoteStatusExpired {
				continue
			}
			if _, err := s.vouchers.ReleaseQuoteHoldInTx(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.Store().AddQuotesExpired(affected)
	if affected > 0 {
		logger.Infow("quote_expire_sweep", "candidates", len(ids), "expired", affected)
	}
	return affected, nil
}

// Get 获取报价单
func (s *QuoteService) Get(id uint) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByID(id)
	if err != nil {
		logger.Errorw("quote_fetch_failed", "quote_id", id, "error", err)
		return nil, ErrQuoteFetchFailed
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	return quote, nil
}

// GetForUser 获取用户自己的报价单
func (s *QuoteService) GetForUser(id, userID uint) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByIDAndUser(id, userID)
	if err != nil {
		logger.Errorw("quote_fetch_failed", "quote_id", id, "user_id", userID, "error", err)
		return nil, ErrQuoteFetchFailed
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	return quote, nil
}

// List 报价单列表
func (s *QuoteService) List(filter repository.QuoteListFilter) ([]models.Quote, int64, error) {
	return s.quoteRepo.List(filter)
}

// CountByStatus 按状态统计
func (s *QuoteService) CountByStatus() (map[string]int64, error) {
	return s.quoteRepo.CountByStatus()
}

// transition 条件更新状态，状态已被其他请求修改时视为非法流转；取消或过期时同一事务内退回凭证占用
func (s *QuoteService) transition(quote *models.Quote, to string, updates map[string]interface{}, actor Actor) (*models.Quote, error) {
	if !isQuoteTransitionAllowed(quote.Status, to) {
		return nil, ErrInvalidQuoteTransition
	}
	values := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["updated_at"] = s.clock.Now()
	var ok bool
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ok, err = s.quoteRepo.WithTx(tx).TransitionStatus(quote.ID, []string{quote.Status}, to, values)
		if err != nil || !ok || !releasesVoucherHold(to) || s.vouchers == nil {
			return err
		}
		_, err = s.vouchers.ReleaseQuoteHoldInTx(tx, quote.ID)
		return err
	})
	if err != nil {
		logger.Errorw("quote_transition_failed", "quote_id", quote.ID, "from", quote.Status, "to", to, "error", err)
		return nil, ErrQuoteUpdateFailed
	}
	if !ok {
		return nil, ErrInvalidQuoteTransition
	}
	actor = actor.normalized()
	metrics.Store().IncQuoteTransition(quote.Status, to)
	logger.Infow("quote_status_changed",
		"quote_id", quote.ID,
		"quote_number", quote.QuoteNumber,
		"from", quote.Status,
		"to", to,
		"actor_type", actor.Type,
		"actor_id", actor.ID,
	)
	return s.Get(quote.ID)
}

func releasesVoucherHold(status string) bool {
	return status == constants.QuoteStatusCancelled || status == constants.QuoteStatusExpired
}

func (s *QuoteService) pricingSettings(ctx context.Context) PricingSettings {
	if s.settings == nil {
		return PricingDefaultSetting(config.PricingConfig{})
	}
	return s.settings.Pricing(ctx)
}

func (s *QuoteService) notifyOrder(order *models.Order) {
	if s.notifier == nil || order == nil {
		return
	}
	s.notifier.SendOrderConfirmation(order)
}

// mapQuoteError 已知业务错误原样返回，其余记录日志后统一为更新失败
func (s *QuoteService) mapQuoteError(event string, id uint, err error) error {
	if isQuoteDomainError(err) {
		return err
	}
	logger.Errorw(event, "quote_id", id, "error", err)
	return ErrQuoteUpdateFailed
}

func isQuoteDomainError(err error) bool {
	known := []error{
		ErrQuoteNotFound,
		ErrQuoteNotPaid,
		ErrQuoteAlreadyConverted,
		ErrQuoteNotPriced,
		ErrQuoteConversionConflict,
		ErrInvalidQuoteTransition,
		ErrQuoteInvalidInput,
		ErrQuoteTaxIDRequired,
		ErrPrintProductMissing,
		ErrVoucherNotFound,
		ErrVoucherInactive,
		ErrVoucherInsufficient,
		ErrVoucherNotOwned,
		ErrVoucherInvalidInput,
		ErrOrderCreateFailed,
		pricing.ErrNoPriceRangesConfigured,
		pricing.ErrInvalidQuantity,
		pricing.ErrUnknownExtrasPolicy,
	}
	for _, target := range known {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *QuoteService) recordConversion(err error, start time.Time) {
	store := metrics.Store()
	switch {
	case err == nil:
		store.IncConversion("success")
	case errors.Is(err, ErrQuoteConversionConflict), errors.Is(err, ErrQuoteAlreadyConverted):
		store.IncConversion("conflict")
	default:
		store.IncConversion("failed")
	}
	store.ObserveConversionDuration(s.clock.Now().Sub(start))
}
