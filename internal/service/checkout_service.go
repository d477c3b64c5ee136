package service

import (
	"context"
	"errors"
	"fmt"
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

// CheckoutService 购物车结算服务
type CheckoutService struct {
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	coupons     *CouponService
	vouchers    *VoucherService
	loyalty     *LoyaltyService
	orders      *OrderService
	settings    *ConfigProvider
	notifier    Notifier
	clock       clock.Clock
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	coupons *CouponService,
	vouchers *VoucherService,
	loyalty *LoyaltyService,
	orders *OrderService,
	settings *ConfigProvider,
	notifier Notifier,
	c clock.Clock,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		coupons:     coupons,
		vouchers:    vouchers,
		loyalty:     loyalty,
		orders:      orders,
		settings:    settings,
		notifier:    notifier,
		clock:       clock.OrReal(c),
	}
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID          uint
	CustomerName    string
	CustomerPhone   string
	ShippingAddress string
	ShippingCity    string
	ShippingPostal  string
	ShippingMethod  string
	CompanyName     string
	TaxID           string
	TaxExempt       bool
	CouponCode      string
	PointsToRedeem  int64
	VoucherID       uint
	PaymentMethod   string
}

// CheckoutPreview 结算金额明细
type CheckoutPreview struct {
	Currency             string          `json:"currency"`
	Meters               decimal.Decimal `json:"meters"`
	Subtotal             models.Money    `json:"subtotal"`
	RangeDiscount        models.Money    `json:"range_discount"`
	CouponDiscount       models.Money    `json:"coupon_discount"`
	PointsDiscount       models.Money    `json:"points_discount"`
	PointsRedeemed       int64           `json:"points_redeemed"`
	ExtrasAmount         models.Money    `json:"extras_amount"`
	TaxAmount            models.Money    `json:"tax_amount"`
	ShippingCost         models.Money    `json:"shipping_cost"`
	TotalAmount          models.Money    `json:"total_amount"`
	MetersFromVoucher    decimal.Decimal `json:"meters_from_voucher"`
	ShipmentsFromVoucher int             `json:"shipments_from_voucher"`
	FullyCovered         bool            `json:"fully_covered"`
}

// checkoutLine 结算行
type checkoutLine struct {
	Item      models.CartItem
	Product   *models.Product
	Selection pricing.Selection
	Price     pricing.PriceResult
	Extras    pricing.Extras
}

// checkoutPlan 结算计划（事务外计算，事务内落库）
type checkoutPlan struct {
	Preview  CheckoutPreview
	Lines    []checkoutLine
	User     *models.User
	Coupon   *models.Coupon
	Voucher  *models.Voucher
	Method   string
	Shipping string
}

// Preview 计算结算金额但不落库
func (s *CheckoutService) Preview(ctx context.Context, input CheckoutInput) (*CheckoutPreview, error) {
	plan, err := s.buildPlan(ctx, input, s.pricingSettings(ctx))
	if err != nil {
		return nil, err
	}
	return &plan.Preview, nil
}

// Checkout 结算购物车并生成订单
//
// 订单、订单项、流转记录、优惠券使用、凭证扣减、积分抵扣与购物车清空在同一事务内完成；
// 应付金额为零时订单直接确认并累计积分。
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	settings := s.pricingSettings(ctx)
	plan, err := s.buildPlan(ctx, input, settings)
	if err != nil {
		metrics.Store().IncCheckout("rejected")
		return nil, err
	}

	now := s.clock.Now()
	preview := plan.Preview
	order := s.newOrder(input, plan, now)
	items := make([]models.OrderItem, 0, len(plan.Lines))
	for _, line := range plan.Lines {
		snapshot := extrasSnapshot(line.Extras, line.Selection)
		if line.Item.DesignFileURL != "" {
			snapshot["design_file_url"] = line.Item.DesignFileURL
		}
		items = append(items, models.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Item.Meters,
			UnitPrice:   models.NewMoneyFromDecimal(line.Price.UnitPrice),
			TotalPrice:  models.NewMoneyFromDecimal(line.Price.PayableSubtotal(true)),
			ExtrasJSON:  snapshot,
			CreatedAt:   now,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Create(order, items); err != nil {
			return err
		}
		if err := orderRepo.CreateHistory(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ActorType: constants.ActorTypeUser,
			ActorID:   input.UserID,
			Note:      "checkout",
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if plan.Coupon != nil {
			if err := s.coupons.RecordUsageInTx(tx, plan.Coupon, input.UserID, order.ID, preview.CouponDiscount); err != nil {
				return err
			}
		}
		if plan.Voucher != nil {
			if _, err := s.vouchers.RedeemInTx(tx, plan.Voucher.ID, preview.MetersFromVoucher, preview.ShipmentsFromVoucher, RedemptionRef{
				OrderID: &order.ID,
				Source:  "checkout",
			}); err != nil {
				return err
			}
		}
		if preview.PointsRedeemed > 0 {
			if err := s.loyalty.RedeemPointsInTx(tx, input.UserID, preview.PointsRedeemed, order.ID, "Order "+order.OrderNo); err != nil {
				return err
			}
		}
		if order.Status == constants.OrderStatusConfirmed && s.loyalty != nil {
			accrual, err := s.loyalty.AccrueInTx(ctx, tx, AccrualRequest{
				UserID:          input.UserID,
				MonetarySpend:   order.TotalAmount.Decimal,
				PaidWithVoucher: order.PaymentMethod == constants.PaymentMethodVoucher,
				OrderID:         order.ID,
				Description:     "Order " + order.OrderNo,
				PointsPerUnit:   settings.PointsPerCurrencyUnit,
			})
			if err != nil {
				return err
			}
			if accrual.PointsEarned > 0 {
				if err := orderRepo.SetPointsEarned(order.ID, accrual.PointsEarned); err != nil {
					return err
				}
				order.PointsEarned = accrual.PointsEarned
			}
		}
		return s.cartRepo.WithTx(tx).ClearByUser(input.UserID)
	})
	if err != nil {
		metrics.Store().IncCheckout("failed")
		if isCheckoutDomainError(err) {
			return nil, err
		}
		logger.Errorw("checkout_failed", "user_id", input.UserID, "error", err)
		return nil, ErrOrderCreateFailed
	}

	metrics.Store().IncCheckout("success")
	logger.Infow("checkout_completed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", input.UserID,
		"status", order.Status,
		"total", order.TotalAmount.String(),
		"coupon_id", order.CouponID,
		"voucher_id", order.VoucherID,
		"points_redeemed", order.PointsRedeemed,
	)

	if order.Status == constants.OrderStatusConfirmed {
		if s.notifier != nil {
			s.notifier.SendOrderConfirmation(order)
		}
		return order, nil
	}
	if order.PaymentMethod == constants.PaymentMethodCard && s.orders != nil {
		if linked, err := s.orders.CreatePaymentLink(ctx, order); err != nil {
			logger.Warnw("checkout_payment_link_deferred", "order_id", order.ID, "error", err)
		} else {
			order = linked
		}
	}
	return order, nil
}

func (s *CheckoutService) newOrder(input CheckoutInput, plan *checkoutPlan, now time.Time) *models.Order {
	preview := plan.Preview
	userID := input.UserID
	status := constants.OrderStatusPendingPayment
	paymentStatus := constants.OrderPaymentStatusPending
	var paidAt *time.Time
	if preview.TotalAmount.IsZero() {
		status = constants.OrderStatusConfirmed
		paymentStatus = constants.OrderPaymentStatusPaid
		paidAt = &now
	}

	customerName := strings.TrimSpace(input.CustomerName)
	if customerName == "" {
		customerName = plan.User.DisplayName
	}
	customerPhone := strings.TrimSpace(input.CustomerPhone)
	if customerPhone == "" {
		customerPhone = plan.User.Phone
	}
	discount := preview.RangeDiscount.Decimal.Add(preview.CouponDiscount.Decimal).Add(preview.PointsDiscount.Decimal)
	pricePerMeter := decimal.Zero
	if len(plan.Lines) == 1 {
		pricePerMeter = plan.Lines[0].Price.UnitPrice
	} else if preview.Meters.IsPositive() {
		gross := preview.Subtotal.Decimal.Sub(preview.ExtrasAmount.Decimal)
		pricePerMeter = gross.Div(preview.Meters).Round(2)
	}

	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          &userID,
		CustomerName:    customerName,
		CustomerEmail:   strings.ToLower(strings.TrimSpace(plan.User.Email)),
		CustomerPhone:   customerPhone,
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		ShippingCity:    strings.TrimSpace(input.ShippingCity),
		ShippingPostal:  strings.TrimSpace(input.ShippingPostal),
		ShippingMethod:  plan.Shipping,
		Status:          status,
		PaymentStatus:   paymentStatus,
		PaymentMethod:   plan.Method,
		Currency:        preview.Currency,
		Meters:          preview.Meters,
		PricePerMeter:   models.NewMoneyFromDecimal(pricePerMeter),
		Subtotal:        preview.Subtotal,
		DiscountAmount:  models.NewMoneyFromDecimal(discount),
		ExtrasAmount:    preview.ExtrasAmount,
		TaxAmount:       preview.TaxAmount,
		ShippingCost:    preview.ShippingCost,
		TotalAmount:     preview.TotalAmount,
		TaxExempt:       input.TaxExempt,
		CompanyName:     strings.TrimSpace(input.CompanyName),
		TaxID:           strings.TrimSpace(input.TaxID),
		PointsRedeemed:  preview.PointsRedeemed,
		PaidAt:          paidAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(plan.Lines) > 0 {
		order.DesignFileURL = plan.Lines[0].Item.DesignFileURL
	}
	if plan.Coupon != nil {
		couponID := plan.Coupon.ID
		order.CouponID = &couponID
	}
	if plan.Voucher != nil {
		voucherID := plan.Voucher.ID
		order.VoucherID = &voucherID
	}
	return order
}

// buildPlan 计算结算金额
//
// 顺序：阶梯价（扣除阶梯折扣）+ 附加服务 → 凭证覆盖 → 优惠券 → 积分抵扣 → 税费与运费。
func (s *CheckoutService) buildPlan(ctx context.Context, input CheckoutInput, settings PricingSettings) (*checkoutPlan, error) {
	if input.UserID == 0 {
		return nil, ErrCheckoutInvalidData
	}
	if input.PointsToRedeem < 0 {
		return nil, fmt.Errorf("%w: points must not be negative", ErrCheckoutInvalidData)
	}
	if input.TaxExempt && (strings.TrimSpace(input.CompanyName) == "" || strings.TrimSpace(input.TaxID) == "") {
		return nil, fmt.Errorf("%w: tax exempt checkout requires company name and tax id", ErrCheckoutInvalidData)
	}
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if method == "" {
		method = constants.PaymentMethodCard
	}
	switch method {
	case constants.PaymentMethodCard, constants.PaymentMethodBizum, constants.PaymentMethodCash:
	default:
		return nil, fmt.Errorf("%w: unsupported payment method", ErrCheckoutInvalidData)
	}
	shippingMethod := normalizeShippingMethod(input.ShippingMethod)
	if shippingMethod != constants.ShippingMethodPickup && strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, fmt.Errorf("%w: shipping address required", ErrCheckoutInvalidData)
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	policy, err := settings.ExtrasPolicy()
	if err != nil {
		return nil, err
	}

	cartItems, err := s.cartRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	plan := &checkoutPlan{User: user, Method: method, Shipping: shippingMethod}
	totalMeters := decimal.Zero
	for _, item := range cartItems {
		if !item.Meters.IsPositive() {
			return nil, ErrCartItemInvalid
		}
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductNotFound
		}
		plan.Lines = append(plan.Lines, checkoutLine{Item: item, Product: product, Selection: cartSelection(item)})
		totalMeters = totalMeters.Add(item.Meters)
	}

	var coverage *pricing.Coverage
	if input.VoucherID != 0 {
		voucher, cov, err := s.vouchers.EvaluateForUser(input.VoucherID, input.UserID, totalMeters, shippingMethod)
		if err != nil {
			return nil, err
		}
		if !cov.MetersFromVoucher.IsPositive() && cov.ShipmentsFromVoucher == 0 {
			return nil, ErrVoucherInsufficient
		}
		plan.Voucher = voucher
		coverage = &cov
	}

	preview := CheckoutPreview{
		Currency:          settings.Currency,
		Meters:            totalMeters,
		MetersFromVoucher: decimal.Zero,
	}
	if coverage != nil {
		preview.MetersFromVoucher = coverage.MetersFromVoucher
		preview.ShipmentsFromVoucher = coverage.ShipmentsFromVoucher
		preview.FullyCovered = coverage.FullyCovered
	}

	gross := decimal.Zero
	rangeDiscount := decimal.Zero
	extrasTotal := decimal.Zero
	voucherLeft := preview.MetersFromVoucher
	for i := range plan.Lines {
		line := &plan.Lines[i]
		ranges := toPricingRanges(line.Product.PriceRanges)
		payMeters := line.Item.Meters
		if voucherLeft.IsPositive() {
			used := decimal.Min(voucherLeft, payMeters)
			payMeters = payMeters.Sub(used)
			voucherLeft = voucherLeft.Sub(used)
		}

		if payMeters.IsPositive() {
			price, err := pricing.ResolvePrice(payMeters, ranges)
			if err != nil {
				return nil, err
			}
			line.Price = price
		} else {
			price, err := pricing.ResolvePrice(line.Item.Meters, ranges)
			if err != nil {
				return nil, err
			}
			line.Price = pricing.PriceResult{UnitPrice: price.UnitPrice, AppliedRange: price.AppliedRange, Fallback: price.Fallback}
		}

		extras, err := policy.Price(line.Item.Meters, line.Selection)
		if err != nil {
			return nil, err
		}
		if preview.FullyCovered {
			extras = pricing.Extras{Version: extras.Version}
		}
		line.Extras = extras

		gross = gross.Add(line.Price.Subtotal)
		rangeDiscount = rangeDiscount.Add(line.Price.DiscountAmount)
		extrasTotal = extrasTotal.Add(extras.Total)
	}

	net := gross.Sub(rangeDiscount).Add(extrasTotal)
	if net.IsNegative() {
		net = decimal.Zero
	}
	preview.Subtotal = models.NewMoneyFromDecimal(gross.Add(extrasTotal))
	preview.RangeDiscount = models.NewMoneyFromDecimal(rangeDiscount)
	preview.ExtrasAmount = models.NewMoneyFromDecimal(extrasTotal)
	preview.CouponDiscount = models.ZeroMoney()
	preview.PointsDiscount = models.ZeroMoney()

	if preview.FullyCovered {
		plan.Method = constants.PaymentMethodVoucher
		preview.TaxAmount = models.ZeroMoney()
		preview.ShippingCost = models.ZeroMoney()
		preview.TotalAmount = models.ZeroMoney()
		plan.Preview = preview
		return plan, nil
	}

	if code := strings.TrimSpace(input.CouponCode); code != "" {
		discount, coupon, err := s.coupons.ApplyCoupon(models.NewMoneyFromDecimal(net), code, input.UserID)
		if err != nil {
			return nil, err
		}
		plan.Coupon = coupon
		preview.CouponDiscount = discount
		net = net.Sub(discount.Decimal)
	}

	if input.PointsToRedeem > 0 {
		if user.LoyaltyPoints < input.PointsToRedeem {
			return nil, ErrPointsInsufficient
		}
		points := input.PointsToRedeem
		discount := pricing.PointsToDiscount(points)
		if discount.GreaterThan(net) {
			discount = net.RoundFloor(2)
			points = pricing.DiscountToPoints(discount)
		}
		if points > 0 && discount.IsPositive() {
			preview.PointsRedeemed = points
			preview.PointsDiscount = models.NewMoneyFromDecimal(discount)
			net = net.Sub(discount)
		}
	}

	ts := pricing.ApplyTaxAndShipping(pricing.TaxShippingInput{
		Subtotal:              net,
		ShippingBaseCost:      settings.ShippingCostFor(shippingMethod),
		TaxExempt:             input.TaxExempt,
		FreeShippingThreshold: settings.FreeShippingThreshold,
		TaxRate:               settings.TaxRate,
		ShipmentCredit:        preview.ShipmentsFromVoucher > 0,
	})
	preview.TaxAmount = models.NewMoneyFromDecimal(ts.Tax)
	preview.ShippingCost = models.NewMoneyFromDecimal(ts.Shipping)
	preview.TotalAmount = models.NewMoneyFromDecimal(ts.Total)
	plan.Preview = preview
	return plan, nil
}

func (s *CheckoutService) pricingSettings(ctx context.Context) PricingSettings {
	if s.settings == nil {
		return PricingDefaultSetting(config.PricingConfig{})
	}
	return s.settings.Pricing(ctx)
}

func isCheckoutDomainError(err error) bool {
	known := []error{
		ErrCouponUsageLimit,
		ErrVoucherInactive,
		ErrVoucherInsufficient,
		ErrVoucherNotOwned,
		ErrPointsInsufficient,
	}
	for _, target := range known {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
