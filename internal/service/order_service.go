package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo repository.OrderRepository
	coupons   *CouponService
	loyalty   *LoyaltyService
	settings  *ConfigProvider
	gateway   PaymentGateway
	notifier  Notifier
	clock     clock.Clock
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, coupons *CouponService, loyalty *LoyaltyService, settings *ConfigProvider, gateway PaymentGateway, notifier Notifier, c clock.Clock) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		coupons:   coupons,
		loyalty:   loyalty,
		settings:  settings,
		gateway:   gateway,
		notifier:  notifier,
		clock:     clock.OrReal(c),
	}
}

// UpdateShippingInput 物流与发票信息
type UpdateShippingInput struct {
	TrackingNumber *string
	InvoiceURL     *string
}

// statusChange 一次状态变更请求
type statusChange struct {
	OrderID      uint
	Target       string
	RequiredFrom string
	Actor        Actor
	Note         string
	Extra        map[string]interface{}
}

// UpdateOrderStatus 管理端更新订单状态
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, targetStatus string, actor Actor, note string) (*models.Order, error) {
	target := strings.TrimSpace(targetStatus)
	if !IsOrderStatusKnown(target) {
		return nil, ErrOrderStatusInvalid
	}
	return s.changeStatus(ctx, statusChange{
		OrderID: orderID,
		Target:  target,
		Actor:   actor,
		Note:    strings.TrimSpace(note),
	})
}

// CancelOrder 用户取消待支付订单
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderCancelNotAllowed
	}
	updated, err := s.changeStatus(ctx, statusChange{
		OrderID:      order.ID,
		Target:       constants.OrderStatusCanceled,
		RequiredFrom: constants.OrderStatusPendingPayment,
		Actor:        Actor{Type: constants.ActorTypeUser, ID: userID},
		Note:         "canceled by customer",
	})
	if errors.Is(err, ErrOrderStatusInvalid) {
		return nil, ErrOrderCancelNotAllowed
	}
	return updated, err
}

// MarkOrderPaid 登记线下收款并确认订单
func (s *OrderService) MarkOrderPaid(ctx context.Context, orderID uint, reference, method string, actor Actor) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = constants.PaymentMethodBizum
	}
	switch method {
	case constants.PaymentMethodBizum, constants.PaymentMethodCash, constants.PaymentMethodCard:
	default:
		return nil, fmt.Errorf("%w: unsupported payment method", ErrCheckoutInvalidData)
	}
	extra := map[string]interface{}{"payment_method": method}
	if reference != "" {
		extra["payment_reference"] = reference
	}
	note := "payment received"
	if reference != "" {
		note = "payment " + reference
	}
	order, err := s.changeStatus(ctx, statusChange{
		OrderID:      orderID,
		Target:       constants.OrderStatusConfirmed,
		RequiredFrom: constants.OrderStatusPendingPayment,
		Actor:        actor,
		Note:         note,
		Extra:        extra,
	})
	if errors.Is(err, ErrOrderStatusInvalid) {
		return nil, ErrOrderNotPayable
	}
	return order, err
}

// changeStatus 在事务内校验流转、条件更新状态并追加流转记录
//
// 待支付 → 已确认 时累计消费与积分；待支付订单取消时回退优惠券与抵扣积分。
// 凭证米数扣减不回退，需要时由管理员补发凭证。
func (s *OrderService) changeStatus(ctx context.Context, change statusChange) (*models.Order, error) {
	actor := change.Actor.normalized()
	settings := s.pricingSettings(ctx)
	now := s.clock.Now()

	var from string
	var noop bool
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(change.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		from = order.Status
		if change.RequiredFrom != "" && from != change.RequiredFrom {
			return ErrOrderStatusInvalid
		}
		if from == change.Target {
			noop = true
			return nil
		}
		if !isTransitionAllowed(from, change.Target) {
			return ErrOrderStatusInvalid
		}

		updates := orderStatusUpdates(order.PaymentStatus, change.Target, now)
		for k, v := range change.Extra {
			updates[k] = v
		}
		ok, err := orderRepo.UpdateStatus(order.ID, from, change.Target, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderStatusInvalid
		}
		if err := orderRepo.CreateHistory(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   change.Target,
			ActorType:  actor.Type,
			ActorID:    actor.ID,
			Note:       change.Note,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		switch {
		case from == constants.OrderStatusPendingPayment && change.Target == constants.OrderStatusConfirmed:
			return s.accrueInTx(ctx, tx, order, settings)
		case from == constants.OrderStatusPendingPayment && change.Target == constants.OrderStatusCanceled:
			return s.releaseInTx(tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapOrderError("order_status_update_failed", change.OrderID, err)
	}

	order, err := s.orderRepo.GetByID(change.OrderID)
	if err != nil || order == nil {
		return nil, ErrOrderFetchFailed
	}
	if noop {
		return order, nil
	}
	logger.Infow("order_status_changed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", from,
		"to", change.Target,
		"actor_type", actor.Type,
		"actor_id", actor.ID,
	)
	if change.Target == constants.OrderStatusConfirmed && s.notifier != nil {
		s.notifier.SendOrderConfirmation(order)
	}
	return order, nil
}

func (s *OrderService) accrueInTx(ctx context.Context, tx *gorm.DB, order *models.Order, settings PricingSettings) error {
	if order.UserID == nil || s.loyalty == nil {
		return nil
	}
	accrual, err := s.loyalty.AccrueInTx(ctx, tx, AccrualRequest{
		UserID:          *order.UserID,
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
		return s.orderRepo.WithTx(tx).SetPointsEarned(order.ID, accrual.PointsEarned)
	}
	return nil
}

func (s *OrderService) releaseInTx(tx *gorm.DB, order *models.Order) error {
	if s.coupons != nil && order.CouponID != nil {
		if err := s.coupons.ReleaseUsageInTx(tx, order.ID); err != nil {
			return err
		}
	}
	if s.loyalty != nil && order.UserID != nil && order.PointsRedeemed > 0 {
		if err := s.loyalty.RefundPointsInTx(tx, *order.UserID, order.PointsRedeemed, order.ID, "Order "+order.OrderNo+" canceled"); err != nil {
			return err
		}
	}
	return nil
}

// UpdateShipping 更新物流单号与发票地址
func (s *OrderService) UpdateShipping(orderID uint, input UpdateShippingInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCanceled {
		return nil, ErrOrderStatusInvalid
	}
	updates := map[string]interface{}{}
	if input.TrackingNumber != nil {
		updates["tracking_number"] = strings.TrimSpace(*input.TrackingNumber)
	}
	if input.InvoiceURL != nil {
		updates["invoice_url"] = strings.TrimSpace(*input.InvoiceURL)
	}
	if len(updates) == 0 {
		return order, nil
	}
	updates["updated_at"] = s.clock.Now()
	if err := s.orderRepo.UpdateShipping(order.ID, updates); err != nil {
		logger.Errorw("order_shipping_update_failed", "order_id", order.ID, "error", err)
		return nil, ErrOrderUpdateFailed
	}
	return s.orderRepo.GetByID(order.ID)
}

// CreatePaymentLink 为待支付订单生成在线支付链接，已有链接时直接复用
func (s *OrderService) CreatePaymentLink(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderNotPayable
	}
	if order.PaymentLinkURL != "" && order.PaymentReference != "" {
		return order, nil
	}
	if !order.TotalAmount.IsPositive() {
		return nil, ErrOrderNotPayable
	}
	if s.gateway == nil {
		return nil, ErrPaymentProviderUnavailable
	}

	link, err := s.gateway.CreatePaymentLink(ctx, PaymentLinkInput{
		Reference:     order.OrderNo,
		Amount:        order.TotalAmount.Decimal,
		Currency:      order.Currency,
		Description:   "Order " + order.OrderNo,
		CustomerEmail: order.CustomerEmail,
		Metadata:      map[string]string{"order_no": order.OrderNo},
	})
	if err != nil {
		logger.Warnw("order_payment_link_failed", "order_id", order.ID, "error", err)
		if errors.Is(err, ErrPaymentProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayFailed, err)
	}
	if link == nil || link.URL == "" {
		return nil, fmt.Errorf("%w: empty payment link", ErrPaymentGatewayFailed)
	}

	ok, err := s.orderRepo.UpdatePayment(order.ID, constants.OrderStatusPendingPayment, map[string]interface{}{
		"payment_method":    constants.PaymentMethodCard,
		"payment_link_url":  link.URL,
		"payment_reference": link.Reference,
		"updated_at":        s.clock.Now(),
	})
	if err != nil {
		logger.Errorw("order_payment_link_save_failed", "order_id", order.ID, "error", err)
		return nil, ErrOrderUpdateFailed
	}
	if !ok {
		return nil, ErrOrderNotPayable
	}
	order.PaymentMethod = constants.PaymentMethodCard
	order.PaymentLinkURL = link.URL
	order.PaymentReference = link.Reference
	return order, nil
}

// SyncPaymentStatus 查询网关支付状态，到账后确认订单
func (s *OrderService) SyncPaymentStatus(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment || order.PaymentReference == "" {
		return order, nil
	}
	if s.gateway == nil {
		return nil, ErrPaymentProviderUnavailable
	}
	status, err := s.gateway.GetPaymentStatus(ctx, order.PaymentReference)
	if err != nil {
		logger.Warnw("order_payment_status_failed", "order_id", order.ID, "error", err)
		if errors.Is(err, ErrPaymentProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayFailed, err)
	}
	if !status.Confirmed() {
		return order, nil
	}
	return s.changeStatus(ctx, statusChange{
		OrderID:      order.ID,
		Target:       constants.OrderStatusConfirmed,
		RequiredFrom: constants.OrderStatusPendingPayment,
		Actor:        SystemActor(),
		Note:         "payment " + order.PaymentReference,
	})
}

func (s *OrderService) pricingSettings(ctx context.Context) PricingSettings {
	if s.settings == nil {
		return PricingDefaultSetting(config.PricingConfig{})
	}
	return s.settings.Pricing(ctx)
}

func (s *OrderService) mapOrderError(event string, id uint, err error) error {
	known := []error{
		ErrOrderNotFound,
		ErrOrderStatusInvalid,
		ErrOrderCancelNotAllowed,
		ErrOrderNotPayable,
		ErrPointsInsufficient,
	}
	for _, target := range known {
		if errors.Is(err, target) {
			return err
		}
	}
	logger.Errorw(event, "order_id", id, "error", err)
	return ErrOrderUpdateFailed
}
