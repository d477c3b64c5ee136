package service

import (
	"context"
	"errors"

	"github.com/printroll-next/internal/i18n"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/queue"
	"github.com/printroll-next/internal/repository"
)

// Notifier 结算通知，调用方不关心结果，失败仅记录日志
type Notifier interface {
	SendOrderConfirmation(order *models.Order)
	SendQuoteReady(quote *models.Quote)
}

// NotificationService 通知服务：请求侧入队，worker 侧投递邮件
type NotificationService struct {
	queueClient *queue.Client
	emailSvc    *EmailService
	orderRepo   repository.OrderRepository
	quoteRepo   repository.QuoteRepository
	userRepo    repository.UserRepository
	settings    *ConfigProvider
}

// NewNotificationService 创建通知服务
func NewNotificationService(queueClient *queue.Client, emailSvc *EmailService, orderRepo repository.OrderRepository, quoteRepo repository.QuoteRepository, userRepo repository.UserRepository, settings *ConfigProvider) *NotificationService {
	return &NotificationService{
		queueClient: queueClient,
		emailSvc:    emailSvc,
		orderRepo:   orderRepo,
		quoteRepo:   quoteRepo,
		userRepo:    userRepo,
		settings:    settings,
	}
}

// SendOrderConfirmation 订单确认通知入队；队列未启用时异步直接投递
func (s *NotificationService) SendOrderConfirmation(order *models.Order) {
	if s == nil || order == nil || order.ID == 0 {
		return
	}
	locale := s.resolveLocale(order.UserID)
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderConfirmationEmail(queue.OrderConfirmationEmailPayload{
			OrderID: order.ID,
			Locale:  locale,
		}); err != nil {
			logger.Warnw("notification_enqueue_order_confirmation_failed", "order_id", order.ID, "error", err)
		}
		return
	}
	go func(orderID uint) {
		if err := s.DeliverOrderConfirmation(context.Background(), orderID, locale); err != nil && !isEmailSkippable(err) {
			logger.Warnw("notification_deliver_order_confirmation_failed", "order_id", orderID, "error", err)
		}
	}(order.ID)
}

// SendQuoteReady 报价单就绪通知入队；队列未启用时异步直接投递
func (s *NotificationService) SendQuoteReady(quote *models.Quote) {
	if s == nil || quote == nil || quote.ID == 0 {
		return
	}
	locale := s.resolveLocale(quote.UserID)
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueQuoteReadyEmail(queue.QuoteReadyEmailPayload{
			QuoteID: quote.ID,
			Locale:  locale,
		}); err != nil {
			logger.Warnw("notification_enqueue_quote_ready_failed", "quote_id", quote.ID, "error", err)
		}
		return
	}
	go func(quoteID uint) {
		if err := s.DeliverQuoteReady(context.Background(), quoteID, locale); err != nil && !isEmailSkippable(err) {
			logger.Warnw("notification_deliver_quote_ready_failed", "quote_id", quoteID, "error", err)
		}
	}(quote.ID)
}

// DeliverOrderConfirmation 投递订单确认邮件（worker 调用）
func (s *NotificationService) DeliverOrderConfirmation(ctx context.Context, orderID uint, locale string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	email, err := s.orderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		return err
	}
	if email == "" {
		logger.Infow("notification_order_confirmation_skipped", "order_id", order.ID, "reason", "no_receiver")
		return nil
	}
	return s.emailSvc.SendOrderConfirmation(ctx, email, OrderEmailInput{
		OrderNo:  order.OrderNo,
		Total:    order.TotalAmount,
		Currency: order.Currency,
	}, locale)
}

// DeliverQuoteReady 投递报价单就绪邮件（worker 调用）
func (s *NotificationService) DeliverQuoteReady(ctx context.Context, quoteID uint, locale string) error {
	quote, err := s.quoteRepo.GetByID(quoteID)
	if err != nil {
		return err
	}
	if quote == nil {
		return ErrQuoteNotFound
	}
	if quote.EstimatedTotal == nil {
		return ErrQuoteNotPriced
	}
	currency := ""
	if s.settings != nil {
		currency = s.settings.Pricing(ctx).Currency
	}
	return s.emailSvc.SendQuoteReady(ctx, quote.CustomerEmail, QuoteEmailInput{
		QuoteNumber:    quote.QuoteNumber,
		Total:          *quote.EstimatedTotal,
		Currency:       currency,
		ExpiresAt:      quote.ExpiresAt,
		PaymentLinkURL: quote.PaymentLinkURL,
	}, locale)
}

func (s *NotificationService) resolveLocale(userID *uint) string {
	if userID == nil || s.userRepo == nil {
		return i18n.DefaultLocale
	}
	user, err := s.userRepo.GetByID(*userID)
	if err != nil || user == nil {
		return i18n.DefaultLocale
	}
	return i18n.NormalizeLocale(user.Locale)
}

// isEmailSkippable 邮件未启用或未配置时不视为投递失败
func isEmailSkippable(err error) bool {
	return errors.Is(err, ErrEmailServiceDisabled) || errors.Is(err, ErrEmailServiceNotConfigured)
}
