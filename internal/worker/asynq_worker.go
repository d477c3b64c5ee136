package worker

import (
	"context"
	"errors"

	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/queue"
	"github.com/printroll-next/internal/service"

	"github.com/hibiken/asynq"
)

const defaultExpireSweepLimit = 200

// NotificationDeliverer 邮件投递
type NotificationDeliverer interface {
	DeliverOrderConfirmation(ctx context.Context, orderID uint, locale string) error
	DeliverQuoteReady(ctx context.Context, quoteID uint, locale string) error
}

// QuoteExpirer 报价单过期处理
type QuoteExpirer interface {
	ExpireDue(ctx context.Context, limit int) (int64, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	notifications NotificationDeliverer
	quotes        QuoteExpirer
}

// NewConsumer 创建消费者
func NewConsumer(notifications NotificationDeliverer, quotes QuoteExpirer) *Consumer {
	return &Consumer{
		notifications: notifications,
		quotes:        quotes,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmationEmail, c.handleOrderConfirmationEmail)
	mux.HandleFunc(queue.TaskQuoteReadyEmail, c.handleQuoteReadyEmail)
	mux.HandleFunc(queue.TaskQuoteExpireSweep, c.handleQuoteExpireSweep)
}

func (c *Consumer) handleOrderConfirmationEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.notifications == nil {
		logger.Debugw("worker_order_confirmation_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.DecodePayload[queue.OrderConfirmationEmailPayload](task)
	if err != nil {
		logger.Warnw("worker_order_confirmation_unmarshal_failed", "error", err)
		return skipRetry(err)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_confirmation_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	err = c.notifications.DeliverOrderConfirmation(ctx, payload.OrderID, payload.Locale)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrOrderNotFound):
		logger.Debugw("worker_order_confirmation_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	case isDeliverySkippable(err):
		logger.Debugw("worker_order_confirmation_skip_email_disabled", "order_id", payload.OrderID)
		return nil
	case errors.Is(err, service.ErrEmailRecipientRejected):
		logger.Warnw("worker_order_confirmation_recipient_rejected", "order_id", payload.OrderID, "error", err)
		return skipRetry(err)
	default:
		logger.Warnw("worker_order_confirmation_send_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
}

func (c *Consumer) handleQuoteReadyEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.notifications == nil {
		logger.Debugw("worker_quote_ready_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.DecodePayload[queue.QuoteReadyEmailPayload](task)
	if err != nil {
		logger.Warnw("worker_quote_ready_unmarshal_failed", "error", err)
		return skipRetry(err)
	}
	if payload.QuoteID == 0 {
		logger.Debugw("worker_quote_ready_skip_invalid_payload", "quote_id", payload.QuoteID)
		return nil
	}
	err = c.notifications.DeliverQuoteReady(ctx, payload.QuoteID, payload.Locale)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrQuoteNotFound), errors.Is(err, service.ErrQuoteNotPriced):
		logger.Debugw("worker_quote_ready_skip", "quote_id", payload.QuoteID, "reason", err.Error())
		return nil
	case isDeliverySkippable(err):
		logger.Debugw("worker_quote_ready_skip_email_disabled", "quote_id", payload.QuoteID)
		return nil
	case errors.Is(err, service.ErrEmailRecipientRejected):
		logger.Warnw("worker_quote_ready_recipient_rejected", "quote_id", payload.QuoteID, "error", err)
		return skipRetry(err)
	default:
		logger.Warnw("worker_quote_ready_send_failed", "quote_id", payload.QuoteID, "error", err)
		return err
	}
}

func (c *Consumer) handleQuoteExpireSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.quotes == nil {
		logger.Debugw("worker_quote_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.QuoteExpireSweepPayload
	if len(task.Payload()) > 0 {
		decoded, err := queue.DecodePayload[queue.QuoteExpireSweepPayload](task)
		if err != nil {
			logger.Warnw("worker_quote_expire_unmarshal_failed", "error", err)
			return skipRetry(err)
		}
		payload = decoded
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = defaultExpireSweepLimit
	}
	affected, err := c.quotes.ExpireDue(ctx, limit)
	if err != nil {
		logger.Warnw("worker_quote_expire_failed", "error", err)
		return err
	}
	if affected > 0 {
		logger.Infow("worker_quote_expire_done", "expired", affected)
	}
	return nil
}

func isDeliverySkippable(err error) bool {
	return errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured)
}

func skipRetry(err error) error {
	return errors.Join(err, asynq.SkipRetry)
}
