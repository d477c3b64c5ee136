package queue

import (
	"encoding/json"
	"fmt"

	"github.com/printroll-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderConfirmationEmail 订单确认邮件
	TaskOrderConfirmationEmail = constants.TaskOrderConfirmationEmail
	// TaskQuoteReadyEmail 报价单就绪邮件
	TaskQuoteReadyEmail = constants.TaskQuoteReadyEmail
	// TaskQuoteExpireSweep 报价单过期清扫
	TaskQuoteExpireSweep = constants.TaskQuoteExpireSweep
)

// OrderConfirmationEmailPayload 订单确认邮件任务载荷
type OrderConfirmationEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Locale  string `json:"locale,omitempty"`
}

// QuoteReadyEmailPayload 报价单就绪邮件任务载荷
type QuoteReadyEmailPayload struct {
	QuoteID uint   `json:"quote_id"`
	Locale  string `json:"locale,omitempty"`
}

// QuoteExpireSweepPayload 过期清扫任务载荷，Limit 为单轮最多处理的报价单数
type QuoteExpireSweepPayload struct {
	Limit int `json:"limit"`
}

func newTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body), nil
}

// DecodePayload 解析任务载荷
func DecodePayload[T any](task *asynq.Task) (T, error) {
	var payload T
	if task == nil {
		return payload, fmt.Errorf("nil task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return payload, nil
}

// NewOrderConfirmationEmailTask 创建订单确认邮件任务
func NewOrderConfirmationEmailTask(payload OrderConfirmationEmailPayload) (*asynq.Task, error) {
	return newTask(TaskOrderConfirmationEmail, payload)
}

// NewQuoteReadyEmailTask 创建报价单就绪邮件任务
func NewQuoteReadyEmailTask(payload QuoteReadyEmailPayload) (*asynq.Task, error) {
	return newTask(TaskQuoteReadyEmail, payload)
}

// NewQuoteExpireSweepTask 创建过期清扫任务
func NewQuoteExpireSweepTask(payload QuoteExpireSweepPayload) (*asynq.Task, error) {
	return newTask(TaskQuoteExpireSweep, payload)
}
