package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"

	"github.com/hibiken/asynq"
)

// DefaultQueue 默认队列名称
const DefaultQueue = constants.QueueDefault

const (
	emailMaxRetry = 5
	emailTimeout  = 30 * time.Second
)

// Client 队列客户端；未启用时所有投递均为空操作
type Client struct {
	client       *asynq.Client
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{defaultQueue: DefaultQueue}, nil
	}
	return &Client{
		client:       asynq.NewClient(buildRedisOpt(cfg)),
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// enqueue 投递任务；重复的唯一任务视为成功
func (c *Client) enqueue(task *asynq.Task, err error, opts ...asynq.Option) error {
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(c.defaultQueue)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// EnqueueOrderConfirmationEmail 推送订单确认邮件；同一订单只投递一次
func (c *Client) EnqueueOrderConfirmationEmail(payload OrderConfirmationEmailPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderConfirmationEmailTask(payload)
	base := []asynq.Option{
		asynq.TaskID(fmt.Sprintf("order-confirmation:%d", payload.OrderID)),
		asynq.MaxRetry(emailMaxRetry),
		asynq.Timeout(emailTimeout),
	}
	return c.enqueue(task, err, append(base, opts...)...)
}

// EnqueueQuoteReadyEmail 推送报价单就绪邮件；重新报价会再次投递
func (c *Client) EnqueueQuoteReadyEmail(payload QuoteReadyEmailPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewQuoteReadyEmailTask(payload)
	base := []asynq.Option{asynq.MaxRetry(emailMaxRetry), asynq.Timeout(emailTimeout)}
	return c.enqueue(task, err, append(base, opts...)...)
}

// EnqueueQuoteExpireSweep 推送过期清扫任务，同一时间窗口内只保留一个
func (c *Client) EnqueueQuoteExpireSweep(payload QuoteExpireSweepPayload, window time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	task, err := NewQuoteExpireSweepTask(payload)
	return c.enqueue(task, err, asynq.Unique(window), asynq.MaxRetry(0))
}

// BuildServerConfig 生成队列消费端配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{DefaultQueue: 1},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
