package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = 5 * time.Minute

// SweepEnqueuer 过期清扫任务入队
type SweepEnqueuer interface {
	EnqueueQuoteExpireSweep(payload queue.QuoteExpireSweepPayload, window time.Duration) error
}

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	enqueuer      SweepEnqueuer
	sweepInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer, enqueuer SweepEnqueuer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		enqueuer:      enqueuer,
		sweepInterval: resolveSweepInterval(cfg.Quote),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.enqueuer != nil {
		go s.runSweepScheduleLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runSweepScheduleLoop 定时投递清扫任务，多实例通过 Unique 去重
func (s *Service) runSweepScheduleLoop(ctx context.Context) {
	runOnce := func() {
		if err := s.enqueuer.EnqueueQuoteExpireSweep(queue.QuoteExpireSweepPayload{Limit: defaultExpireSweepLimit}, s.sweepInterval); err != nil {
			logger.Warnw("worker_enqueue_quote_expire_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// Sweeper 队列未启用时在进程内执行过期清扫
type Sweeper struct {
	quotes   QuoteExpirer
	interval time.Duration
	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper 创建进程内清扫服务
func NewSweeper(cfg config.QuoteConfig, quotes QuoteExpirer) *Sweeper {
	return &Sweeper{
		quotes:   quotes,
		interval: resolveSweepInterval(cfg),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Name 服务名称
func (s *Sweeper) Name() string {
	return "quote-sweeper"
}

// Start 启动清扫循环，阻塞直到 ctx 结束或 Stop 被调用；Stop 先于 Start 时直接返回
func (s *Sweeper) Start(ctx context.Context) error {
	if s == nil || s.quotes == nil || s.stop == nil {
		return errors.New("sweeper not initialized")
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("sweeper already started")
	}
	defer close(s.done)

	select {
	case <-s.stop:
		return nil
	default:
	}
	s.SweepOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce 执行一次过期清扫
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	affected, err := s.quotes.ExpireDue(ctx, defaultExpireSweepLimit)
	if err != nil {
		logger.Warnw("sweeper_quote_expire_failed", "error", err)
		return 0
	}
	if affected > 0 {
		logger.Infow("sweeper_quote_expire_done", "expired", affected)
	}
	return affected
}

// Stop 停止清扫循环，已启动时等待当前一轮清扫结束
func (s *Sweeper) Stop(ctx context.Context) error {
	if s == nil || s.stop == nil {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.started.Load() {
		return nil
	}
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return nil
}

func resolveSweepInterval(cfg config.QuoteConfig) time.Duration {
	if cfg.SweepIntervalSeconds > 0 {
		return time.Duration(cfg.SweepIntervalSeconds) * time.Second
	}
	return defaultSweepInterval
}
