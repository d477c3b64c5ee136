package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/queue"
	"github.com/printroll-next/internal/service"

	"github.com/hibiken/asynq"
)

type fakeDeliverer struct {
	mu       sync.Mutex
	orderErr error
	quoteErr error
	orders   []uint
	quotes   []uint
	locales  []string
}

func (f *fakeDeliverer) DeliverOrderConfirmation(_ context.Context, orderID uint, locale string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, orderID)
	f.locales = append(f.locales, locale)
	return f.orderErr
}

func (f *fakeDeliverer) DeliverQuoteReady(_ context.Context, quoteID uint, locale string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = append(f.quotes, quoteID)
	f.locales = append(f.locales, locale)
	return f.quoteErr
}

type fakeExpirer struct {
	mu       sync.Mutex
	limits   []int
	affected int64
	err      error
}

func (f *fakeExpirer) ExpireDue(_ context.Context, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	return f.affected, f.err
}

func (f *fakeExpirer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.limits)
}

func mustTask(t *testing.T, typename string, payload interface{}) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(typename, body)
}

func TestHandleOrderConfirmationEmail(t *testing.T) {
	deliverer := &fakeDeliverer{}
	consumer := NewConsumer(deliverer, &fakeExpirer{})

	task := mustTask(t, queue.TaskOrderConfirmationEmail, queue.OrderConfirmationEmailPayload{OrderID: 7, Locale: "en-US"})
	if err := consumer.handleOrderConfirmationEmail(context.Background(), task); err != nil {
		t.Fatalf("handle order confirmation failed: %v", err)
	}
	if len(deliverer.orders) != 1 || deliverer.orders[0] != 7 || deliverer.locales[0] != "en-US" {
		t.Fatalf("unexpected deliveries: %+v", deliverer)
	}

	deliverer.orderErr = service.ErrEmailServiceDisabled
	if err := consumer.handleOrderConfirmationEmail(context.Background(), task); err != nil {
		t.Fatalf("disabled email should not retry: %v", err)
	}

	deliverer.orderErr = service.ErrEmailRecipientRejected
	err := consumer.handleOrderConfirmationEmail(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("rejected recipient should skip retry, got %v", err)
	}

	deliverer.orderErr = errors.New("smtp timeout")
	if err := consumer.handleOrderConfirmationEmail(context.Background(), task); err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("transient failure should be retried, got %v", err)
	}
}

func TestHandleOrderConfirmationEmailInvalidPayload(t *testing.T) {
	deliverer := &fakeDeliverer{}
	consumer := NewConsumer(deliverer, nil)

	bad := asynq.NewTask(queue.TaskOrderConfirmationEmail, []byte("{"))
	if err := consumer.handleOrderConfirmationEmail(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
	empty := mustTask(t, queue.TaskOrderConfirmationEmail, queue.OrderConfirmationEmailPayload{})
	if err := consumer.handleOrderConfirmationEmail(context.Background(), empty); err != nil {
		t.Fatalf("empty order id should be ignored: %v", err)
	}
	if len(deliverer.orders) != 0 {
		t.Fatalf("nothing should be delivered, got %v", deliverer.orders)
	}
}

func TestHandleQuoteReadyEmailSkipsUnpricedQuote(t *testing.T) {
	deliverer := &fakeDeliverer{quoteErr: service.ErrQuoteNotPriced}
	consumer := NewConsumer(deliverer, nil)

	task := mustTask(t, queue.TaskQuoteReadyEmail, queue.QuoteReadyEmailPayload{QuoteID: 3})
	if err := consumer.handleQuoteReadyEmail(context.Background(), task); err != nil {
		t.Fatalf("unpriced quote should be skipped: %v", err)
	}
	if len(deliverer.quotes) != 1 || deliverer.quotes[0] != 3 {
		t.Fatalf("unexpected deliveries: %v", deliverer.quotes)
	}
}

func TestHandleQuoteExpireSweep(t *testing.T) {
	expirer := &fakeExpirer{affected: 4}
	consumer := NewConsumer(nil, expirer)

	if err := consumer.handleQuoteExpireSweep(context.Background(), asynq.NewTask(queue.TaskQuoteExpireSweep, nil)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	task := mustTask(t, queue.TaskQuoteExpireSweep, queue.QuoteExpireSweepPayload{Limit: 25})
	if err := consumer.handleQuoteExpireSweep(context.Background(), task); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(expirer.limits) != 2 || expirer.limits[0] != defaultExpireSweepLimit || expirer.limits[1] != 25 {
		t.Fatalf("unexpected limits: %v", expirer.limits)
	}

	expirer.err = errors.New("db locked")
	if err := consumer.handleQuoteExpireSweep(context.Background(), task); err == nil {
		t.Fatalf("sweep failure should surface for retry")
	}
}

func TestSweeperSweepOnce(t *testing.T) {
	expirer := &fakeExpirer{affected: 2}
	sweeper := NewSweeper(config.QuoteConfig{SweepIntervalSeconds: 30}, expirer)
	if sweeper.interval.Seconds() != 30 {
		t.Fatalf("unexpected interval: %v", sweeper.interval)
	}
	if got := sweeper.SweepOnce(context.Background()); got != 2 {
		t.Fatalf("sweep once want 2 got %d", got)
	}
	expirer.err = errors.New("boom")
	if got := sweeper.SweepOnce(context.Background()); got != 0 {
		t.Fatalf("failed sweep should report 0, got %d", got)
	}
	if resolveSweepInterval(config.QuoteConfig{}) != defaultSweepInterval {
		t.Fatalf("default interval not applied")
	}
}

func TestSweeperStopBeforeStart(t *testing.T) {
	expirer := &fakeExpirer{}
	sweeper := NewSweeper(config.QuoteConfig{SweepIntervalSeconds: 1}, expirer)

	if err := sweeper.Stop(context.Background()); err != nil {
		t.Fatalf("stop before start failed: %v", err)
	}
	result := make(chan error, 1)
	go func() { result <- sweeper.Start(context.Background()) }()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("start after stop should return nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("start after stop kept running")
	}
	if n := expirer.calls(); n != 0 {
		t.Fatalf("stopped sweeper must not sweep, got %d calls", n)
	}
}

func TestSweeperStopEndsLoop(t *testing.T) {
	expirer := &fakeExpirer{}
	sweeper := NewSweeper(config.QuoteConfig{SweepIntervalSeconds: 60}, expirer)

	result := make(chan error, 1)
	go func() { result <- sweeper.Start(context.Background()) }()
	deadline := time.Now().Add(time.Second)
	for expirer.calls() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("initial sweep did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sweeper.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("start should return nil after stop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sweeper loop did not stop")
	}
	if err := sweeper.Start(context.Background()); err == nil {
		t.Fatalf("second start should be rejected")
	}
}
