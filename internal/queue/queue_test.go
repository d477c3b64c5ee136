package queue

import (
	"testing"

	"github.com/printroll-next/internal/config"

	"github.com/hibiken/asynq"
)

func TestDecodePayloadRoundTrip(t *testing.T) {
	task, err := NewQuoteReadyEmailTask(QuoteReadyEmailPayload{QuoteID: 42, Locale: "es"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskQuoteReadyEmail {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	payload, err := DecodePayload[QuoteReadyEmailPayload](task)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.QuoteID != 42 || payload.Locale != "es" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if _, err := DecodePayload[QuoteReadyEmailPayload](asynq.NewTask(TaskQuoteReadyEmail, []byte("{"))); err == nil {
		t.Fatalf("expected decode error for broken payload")
	}
	if _, err := DecodePayload[QuoteReadyEmailPayload](nil); err == nil {
		t.Fatalf("expected error for nil task")
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderConfirmationEmail(OrderConfirmationEmailPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.EnqueueQuoteExpireSweep(QuoteExpireSweepPayload{Limit: 10}, 0); err != nil {
		t.Fatalf("disabled sweep enqueue should be noop, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should report disabled")
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" || cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected defaults: addr=%s cfg=%+v", opt.Addr, cfg)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{
		Host:        " redis.internal ",
		Port:        6380,
		DB:          2,
		Concurrency: 4,
		Queues:      map[string]int{"critical": 6, DefaultQueue: 1},
	})
	if opt.Addr != "redis.internal:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 4 || cfg.Queues["critical"] != 6 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
