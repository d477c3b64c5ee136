package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://shop.example.com/quotes/success?session={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.example.com/quotes/cancel",
		APIBaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestParseAndValidateConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"secret_key":           " sk_test_123 ",
		"success_url":          "https://example.com/payment?stripe_return=1",
		"cancel_url":           "https://example.com/payment?stripe_cancel=1",
		"payment_method_types": []interface{}{" Card ", ""},
	})
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	if cfg.SecretKey != "sk_test_123" {
		t.Fatalf("unexpected secret key: %s", cfg.SecretKey)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", cfg.APIBaseURL)
	}
	if len(cfg.PaymentMethodTypes) != 1 || cfg.PaymentMethodTypes[0] != "card" {
		t.Fatalf("unexpected payment method types: %v", cfg.PaymentMethodTypes)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}

	cfg.SecretKey = ""
	if err := ValidateConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("unexpected auth header: %s", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("line_items[0][price_data][unit_amount]"); got != "6292" {
			t.Errorf("unexpected unit amount: %s", got)
		}
		if got := r.PostForm.Get("line_items[0][price_data][currency]"); got != "eur" {
			t.Errorf("unexpected currency: %s", got)
		}
		if got := r.PostForm.Get("client_reference_id"); got != "Q-2026-0007" {
			t.Errorf("unexpected reference: %s", got)
		}
		if got := r.PostForm.Get("metadata[quote_id]"); got != "7" {
			t.Errorf("unexpected metadata: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "cs_test_abc",
			"url":            "https://checkout.stripe.com/c/pay/cs_test_abc",
			"status":         "open",
			"payment_status": "unpaid",
		})
	})

	session, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{
		Reference: "Q-2026-0007",
		Amount:    decimal.RequireFromString("62.92"),
		Currency:  "EUR",
		Metadata:  map[string]string{"quote_id": "7"},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.SessionID != "cs_test_abc" || session.URL == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Status != StatusPending {
		t.Fatalf("unexpected status: %s", session.Status)
	}
}

func TestCreateCheckoutSessionGatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{
		Reference: "Q-2026-0007",
		Amount:    decimal.NewFromInt(10),
		Currency:  "EUR",
	})
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected response invalid, got %v", err)
	}
}

func TestCreateCheckoutSessionRejectsZeroAmount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request should not be sent")
	})
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{
		Reference: "Q-2026-0007",
		Amount:    decimal.Zero,
		Currency:  "EUR",
	})
	if !errors.Is(err, ErrInputInvalid) {
		t.Fatalf("expected input invalid, got %v", err)
	}
}

func TestGetPaymentCheckoutSessionPaid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_test_abc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                  "cs_test_abc",
			"status":              "complete",
			"payment_status":      "paid",
			"currency":            "eur",
			"amount_total":        6292,
			"client_reference_id": "Q-2026-0007",
			"created":             1760000000,
			"payment_intent":      map[string]interface{}{"id": "pi_test_1"},
		})
	})

	result, err := client.GetPayment(context.Background(), "cs_test_abc")
	if err != nil {
		t.Fatalf("get payment failed: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if !result.Amount.Equal(decimal.RequireFromString("62.92")) {
		t.Fatalf("unexpected amount: %s", result.Amount)
	}
	if result.PaymentIntentID != "pi_test_1" || result.Reference != "Q-2026-0007" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.PaidAt == nil {
		t.Fatalf("paid_at should be set")
	}
}

func TestGetPaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents/pi_test_1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "pi_test_1",
			"status":   "processing",
			"currency": "jpy",
			"amount":   1200,
		})
	})

	result, err := client.GetPayment(context.Background(), "pi_test_1")
	if err != nil {
		t.Fatalf("get payment failed: %v", err)
	}
	if result.Status != StatusPending {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if !result.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("zero decimal currency should not be scaled: %s", result.Amount)
	}
}

func TestMapPaymentIntentStatus(t *testing.T) {
	if got := mapPaymentIntentStatus("succeeded"); got != StatusSuccess {
		t.Fatalf("expected success, got %s", got)
	}
	if got := mapPaymentIntentStatus("processing"); got != StatusPending {
		t.Fatalf("expected pending, got %s", got)
	}
	if got := mapPaymentIntentStatus("canceled"); got != StatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
}
