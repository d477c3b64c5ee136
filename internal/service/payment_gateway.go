package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/payment/stripe"

	"github.com/shopspring/decimal"
)

// PaymentLinkInput 生成支付链接参数
type PaymentLinkInput struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	Description   string
	CustomerEmail string
	Metadata      map[string]string
}

// PaymentLink 支付链接
type PaymentLink struct {
	URL       string
	Reference string
}

// PaymentStatus 网关支付状态
type PaymentStatus struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
	Currency  string
}

// Confirmed 是否已确认到账
func (s PaymentStatus) Confirmed() bool {
	return s.Status == constants.PaymentStatusSuccess
}

// PaymentGateway 支付网关
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, input PaymentLinkInput) (*PaymentLink, error)
	GetPaymentStatus(ctx context.Context, reference string) (PaymentStatus, error)
}

// StripeGateway 基于 Stripe Checkout 的支付网关，每次调用读取最新设置
type StripeGateway struct {
	settings *ConfigProvider
}

// NewStripeGateway 创建 Stripe 网关
func NewStripeGateway(settings *ConfigProvider) *StripeGateway {
	return &StripeGateway{settings: settings}
}

func (g *StripeGateway) client(ctx context.Context) (*stripe.Client, error) {
	if g == nil || g.settings == nil {
		return nil, ErrPaymentProviderUnavailable
	}
	setting := g.settings.Stripe(ctx)
	if !setting.Enabled {
		return nil, ErrPaymentProviderUnavailable
	}
	client, err := stripe.NewClient(setting.ToClientConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentProviderUnavailable, err)
	}
	return client, nil
}

// CreatePaymentLink 创建 Checkout Session 并返回支付地址
func (g *StripeGateway) CreatePaymentLink(ctx context.Context, input PaymentLinkInput) (*PaymentLink, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	session, err := client.CreateCheckoutSession(ctx, stripe.CheckoutInput{
		Reference:     input.Reference,
		Amount:        input.Amount.Round(2),
		Currency:      input.Currency,
		Description:   input.Description,
		CustomerEmail: input.CustomerEmail,
		Metadata:      input.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentLink{URL: session.URL, Reference: session.SessionID}, nil
}

// GetPaymentStatus 查询支付状态
func (g *StripeGateway) GetPaymentStatus(ctx context.Context, reference string) (PaymentStatus, error) {
	client, err := g.client(ctx)
	if err != nil {
		return PaymentStatus{}, err
	}
	result, err := client.GetPayment(ctx, reference)
	if err != nil {
		return PaymentStatus{}, err
	}
	return PaymentStatus{
		Reference: strings.TrimSpace(reference),
		Status:    mapStripeStatus(result.Status),
		Amount:    result.Amount,
		Currency:  result.Currency,
	}, nil
}

func mapStripeStatus(status string) string {
	switch status {
	case stripe.StatusSuccess:
		return constants.PaymentStatusSuccess
	case stripe.StatusFailed:
		return constants.PaymentStatusFailed
	case stripe.StatusExpired:
		return constants.PaymentStatusExpired
	default:
		return constants.PaymentStatusPending
	}
}
