package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/printroll-next/internal/cache"
	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90

	dashboardPendingPaymentAlert = 5
	dashboardAwaitingReviewAlert = 3
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页的订单、报价与代金券数据。
type DashboardService struct {
	repo     repository.DashboardRepository
	settings *ConfigProvider
	clock    clock.Clock
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, settings *ConfigProvider, c clock.Clock) *DashboardService {
	return &DashboardService{repo: repo, settings: settings, clock: clock.OrReal(c)}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string               `json:"range"`
	From     string               `json:"from"`
	To       string               `json:"to"`
	Timezone string               `json:"timezone"`
	Currency string               `json:"currency,omitempty"`
	KPI      DashboardKPI         `json:"kpi"`
	Funnel   DashboardFunnel      `json:"funnel"`
	Alerts   []DashboardAlertItem `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	OrdersTotal          int64  `json:"orders_total"`
	PaidOrders           int64  `json:"paid_orders"`
	PendingPaymentOrders int64  `json:"pending_payment_orders"`
	InProductionOrders   int64  `json:"in_production_orders"`
	RevenuePaid          string `json:"revenue_paid"`
	MetersSold           string `json:"meters_sold"`
	QuotesTotal          int64  `json:"quotes_total"`
	QuotesAwaitingReview int64  `json:"quotes_awaiting_review"`
	QuotesConverted      int64  `json:"quotes_converted"`
	VoucherMetersOpen    string `json:"voucher_meters_open"`
	NewUsers             int64  `json:"new_users"`
}

// DashboardFunnel 报价与订单转化
type DashboardFunnel struct {
	QuotesCreated        int64  `json:"quotes_created"`
	QuotesConverted      int64  `json:"quotes_converted"`
	OrdersCreated        int64  `json:"orders_created"`
	OrdersPaid           int64  `json:"orders_paid"`
	QuoteConversionRate  string `json:"quote_conversion_rate"`
	OrderPaymentRate     string `json:"order_payment_rate"`
	AverageOrderPerMeter string `json:"average_order_per_meter"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date        string `json:"date"`
	OrdersTotal int64  `json:"orders_total"`
	OrdersPaid  int64  `json:"orders_paid"`
	Revenue     string `json:"revenue"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, s.clock.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}

	currency := ""
	if s.settings != nil {
		currency = s.settings.Pricing(ctx).Currency
	}

	averagePerMeter := 0.0
	if overview.MetersSold > 0 {
		averagePerMeter = overview.RevenuePaid / overview.MetersSold
	}

	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Currency: strings.ToUpper(currency),
		KPI: DashboardKPI{
			OrdersTotal:          overview.OrdersTotal,
			PaidOrders:           overview.PaidOrders,
			PendingPaymentOrders: overview.PendingPaymentOrders,
			InProductionOrders:   overview.InProductionOrders,
			RevenuePaid:          formatMoneyValue(overview.RevenuePaid),
			MetersSold:           formatMoneyValue(overview.MetersSold),
			QuotesTotal:          overview.QuotesTotal,
			QuotesAwaitingReview: overview.QuotesAwaitingReview,
			QuotesConverted:      overview.QuotesConverted,
			VoucherMetersOpen:    formatMoneyValue(overview.VoucherMetersOpen),
			NewUsers:             overview.NewUsers,
		},
		Funnel: DashboardFunnel{
			QuotesCreated:        overview.QuotesTotal,
			QuotesConverted:      overview.QuotesConverted,
			OrdersCreated:        overview.OrdersTotal,
			OrdersPaid:           overview.PaidOrders,
			QuoteConversionRate:  formatPercentValue(ratioPercent(overview.QuotesConverted, overview.QuotesTotal)),
			OrderPaymentRate:     formatPercentValue(ratioPercent(overview.PaidOrders, overview.OrdersTotal)),
			AverageOrderPerMeter: formatMoneyValue(averagePerMeter),
		},
		Alerts: buildDashboardAlerts(overview),
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取仪表盘趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, s.clock.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	orderRows, err := s.repo.GetOrderTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	orderMap := make(map[string]repository.DashboardOrderTrendRow, len(orderRows))
	for _, item := range orderRows {
		orderMap[item.Day] = item
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		item := orderMap[day]
		points = append(points, DashboardTrendPoint{
			Date:        day,
			OrdersTotal: item.OrdersTotal,
			OrdersPaid:  item.OrdersPaid,
			Revenue:     formatMoneyValue(item.Revenue),
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.UTC
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func ratioPercent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 2)
	if overview.PendingPaymentOrders >= dashboardPendingPaymentAlert {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_payment_orders", Level: "warning", Value: overview.PendingPaymentOrders})
	}
	if overview.QuotesAwaitingReview >= dashboardAwaitingReviewAlert {
		alerts = append(alerts, DashboardAlertItem{Type: "quotes_awaiting_review", Level: "warning", Value: overview.QuotesAwaitingReview})
	}
	return alerts
}
