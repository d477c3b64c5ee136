package repository

import (
	"fmt"
	"time"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal          int64
	PaidOrders           int64
	PendingPaymentOrders int64
	InProductionOrders   int64
	RevenuePaid          float64
	MetersSold           float64
	QuotesTotal          int64
	QuotesAwaitingReview int64
	QuotesConverted      int64
	VoucherMetersOpen    float64
	NewUsers             int64
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day         string
	OrdersTotal int64
	OrdersPaid  int64
	Revenue     float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func paidOrderStatuses() []string {
	return []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusInProduction,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCompleted,
	}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status IN ?", paidOrderStatuses()).Count(&result.PaidOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusPendingPayment).Count(&result.PendingPaymentOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusInProduction).Count(&result.InProductionOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().
		Where("payment_status = ?", constants.OrderPaymentStatusPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.RevenuePaid).Error; err != nil {
		return result, err
	}
	if err := orderBase().
		Where("status IN ?", paidOrderStatuses()).
		Select("COALESCE(SUM(meters), 0)").
		Scan(&result.MetersSold).Error; err != nil {
		return result, err
	}

	quoteBase := func() *gorm.DB {
		return r.db.Model(&models.Quote{}).Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	if err := quoteBase().Count(&result.QuotesTotal).Error; err != nil {
		return result, err
	}
	if err := quoteBase().Where("status = ?", constants.QuoteStatusPendingReview).Count(&result.QuotesAwaitingReview).Error; err != nil {
		return result, err
	}
	if err := quoteBase().Where("status = ?", constants.QuoteStatusConverted).Count(&result.QuotesConverted).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Voucher{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(remaining_meters), 0)").
		Scan(&result.VoucherMetersOpen).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewUsers).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetOrderTrends 获取订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type paidRow struct {
		Day     string
		Paid    int64
		Revenue float64
	}

	dayExpr := dayExprByDialect(dbDialectName(r.db), "created_at")
	var totals []totalRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var paids []paidRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as paid, COALESCE(SUM(total_amount), 0) as revenue", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, paidOrderStatuses()).
		Group(dayExpr).
		Order("day asc").
		Scan(&paids).Error; err != nil {
		return nil, err
	}

	paidMap := make(map[string]paidRow, len(paids))
	for _, item := range paids {
		paidMap[item.Day] = item
	}

	result := make([]DashboardOrderTrendRow, 0, len(totals))
	for _, item := range totals {
		paid := paidMap[item.Day]
		result = append(result, DashboardOrderTrendRow{
			Day:         item.Day,
			OrdersTotal: item.Total,
			OrdersPaid:  paid.Paid,
			Revenue:     paid.Revenue,
		})
	}
	return result, nil
}
