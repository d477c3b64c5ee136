package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 转单结果标签
const (
	ConversionResultSuccess  = "success"
	ConversionResultConflict = "conflict"
	ConversionResultRejected = "rejected"
	ConversionResultError    = "error"
)

// 凭证核销来源标签
const (
	RedemptionSourceQuote    = "quote"
	RedemptionSourceCheckout = "checkout"
)

// StoreMetrics 报价单、转单与凭证核销指标
type StoreMetrics struct {
	quoteTransitions   *prometheus.CounterVec
	conversions        *prometheus.CounterVec
	conversionDuration prometheus.Observer
	voucherRedemptions *prometheus.CounterVec
	voucherMeters      prometheus.Counter
	quotesExpired      prometheus.Counter
	checkouts          *prometheus.CounterVec
}

var (
	storeMetricsOnce sync.Once
	storeMetrics     *StoreMetrics
)

// Store 返回全局指标单例
func Store() *StoreMetrics {
	storeMetricsOnce.Do(func() {
		storeMetrics = newStoreMetrics(prometheus.DefaultRegisterer)
	})
	return storeMetrics
}

// ResetStoreMetricsForTest 重置单例，仅供测试使用
func ResetStoreMetricsForTest() {
	storeMetricsOnce = sync.Once{}
	storeMetrics = nil
}

func newStoreMetrics(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	quoteTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printroll_quote_transitions_total",
		Help: "Quote status transitions by source and target status.",
	}, []string{"from", "to"})
	conversions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printroll_quote_conversions_total",
		Help: "Quote to order conversions by result.",
	}, []string{"result"})
	conversionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "printroll_quote_conversion_duration_seconds",
		Help:    "Latency of the quote to order conversion transaction.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	voucherRedemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printroll_voucher_redemptions_total",
		Help: "Voucher debits by settlement source.",
	}, []string{"source"})
	voucherMeters := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printroll_voucher_meters_redeemed_total",
		Help: "Meters debited from prepaid vouchers.",
	})
	quotesExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printroll_quotes_expired_total",
		Help: "Quotes moved to expired by the periodic sweep.",
	})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printroll_checkouts_total",
		Help: "Cart checkouts by result.",
	}, []string{"result"})

	registerer.MustRegister(
		quoteTransitions,
		conversions,
		conversionDuration,
		voucherRedemptions,
		voucherMeters,
		quotesExpired,
		checkouts,
	)

	return &StoreMetrics{
		quoteTransitions:   quoteTransitions,
		conversions:        conversions,
		conversionDuration: conversionDuration,
		voucherRedemptions: voucherRedemptions,
		voucherMeters:      voucherMeters,
		quotesExpired:      quotesExpired,
		checkouts:          checkouts,
	}
}

// IncQuoteTransition 记录报价单状态流转
func (m *StoreMetrics) IncQuoteTransition(from, to string) {
	if m == nil || m.quoteTransitions == nil {
		return
	}
	m.quoteTransitions.WithLabelValues(from, to).Inc()
}

// IncConversion 记录转单结果
func (m *StoreMetrics) IncConversion(result string) {
	if m == nil || m.conversions == nil {
		return
	}
	m.conversions.WithLabelValues(result).Inc()
}

// ObserveConversionDuration 记录转单耗时
func (m *StoreMetrics) ObserveConversionDuration(duration time.Duration) {
	if m == nil || m.conversionDuration == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	m.conversionDuration.Observe(duration.Seconds())
}

// IncVoucherRedemption 记录凭证核销，meters 为本次扣减米数
func (m *StoreMetrics) IncVoucherRedemption(source string, meters float64) {
	if m == nil || m.voucherRedemptions == nil {
		return
	}
	m.voucherRedemptions.WithLabelValues(source).Inc()
	if meters > 0 && m.voucherMeters != nil {
		m.voucherMeters.Add(meters)
	}
}

// AddQuotesExpired 记录过期清扫数量
func (m *StoreMetrics) AddQuotesExpired(count int64) {
	if m == nil || m.quotesExpired == nil || count <= 0 {
		return
	}
	m.quotesExpired.Add(float64(count))
}

// IncCheckout 记录购物车结算结果
func (m *StoreMetrics) IncCheckout(result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
}
