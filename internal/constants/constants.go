package constants

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusInProduction   = "in_production"
	OrderStatusShipped        = "shipped"
	OrderStatusDelivered      = "delivered"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 订单支付状态常量
const (
	OrderPaymentStatusPending  = "pending"
	OrderPaymentStatusPaid     = "paid"
	OrderPaymentStatusRefunded = "refunded"
)

// 报价单状态常量
const (
	QuoteStatusPendingReview = "pending_review"
	QuoteStatusQuoted        = "quoted"
	QuoteStatusPaymentSent   = "payment_sent"
	QuoteStatusPaid          = "paid"
	QuoteStatusConverted     = "converted"
	QuoteStatusCancelled     = "cancelled"
	QuoteStatusExpired       = "expired"
)

// 支付方式常量
const (
	PaymentMethodCard    = "card"
	PaymentMethodBizum   = "bizum"
	PaymentMethodCash    = "cash"
	PaymentMethodVoucher = "voucher"
)

// 网关支付状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
	PaymentStatusExpired = "expired"
)

// 配送方式常量
const (
	ShippingMethodStandard = "standard"
	ShippingMethodExpress  = "express"
	ShippingMethodPickup   = "pickup"
)

// 优惠凭证类型常量
const (
	VoucherTypeMeters          = "METERS"
	VoucherTypeDiscountPercent = "DISCOUNT_PERCENT"
	VoucherTypeDiscountAmount  = "DISCOUNT_AMOUNT"
	VoucherTypeFreeShipping    = "FREE_SHIPPING"
	VoucherTypeFreeProduct     = "FREE_PRODUCT"
)

// 会员等级常量
const (
	LoyaltyTierBronze   = "BRONZE"
	LoyaltyTierSilver   = "SILVER"
	LoyaltyTierGold     = "GOLD"
	LoyaltyTierPlatinum = "PLATINUM"
)

// 积分流水类型常量
const (
	PointTxnTypeEarned   = "earned"
	PointTxnTypeRedeemed = "redeemed"
	PointTxnTypeRefunded = "refunded"
)

// 操作人类型常量
const (
	ActorTypeAdmin  = "admin"
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

// 商品计量单位常量
const (
	ProductUnitMeter = "meter"
	ProductUnitPiece = "piece"
)

// 优惠券类型常量
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 附加服务定价版本常量
const (
	ExtrasPolicyLegacyTable = "v1-table"
	ExtrasPolicyFormula     = "v2-formula"
)

// 队列常量
const (
	QueueDefault               = "default"
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskQuoteReadyEmail        = "quote:ready_email"
	TaskQuoteExpireSweep       = "quote:expire_sweep"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "pr"
)

// 设置键常量
const (
	SettingKeySiteConfig     = "site_config"
	SettingKeyPricingConfig  = "pricing_config"
	SettingKeySMTPConfig     = "smtp_config"
	SettingKeyStripeConfig   = "stripe_config"
	SettingFieldSiteCurrency = "currency"
)

// 缓存键常量
const (
	CacheKeyPublicConfig = "public:config"
)

// 币种常量
const (
	SiteCurrencyDefault = "EUR"
)

// 站点语言常量
const (
	LocaleEsES = "es-ES"
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEsES, LocaleEnUS, LocaleZhCN}
