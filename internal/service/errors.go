package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password does not satisfy policy")
	ErrUserDisabled       = errors.New("user disabled")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidToken       = errors.New("invalid token")
)

// 报价单错误
var (
	ErrQuoteNotFound           = errors.New("quote not found")
	ErrQuoteNotPaid            = errors.New("quote is not paid")
	ErrQuoteAlreadyConverted   = errors.New("quote already converted")
	ErrQuoteNotPriced          = errors.New("quote has no computed meters or total")
	ErrQuoteConversionConflict = errors.New("quote conversion handled by another request")
	ErrInvalidQuoteTransition  = errors.New("invalid quote transition")
	ErrQuoteInvalidInput       = errors.New("invalid quote input")
	ErrQuoteTaxIDRequired      = errors.New("tax exempt quote requires company name and tax id")
	ErrQuoteFetchFailed        = errors.New("quote fetch failed")
	ErrQuoteCreateFailed       = errors.New("quote create failed")
	ErrQuoteUpdateFailed       = errors.New("quote update failed")
	ErrQuotePaymentReference   = errors.New("payment reference required")
	ErrPrintProductMissing     = errors.New("print product not configured")
)

// 凭证与积分错误
var (
	ErrVoucherNotFound     = errors.New("voucher not found")
	ErrVoucherInactive     = errors.New("voucher inactive")
	ErrVoucherInsufficient = errors.New("voucher balance insufficient")
	ErrVoucherNotOwned     = errors.New("voucher does not belong to user")
	ErrVoucherInvalidInput = errors.New("invalid voucher input")
	ErrPointsInsufficient  = errors.New("loyalty points insufficient")
)

// 商品与定价错误
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductFetchFailed  = errors.New("product fetch failed")
	ErrProductSaveFailed   = errors.New("product save failed")
	ErrProductSlugConflict = errors.New("product slug already exists")
	ErrProductInvalidInput = errors.New("invalid product input")
)

// 订单与购物车错误
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderFetchFailed      = errors.New("order fetch failed")
	ErrOrderCreateFailed     = errors.New("order create failed")
	ErrOrderUpdateFailed     = errors.New("order update failed")
	ErrOrderStatusInvalid    = errors.New("order status transition not allowed")
	ErrOrderCancelNotAllowed = errors.New("order cannot be canceled")
	ErrOrderNotPayable       = errors.New("order is not awaiting payment")
	ErrCartEmpty             = errors.New("cart is empty")
	ErrCartItemInvalid       = errors.New("invalid cart item")
	ErrCheckoutInvalidData   = errors.New("invalid checkout data")
)

// 优惠券错误
var (
	ErrCouponInvalid      = errors.New("coupon invalid")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponInactive     = errors.New("coupon inactive")
	ErrCouponNotStarted   = errors.New("coupon not started")
	ErrCouponExpired      = errors.New("coupon expired")
	ErrCouponUsageLimit   = errors.New("coupon usage limit reached")
	ErrCouponPerUserLimit = errors.New("coupon per user limit reached")
	ErrCouponMinAmount    = errors.New("coupon minimum amount not reached")
	ErrCouponCodeExists   = errors.New("coupon code already exists")
	ErrCouponUpdateFailed = errors.New("coupon update failed")
	ErrCouponDeleteFailed = errors.New("coupon delete failed")
)

// 支付、邮件与设置错误
var (
	ErrPaymentGatewayFailed       = errors.New("payment gateway failed")
	ErrPaymentProviderUnavailable = errors.New("payment provider not configured")
	ErrEmailServiceDisabled       = errors.New("email service disabled")
	ErrEmailServiceNotConfigured  = errors.New("email service not configured")
	ErrEmailRecipientRejected     = errors.New("email recipient rejected")
	ErrSettingInvalid             = errors.New("invalid setting value")
	ErrDashboardRangeInvalid      = errors.New("invalid dashboard range")
)
