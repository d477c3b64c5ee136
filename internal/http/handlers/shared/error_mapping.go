package shared

import (
	"errors"

	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/i18n"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 业务错误到接口错误响应的映射
type MappedError struct {
	Target error
	Code   int
	Key    string
}

var validationRules = []MappedError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrQuoteInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrQuoteTaxIDRequired, Code: response.CodeBadRequest, Key: "error.tax_id_required"},
	{Target: service.ErrQuotePaymentReference, Code: response.CodeBadRequest, Key: "error.payment_reference_required"},
	{Target: service.ErrVoucherInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrProductInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrCartItemInvalid, Code: response.CodeBadRequest, Key: "error.cart_item_invalid"},
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrCheckoutInvalidData, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrSettingInvalid, Code: response.CodeBadRequest, Key: "error.setting_invalid"},
	{Target: service.ErrDashboardRangeInvalid, Code: response.CodeBadRequest, Key: "error.dashboard_range_invalid"},
	{Target: pricing.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.invalid_quantity"},
	{Target: pricing.ErrInvalidRange, Code: response.CodeBadRequest, Key: "error.invalid_price_range"},
	{Target: pricing.ErrOverlappingRanges, Code: response.CodeBadRequest, Key: "error.invalid_price_range"},
	{Target: pricing.ErrNoPriceRangesConfigured, Code: response.CodeBadRequest, Key: "error.price_ranges_missing"},
	{Target: service.ErrPointsInsufficient, Code: response.CodeBadRequest, Key: "error.points_insufficient"},
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_invalid"},
	{Target: service.ErrCouponInactive, Code: response.CodeBadRequest, Key: "error.coupon_inactive"},
	{Target: service.ErrCouponNotStarted, Code: response.CodeBadRequest, Key: "error.coupon_not_started"},
	{Target: service.ErrCouponExpired, Code: response.CodeBadRequest, Key: "error.coupon_expired"},
	{Target: service.ErrCouponUsageLimit, Code: response.CodeBadRequest, Key: "error.coupon_usage_limit"},
	{Target: service.ErrCouponPerUserLimit, Code: response.CodeBadRequest, Key: "error.coupon_per_user_limit"},
	{Target: service.ErrCouponMinAmount, Code: response.CodeBadRequest, Key: "error.coupon_min_amount"},
}

var notFoundRules = []MappedError{
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrQuoteNotFound, Code: response.CodeNotFound, Key: "error.quote_not_found"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrVoucherNotFound, Code: response.CodeNotFound, Key: "error.voucher_not_found"},
	{Target: service.ErrVoucherNotOwned, Code: response.CodeNotFound, Key: "error.voucher_not_found"},
	{Target: service.ErrCouponNotFound, Code: response.CodeNotFound, Key: "error.coupon_not_found"},
	{Target: service.ErrPrintProductMissing, Code: response.CodeNotFound, Key: "error.product_not_found"},
}

var conflictRules = []MappedError{
	{Target: service.ErrInvalidQuoteTransition, Code: response.CodeConflict, Key: "error.quote_invalid_transition"},
	{Target: service.ErrQuoteNotPaid, Code: response.CodeConflict, Key: "error.quote_not_paid"},
	{Target: service.ErrQuoteAlreadyConverted, Code: response.CodeConflict, Key: "error.quote_already_converted"},
	{Target: service.ErrQuoteNotPriced, Code: response.CodeConflict, Key: "error.quote_not_priced"},
	{Target: service.ErrQuoteConversionConflict, Code: response.CodeConflict, Key: "error.quote_conversion_conflict"},
	{Target: service.ErrVoucherInactive, Code: response.CodeConflict, Key: "error.voucher_inactive"},
	{Target: service.ErrVoucherInsufficient, Code: response.CodeConflict, Key: "error.voucher_insufficient"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeConflict, Key: "error.order_invalid_transition"},
	{Target: service.ErrOrderCancelNotAllowed, Code: response.CodeConflict, Key: "error.order_invalid_transition"},
	{Target: service.ErrOrderNotPayable, Code: response.CodeConflict, Key: "error.order_not_payable"},
	{Target: service.ErrProductSlugConflict, Code: response.CodeConflict, Key: "error.product_slug_conflict"},
	{Target: service.ErrCouponCodeExists, Code: response.CodeConflict, Key: "error.coupon_code_exists"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists"},
}

var gatewayRules = []MappedError{
	{Target: service.ErrPaymentGatewayFailed, Code: response.CodePaymentGatewayFailed, Key: "error.payment_gateway_failed"},
	{Target: service.ErrPaymentProviderUnavailable, Code: response.CodePaymentGatewayFailed, Key: "error.payment_provider_not_supported"},
	{Target: service.ErrEmailServiceDisabled, Code: response.CodeBadRequest, Key: "error.email_disabled"},
	{Target: service.ErrEmailServiceNotConfigured, Code: response.CodeBadRequest, Key: "error.email_disabled"},
	{Target: service.ErrEmailRecipientRejected, Code: response.CodeBadRequest, Key: "error.email_invalid"},
}

var authRules = []MappedError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid"},
	{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized, Key: "error.user_disabled"},
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_old_invalid"},
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.token_invalid"},
}

var serviceErrorRules = ConcatMappedErrors(authRules, validationRules, notFoundRules, conflictRules, gatewayRules)

// ConcatMappedErrors 合并映射规则
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// RespondWithMappedError 按规则输出业务错误，未命中时使用兜底码并记录原始错误
func RespondWithMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// RespondServiceError 输出服务层错误，密码策略错误优先，其余按映射表依次匹配
func RespondServiceError(c *gin.Context, err error, fallbackKey string) {
	if RespondPasswordPolicyError(c, err) {
		return
	}
	RespondWithMappedError(c, err, serviceErrorRules, response.CodeInternal, fallbackKey)
}

// RespondPasswordPolicyError 输出密码策略错误，非密码策略错误返回 false
func RespondPasswordPolicyError(c *gin.Context, err error) bool {
	if err == nil || !errors.Is(err, service.ErrWeakPassword) {
		return false
	}
	var perr interface {
		Key() string
		Args() []interface{}
	}
	if errors.As(err, &perr) {
		msg := i18n.Sprintf(i18n.ResolveLocale(c), perr.Key(), perr.Args()...)
		RespondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
		return true
	}
	RespondError(c, response.CodeBadRequest, "error.password_weak", nil)
	return true
}
