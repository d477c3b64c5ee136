package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/printroll-next/internal/cache"
	"github.com/printroll-next/internal/constants"
	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/pricing"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const publicConfigCacheTTL = 60 * time.Second

// CreateQuoteRequest 报价申请请求
type CreateQuoteRequest struct {
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"required"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	ShippingPostal  string `json:"shipping_postal"`
	ShippingMethod  string `json:"shipping_method"`
	CompanyName     string `json:"company_name"`
	TaxID           string `json:"tax_id"`
	TaxExempt       bool   `json:"tax_exempt"`
	Description     string `json:"description"`
	DesignFileURL   string `json:"design_file_url"`
	NeedsCutting    bool   `json:"needs_cutting"`
	NeedsLayout     bool   `json:"needs_layout"`
	IsPriority      bool   `json:"is_priority"`
}

// GetConfig 获取站点公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), constants.CacheKeyPublicConfig, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	defaults := map[string]interface{}{
		"languages":                        constants.SupportedLocales,
		constants.SettingFieldSiteCurrency: constants.SiteCurrencyDefault,
	}
	data, err := h.SettingService.GetConfig(defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.settings_fetch_failed", err)
		return
	}

	pricingSettings := h.ConfigProvider.Pricing(c.Request.Context())
	data[constants.SettingFieldSiteCurrency] = pricingSettings.Currency
	data["pricing"] = gin.H{
		"tax_rate":                pricingSettings.TaxRate,
		"free_shipping_threshold": pricingSettings.FreeShippingThreshold,
		"shipping_base_cost":      pricingSettings.ShippingBaseCost,
		"express_shipping_cost":   pricingSettings.ExpressShippingCost,
		"extras_policy_version":   pricingSettings.ExtrasPolicyVersion,
	}
	data["shipping_methods"] = []string{
		constants.ShippingMethodStandard,
		constants.ShippingMethodExpress,
		constants.ShippingMethodPickup,
	}
	stripeSettings := h.ConfigProvider.Stripe(c.Request.Context())
	data["payment"] = gin.H{
		"stripe_enabled":         stripeSettings.Enabled,
		"stripe_publishable_key": stripeSettings.PublishableKey,
	}

	_ = cache.SetJSON(c.Request.Context(), constants.CacheKeyPublicConfig, data, publicConfigCacheTTL)
	response.Success(c, data)
}

// GetProducts 获取商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListPublic(search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProductBySlug 获取商品详情（含当前有效的价格区间）
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.ProductService.GetPublicBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// GetProductPrice 按米数预览价格
func (h *Handler) GetProductPrice(c *gin.Context) {
	meters, err := decimal.NewFromString(strings.TrimSpace(c.Query("meters")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_quantity", nil)
		return
	}
	selection := pricing.Selection{
		Priority: parseBoolQuery(c, "priority"),
		Layout:   parseBoolQuery(c, "layout"),
		Cutting:  parseBoolQuery(c, "cutting"),
	}

	preview, err := h.ProductService.PreviewPrice(c.Request.Context(), c.Param("slug"), meters, selection)
	if err != nil {
		respondServiceError(c, err, "error.product_fetch_failed")
		return
	}
	response.Success(c, preview)
}

// CreateQuote 提交报价申请，游客与登录用户均可
func (h *Handler) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, err := h.QuoteService.Create(c.Request.Context(), service.CreateQuoteInput{
		UserID:          optionalUserID(c),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingPostal:  req.ShippingPostal,
		CompanyName:     req.CompanyName,
		TaxID:           req.TaxID,
		TaxExempt:       req.TaxExempt,
		Description:     req.Description,
		DesignFileURL:   req.DesignFileURL,
		ShippingMethod:  req.ShippingMethod,
		NeedsCutting:    req.NeedsCutting,
		NeedsLayout:     req.NeedsLayout,
		IsPriority:      req.IsPriority,
	})
	if err != nil {
		respondServiceError(c, err, "error.quote_create_failed")
		return
	}

	response.Success(c, gin.H{
		"id":           quote.ID,
		"quote_number": quote.QuoteNumber,
		"status":       quote.Status,
		"expires_at":   quote.ExpiresAt,
	})
}

func parseBoolQuery(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return err == nil && value
}
