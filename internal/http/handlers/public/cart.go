package public

import (
	"strings"

	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID     uint            `json:"product_id" binding:"required"`
	Meters        decimal.Decimal `json:"meters"`
	NeedsCutting  bool            `json:"needs_cutting"`
	NeedsLayout   bool            `json:"needs_layout"`
	IsPriority    bool            `json:"is_priority"`
	DesignFileURL string          `json:"design_file_url"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	Items    []service.CartItemDetail `json:"items"`
	Meters   decimal.Decimal          `json:"meters"`
	Total    models.Money             `json:"total"`
	Currency string                   `json:"currency"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	items, err := h.CartService.ListByUser(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err, "error.cart_fetch_failed")
		return
	}

	summary := CartSummary{
		Items:    items,
		Meters:   decimal.Zero,
		Currency: h.ConfigProvider.Pricing(c.Request.Context()).Currency,
	}
	total := decimal.Zero
	for _, item := range items {
		summary.Meters = summary.Meters.Add(item.Meters)
		total = total.Add(item.LineTotal.Decimal)
	}
	summary.Total = models.NewMoneyFromDecimal(total)
	response.Success(c, summary)
}

// UpsertCartItem 添加或更新购物车项
func (h *Handler) UpsertCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.CartService.UpsertItem(service.UpsertCartItemInput{
		UserID:        uid,
		ProductID:     req.ProductID,
		Meters:        req.Meters,
		NeedsCutting:  req.NeedsCutting,
		NeedsLayout:   req.NeedsLayout,
		IsPriority:    req.IsPriority,
		DesignFileURL: strings.TrimSpace(req.DesignFileURL),
	}); err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem 删除购物车项
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := handlershared.ParseUintParam(c, "product_id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.product_id_invalid", nil)
		return
	}

	if err := h.CartService.RemoveItem(uid, productID); err != nil {
		respondServiceError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	ShippingPostal  string `json:"shipping_postal"`
	ShippingMethod  string `json:"shipping_method"`
	CompanyName     string `json:"company_name"`
	TaxID           string `json:"tax_id"`
	TaxExempt       bool   `json:"tax_exempt"`
	CouponCode      string `json:"coupon_code"`
	PointsToRedeem  int64  `json:"points_to_redeem"`
	VoucherID       uint   `json:"voucher_id"`
	PaymentMethod   string `json:"payment_method"`
}

func (req CheckoutRequest) toInput(userID uint) service.CheckoutInput {
	return service.CheckoutInput{
		UserID:          userID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingPostal:  req.ShippingPostal,
		ShippingMethod:  req.ShippingMethod,
		CompanyName:     req.CompanyName,
		TaxID:           req.TaxID,
		TaxExempt:       req.TaxExempt,
		CouponCode:      strings.TrimSpace(req.CouponCode),
		PointsToRedeem:  req.PointsToRedeem,
		VoucherID:       req.VoucherID,
		PaymentMethod:   req.PaymentMethod,
	}
}

// PreviewCheckout 结算金额预览
func (h *Handler) PreviewCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	preview, err := h.CheckoutService.Preview(c.Request.Context(), req.toInput(uid))
	if err != nil {
		respondServiceError(c, err, "error.checkout_failed")
		return
	}
	response.Success(c, preview)
}

// Checkout 购物车结算下单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.CheckoutService.Checkout(c.Request.Context(), req.toInput(uid))
	if err != nil {
		respondServiceError(c, err, "error.order_create_failed")
		return
	}
	response.Success(c, gin.H{
		"order":            order,
		"payment_link_url": order.PaymentLinkURL,
	})
}
