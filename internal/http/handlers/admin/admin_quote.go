package admin

import (
	"strings"

	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminQuoteDetail 管理端报价单详情
type AdminQuoteDetail struct {
	models.Quote
	UserEmail       string          `json:"user_email,omitempty"`
	UserDisplayName string          `json:"user_display_name,omitempty"`
	Voucher         *models.Voucher `json:"voucher,omitempty"`
	Terminal        bool            `json:"terminal"`
}

// AdminListQuotes 管理端报价单列表
func (h *Handler) AdminListQuotes(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondBindError(c, err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondBindError(c, err)
		return
	}
	userID, err := parseOptionalUint(c.Query("user_id"))
	if err != nil {
		respondBindError(c, err)
		return
	}

	quotes, total, err := h.QuoteService.List(repository.QuoteListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      strings.TrimSpace(c.Query("status")),
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.quote_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, quotes, response.BuildPagination(page, pageSize, total))
}

// AdminQuoteCounts 各状态报价单数量
func (h *Handler) AdminQuoteCounts(c *gin.Context) {
	counts, err := h.QuoteService.CountByStatus()
	if err != nil {
		respondError(c, response.CodeInternal, "error.quote_fetch_failed", err)
		return
	}
	response.Success(c, counts)
}

// AdminGetQuote 管理端报价单详情
func (h *Handler) AdminGetQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}

	quote, err := h.QuoteService.Get(id)
	if err != nil {
		respondServiceError(c, err, "error.quote_fetch_failed")
		return
	}
	detail := AdminQuoteDetail{
		Quote:    *quote,
		Terminal: service.IsQuoteTerminal(quote.Status),
	}
	if quote.UserID != nil && *quote.UserID > 0 {
		user, err := h.UserRepo.GetByID(*quote.UserID)
		if err != nil {
			respondError(c, response.CodeInternal, "error.quote_fetch_failed", err)
			return
		}
		if user != nil {
			detail.UserEmail = user.Email
			detail.UserDisplayName = user.DisplayName
		}
	}
	if quote.VoucherID != nil && *quote.VoucherID > 0 {
		voucher, err := h.VoucherService.Get(*quote.VoucherID)
		if err == nil {
			detail.Voucher = voucher
		}
	}
	response.Success(c, detail)
}

// AdminPriceQuoteRequest 管理员定价请求
type AdminPriceQuoteRequest struct {
	Meters         decimal.Decimal  `json:"meters" binding:"required"`
	NeedsCutting   bool             `json:"needs_cutting"`
	NeedsLayout    bool             `json:"needs_layout"`
	IsPriority     bool             `json:"is_priority"`
	ShippingMethod string           `json:"shipping_method"`
	ShippingCost   *decimal.Decimal `json:"shipping_cost"`
	TaxExempt      bool             `json:"tax_exempt"`
	UseVoucher     bool             `json:"use_voucher"`
	VoucherID      uint             `json:"voucher_id"`
	AdminNote      string           `json:"admin_note"`
}

// AdminPriceQuote 管理员定价（凭证完全覆盖时直接转为订单）
func (h *Handler) AdminPriceQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}
	var req AdminPriceQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, order, err := h.QuoteService.Quote(c.Request.Context(), id, service.PriceQuoteInput{
		Meters:         req.Meters,
		NeedsCutting:   req.NeedsCutting,
		NeedsLayout:    req.NeedsLayout,
		IsPriority:     req.IsPriority,
		ShippingMethod: req.ShippingMethod,
		ShippingCost:   req.ShippingCost,
		TaxExempt:      req.TaxExempt,
		UseVoucher:     req.UseVoucher,
		VoucherID:      req.VoucherID,
		AdminNote:      req.AdminNote,
	}, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.quote_update_failed")
		return
	}
	requestLog(c).Infow("admin_quote_priced",
		"quote_id", quote.ID,
		"admin_id", c.GetUint("admin_id"),
		"status", quote.Status,
		"voucher_settled", order != nil,
	)
	response.Success(c, gin.H{
		"quote": quote,
		"order": order,
	})
}

// AdminGenerateQuotePaymentLink 生成支付链接
func (h *Handler) AdminGenerateQuotePaymentLink(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}

	quote, err := h.QuoteService.GeneratePaymentLink(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.payment_create_failed")
		return
	}
	response.Success(c, quote)
}

// AdminSetQuoteManualPaymentRequest 线下支付登记请求
type AdminSetQuoteManualPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
	Method    string `json:"method"`
}

// AdminSetQuoteManualPayment 登记线下支付参考号
func (h *Handler) AdminSetQuoteManualPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}
	var req AdminSetQuoteManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, err := h.QuoteService.SetManualPayment(c.Request.Context(), id, req.Reference, req.Method, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.quote_update_failed")
		return
	}
	response.Success(c, quote)
}

// AdminMarkQuotePaidRequest 确认到账请求
type AdminMarkQuotePaidRequest struct {
	Reference string `json:"reference"`
}

// AdminMarkQuotePaid 确认到账（不会自动转单）
func (h *Handler) AdminMarkQuotePaid(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}
	var req AdminMarkQuotePaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	quote, err := h.QuoteService.MarkPaid(c.Request.Context(), id, req.Reference, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.quote_update_failed")
		return
	}
	response.Success(c, quote)
}

// AdminSyncQuotePayment 主动查询网关支付状态
func (h *Handler) AdminSyncQuotePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}

	quote, err := h.QuoteService.SyncPaymentStatus(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.quote_update_failed")
		return
	}
	response.Success(c, quote)
}

// AdminCancelQuoteRequest 取消报价单请求
type AdminCancelQuoteRequest struct {
	Reason string `json:"reason"`
}

// AdminCancelQuote 取消报价单
func (h *Handler) AdminCancelQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}
	var req AdminCancelQuoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	quote, err := h.QuoteService.Cancel(c.Request.Context(), id, req.Reason, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.quote_update_failed")
		return
	}
	response.Success(c, quote)
}

// AdminExpireQuote 手动置为过期
func (h *Handler) AdminExpireQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}

	quote, err := h.QuoteService.Expire(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.quote_update_failed")
		return
	}
	response.Success(c, quote)
}

// AdminConvertQuote 已支付报价单转为订单
func (h *Handler) AdminConvertQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "error.quote_id_invalid")
	if !ok {
		return
	}

	order, err := h.QuoteService.ConvertToOrder(c.Request.Context(), id, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.order_create_failed")
		return
	}
	requestLog(c).Infow("admin_quote_converted",
		"quote_id", id,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"admin_id", c.GetUint("admin_id"),
	)
	response.Success(c, order)
}
