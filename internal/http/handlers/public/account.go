package public

import (
	"strings"

	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// VoucherView 用户可见的凭证信息
type VoucherView struct {
	models.Voucher
	Usable bool `json:"usable"`
}

// ListMyQuotes 获取当前用户的报价单
func (h *Handler) ListMyQuotes(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)

	quotes, total, err := h.QuoteService.List(repository.QuoteListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err, "error.quote_fetch_failed")
		return
	}
	response.SuccessWithPage(c, quotes, response.BuildPagination(page, pageSize, total))
}

// GetMyQuote 获取当前用户的报价单详情
func (h *Handler) GetMyQuote(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	quoteID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.quote_id_invalid", nil)
		return
	}

	quote, err := h.QuoteService.GetForUser(quoteID, uid)
	if err != nil {
		respondServiceError(c, err, "error.quote_fetch_failed")
		return
	}
	response.Success(c, quote)
}

// ListMyVouchers 获取当前用户可用的凭证
func (h *Handler) ListMyVouchers(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	vouchers, err := h.VoucherService.ListUsable(uid)
	if err != nil {
		respondServiceError(c, err, "error.voucher_fetch_failed")
		return
	}
	views := make([]VoucherView, 0, len(vouchers))
	for i := range vouchers {
		views = append(views, VoucherView{
			Voucher: vouchers[i],
			Usable:  h.VoucherService.Balance(&vouchers[i]).Active,
		})
	}
	response.Success(c, views)
}

// GetLoyaltySummary 获取会员等级与积分概览
func (h *Handler) GetLoyaltySummary(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.LoyaltyService.Summary(uid)
	if err != nil {
		respondServiceError(c, err, "error.loyalty_fetch_failed")
		return
	}
	response.Success(c, summary)
}

// ListLoyaltyTransactions 获取积分流水
func (h *Handler) ListLoyaltyTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)

	items, total, err := h.LoyaltyService.ListTransactions(repository.PointTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondServiceError(c, err, "error.loyalty_fetch_failed")
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}
