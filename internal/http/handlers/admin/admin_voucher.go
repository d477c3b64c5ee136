package admin

import (
	"strings"

	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/repository"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminListVouchers 管理端凭证列表
func (h *Handler) AdminListVouchers(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	userID, err := parseOptionalUint(c.Query("user_id"))
	if err != nil {
		respondBindError(c, err)
		return
	}

	vouchers, total, err := h.VoucherService.List(repository.VoucherListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		Type:       strings.ToUpper(strings.TrimSpace(c.Query("type"))),
		Code:       strings.TrimSpace(c.Query("code")),
		ActiveOnly: c.Query("active_only") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.voucher_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, vouchers, response.BuildPagination(page, pageSize, total))
}

// AdminGetVoucher 管理端凭证详情
func (h *Handler) AdminGetVoucher(c *gin.Context) {
	id, ok := parseIDParam(c, "error.voucher_id_invalid")
	if !ok {
		return
	}

	voucher, err := h.VoucherService.Get(id)
	if err != nil {
		respondServiceError(c, err, "error.voucher_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"voucher": voucher,
		"balance": h.VoucherService.Balance(voucher),
	})
}

// AdminGrantVoucherRequest 发放凭证请求
type AdminGrantVoucherRequest struct {
	UserID         uint            `json:"user_id" binding:"required"`
	Type           string          `json:"type"`
	Meters         decimal.Decimal `json:"meters"`
	Shipments      int             `json:"shipments"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ExpiresAt      string          `json:"expires_at"`
	Note           string          `json:"note"`
}

// AdminGrantVoucher 发放凭证
func (h *Handler) AdminGrantVoucher(c *gin.Context) {
	var req AdminGrantVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	expiresAt, err := parseTimeNullable(strings.TrimSpace(req.ExpiresAt))
	if err != nil {
		respondBindError(c, err)
		return
	}

	voucher, err := h.VoucherService.GrantVoucher(service.GrantVoucherInput{
		UserID:         req.UserID,
		Type:           req.Type,
		Meters:         req.Meters,
		Shipments:      req.Shipments,
		DiscountPct:    req.DiscountPct,
		DiscountAmount: req.DiscountAmount,
		ExpiresAt:      expiresAt,
		Note:           req.Note,
		AdminID:        c.GetUint("admin_id"),
	})
	if err != nil {
		respondServiceError(c, err, "error.voucher_save_failed")
		return
	}
	response.Success(c, voucher)
}

// AdminSetVoucherActiveRequest 启停凭证请求
type AdminSetVoucherActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AdminSetVoucherActive 启用或停用凭证
func (h *Handler) AdminSetVoucherActive(c *gin.Context) {
	id, ok := parseIDParam(c, "error.voucher_id_invalid")
	if !ok {
		return
	}
	var req AdminSetVoucherActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	voucher, err := h.VoucherService.SetActive(id, *req.IsActive)
	if err != nil {
		respondServiceError(c, err, "error.voucher_save_failed")
		return
	}
	requestLog(c).Infow("admin_voucher_active_changed",
		"voucher_id", id,
		"is_active", voucher.IsActive,
		"admin_id", c.GetUint("admin_id"),
	)
	response.Success(c, voucher)
}

// AdminListVoucherRedemptions 凭证核销流水
func (h *Handler) AdminListVoucherRedemptions(c *gin.Context) {
	id, ok := parseIDParam(c, "error.voucher_id_invalid")
	if !ok {
		return
	}
	if _, err := h.VoucherService.Get(id); err != nil {
		respondServiceError(c, err, "error.voucher_fetch_failed")
		return
	}

	items, err := h.VoucherService.ListRedemptions(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.voucher_fetch_failed", err)
		return
	}
	response.Success(c, items)
}
