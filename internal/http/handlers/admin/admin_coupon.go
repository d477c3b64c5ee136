package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateCouponRequest 创建/更新优惠券请求
type CreateCouponRequest struct {
	Code         string          `json:"code" binding:"required"`
	Type         string          `json:"type" binding:"required"`
	Value        decimal.Decimal `json:"value" binding:"required"`
	MinAmount    decimal.Decimal `json:"min_amount"`
	MaxDiscount  decimal.Decimal `json:"max_discount"`
	UsageLimit   int             `json:"usage_limit"`
	PerUserLimit int             `json:"per_user_limit"`
	StartsAt     string          `json:"starts_at"`
	EndsAt       string          `json:"ends_at"`
	IsActive     *bool           `json:"is_active"`
}

func (req CreateCouponRequest) toInput() (service.CreateCouponInput, error) {
	startsAt, err := parseTimeNullable(strings.TrimSpace(req.StartsAt))
	if err != nil {
		return service.CreateCouponInput{}, err
	}
	endsAt, err := parseTimeNullable(strings.TrimSpace(req.EndsAt))
	if err != nil {
		return service.CreateCouponInput{}, err
	}
	return service.CreateCouponInput{
		Code:         req.Code,
		Type:         req.Type,
		Value:        models.NewMoneyFromDecimal(req.Value),
		MinAmount:    models.NewMoneyFromDecimal(req.MinAmount),
		MaxDiscount:  models.NewMoneyFromDecimal(req.MaxDiscount),
		UsageLimit:   req.UsageLimit,
		PerUserLimit: req.PerUserLimit,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		IsActive:     req.IsActive,
	}, nil
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondBindError(c, err)
		return
	}

	coupon, err := h.CouponAdminService.Create(input)
	if err != nil {
		respondServiceError(c, err, "error.coupon_save_failed")
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "error.coupon_id_invalid")
	if !ok {
		return
	}
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondBindError(c, err)
		return
	}

	coupon, err := h.CouponAdminService.Update(id, service.UpdateCouponInput(input))
	if err != nil {
		respondServiceError(c, err, "error.coupon_save_failed")
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "error.coupon_id_invalid")
	if !ok {
		return
	}
	if err := h.CouponAdminService.Delete(id); err != nil {
		respondServiceError(c, err, "error.coupon_save_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetAdminCoupons 获取优惠券列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	id, err := parseOptionalUint(c.Query("id"))
	if err != nil {
		respondBindError(c, err)
		return
	}
	var isActive *bool
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		isActive = &parsed
	}

	filter := repository.CouponListFilter{
		ID:         id,
		CodePrefix: c.Query("code"),
		Type:       c.Query("type"),
		IsActive:   isActive,
		Page:       page,
		PageSize:   pageSize,
	}
	if c.Query("usable") == "true" {
		now := h.Clock.Now()
		filter.UsableAt = &now
	}
	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}

// GetCouponUsages 优惠券核销记录
func (h *Handler) GetCouponUsages(c *gin.Context) {
	id, ok := parseIDParam(c, "error.coupon_id_invalid")
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)

	report, total, err := h.CouponAdminService.ListUsages(id, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "error.coupon_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"coupon":         report.Coupon,
		"total_discount": report.TotalDiscount,
		"usages":         report.Usages,
		"pagination":     response.BuildPagination(page, pageSize, total),
	})
}

// SetCouponActiveRequest 启停优惠券请求
type SetCouponActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetCouponActive 启用或停用优惠券
func (h *Handler) SetCouponActive(c *gin.Context) {
	id, ok := parseIDParam(c, "error.coupon_id_invalid")
	if !ok {
		return
	}
	var req SetCouponActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	coupon, err := h.CouponAdminService.SetActive(id, *req.IsActive)
	if err != nil {
		respondServiceError(c, err, "error.coupon_save_failed")
		return
	}
	response.Success(c, coupon)
}
