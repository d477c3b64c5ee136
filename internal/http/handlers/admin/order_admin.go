package admin

import (
	"strings"

	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/repository"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOrderListItem 管理端订单列表返回
type AdminOrderListItem struct {
	models.Order
	UserEmail       string `json:"user_email,omitempty"`
	UserDisplayName string `json:"user_display_name,omitempty"`
}

// AdminOrderDetail 管理端订单详情返回
type AdminOrderDetail struct {
	models.Order
	UserEmail       string `json:"user_email,omitempty"`
	UserDisplayName string `json:"user_display_name,omitempty"`
	UserTier        string `json:"user_loyalty_tier,omitempty"`
	CouponCode      string `json:"coupon_code,omitempty"`
	VoucherCode     string `json:"voucher_code,omitempty"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
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

	orders, total, err := h.OrderService.ListOrdersForAdmin(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        userID,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		CustomerEmail: strings.TrimSpace(c.Query("customer_email")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	userIDs := make([]uint, 0, len(orders))
	seen := map[uint]struct{}{}
	for _, order := range orders {
		if order.UserID == nil || *order.UserID == 0 {
			continue
		}
		if _, ok := seen[*order.UserID]; ok {
			continue
		}
		seen[*order.UserID] = struct{}{}
		userIDs = append(userIDs, *order.UserID)
	}
	userMap := map[uint]models.User{}
	if len(userIDs) > 0 {
		users, err := h.UserRepo.ListByIDs(userIDs)
		if err != nil {
			respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
			return
		}
		for _, user := range users {
			userMap[user.ID] = user
		}
	}

	items := make([]AdminOrderListItem, 0, len(orders))
	for _, order := range orders {
		item := AdminOrderListItem{Order: order}
		if order.UserID != nil {
			if user, ok := userMap[*order.UserID]; ok {
				item.UserEmail = user.Email
				item.UserDisplayName = user.DisplayName
			}
		}
		items = append(items, item)
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "error.order_id_invalid")
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrderForAdmin(id)
	if err != nil {
		respondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	detail := AdminOrderDetail{Order: *order}
	if order.UserID != nil && *order.UserID > 0 {
		user, err := h.UserRepo.GetByID(*order.UserID)
		if err != nil {
			respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
			return
		}
		if user != nil {
			detail.UserEmail = user.Email
			detail.UserDisplayName = user.DisplayName
			detail.UserTier = user.LoyaltyTier
		}
	}
	if order.CouponID != nil && *order.CouponID > 0 {
		coupon, err := h.CouponRepo.GetByID(*order.CouponID)
		if err != nil {
			respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
			return
		}
		if coupon != nil {
			detail.CouponCode = coupon.Code
		}
	}
	if order.VoucherID != nil && *order.VoucherID > 0 {
		if voucher, err := h.VoucherService.Get(*order.VoucherID); err == nil {
			detail.VoucherCode = voucher.Code
		}
	}
	response.Success(c, detail)
}

// AdminUpdateOrderStatusRequest 管理端更新订单状态请求
type AdminUpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// AdminUpdateOrderStatus 管理端更新订单状态
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "error.order_id_invalid")
	if !ok {
		return
	}
	var req AdminUpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.OrderService.UpdateOrderStatus(c.Request.Context(), id, req.Status, currentActor(c), req.Note)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AdminMarkOrderPaidRequest 登记线下收款请求
type AdminMarkOrderPaidRequest struct {
	Reference string `json:"reference"`
	Method    string `json:"method"`
}

// AdminMarkOrderPaid 登记线下收款
func (h *Handler) AdminMarkOrderPaid(c *gin.Context) {
	id, ok := parseIDParam(c, "error.order_id_invalid")
	if !ok {
		return
	}
	var req AdminMarkOrderPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	order, err := h.OrderService.MarkOrderPaid(c.Request.Context(), id, req.Reference, req.Method, currentActor(c))
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AdminSyncOrderPayment 主动查询网关支付状态
func (h *Handler) AdminSyncOrderPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "error.order_id_invalid")
	if !ok {
		return
	}

	order, err := h.OrderService.SyncPaymentStatus(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AdminUpdateOrderShippingRequest 物流与发票信息请求
type AdminUpdateOrderShippingRequest struct {
	TrackingNumber *string `json:"tracking_number"`
	InvoiceURL     *string `json:"invoice_url"`
}

// AdminUpdateOrderShipping 更新物流单号与发票地址
func (h *Handler) AdminUpdateOrderShipping(c *gin.Context) {
	id, ok := parseIDParam(c, "error.order_id_invalid")
	if !ok {
		return
	}
	var req AdminUpdateOrderShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.OrderService.UpdateShipping(id, service.UpdateShippingInput{
		TrackingNumber: req.TrackingNumber,
		InvoiceURL:     req.InvoiceURL,
	})
	if err != nil {
		respondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}
