package admin

import (
	"strings"
	"time"

	"github.com/printroll-next/internal/cache"
	"github.com/printroll-next/internal/constants"
	handlershared "github.com/printroll-next/internal/http/handlers/shared"
	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err, "error.login_failed")
		return
	}
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
			"is_super": admin.IsSuper,
		},
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateAdminPassword 修改管理员密码
func (h *Handler) UpdateAdminPassword(c *gin.Context) {
	id, ok := getAdminID(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.AuthService.ChangePassword(id, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "error.save_failed")
		return
	}
	response.Success(c, nil)
}

// ====================  商品管理  ====================

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))
	onlyPrinted := c.Query("print_only") == "true"

	products, total, err := h.ProductService.ListAdmin(search, onlyPrinted, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "error.product_id_invalid")
	if !ok {
		return
	}

	product, err := h.ProductService.GetAdminByID(id)
	if err != nil {
		respondServiceError(c, err, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// CreateProductRequest 创建/更新商品请求
type CreateProductRequest struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	Unit           string   `json:"unit"`
	Images         []string `json:"images"`
	IsPrintProduct bool     `json:"is_print_product"`
	IsActive       *bool    `json:"is_active"`
	SortOrder      int      `json:"sort_order"`
}

func (req CreateProductRequest) toInput() service.CreateProductInput {
	return service.CreateProductInput{
		Slug:           req.Slug,
		Name:           req.Name,
		Description:    req.Description,
		Unit:           req.Unit,
		Images:         req.Images,
		IsPrintProduct: req.IsPrintProduct,
		IsActive:       req.IsActive,
		SortOrder:      req.SortOrder,
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.ProductService.Create(req.toInput())
	if err != nil {
		respondServiceError(c, err, "error.product_create_failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "error.product_id_invalid")
	if !ok {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.ProductService.Update(id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "error.product_update_failed")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品（打印商品不可删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "error.product_id_invalid")
	if !ok {
		return
	}

	if err := h.ProductService.Delete(id); err != nil {
		respondServiceError(c, err, "error.product_delete_failed")
		return
	}
	response.Success(c, nil)
}

// PriceRangeRequest 阶梯价区间
type PriceRangeRequest struct {
	FromQty     decimal.Decimal  `json:"from_qty"`
	ToQty       *decimal.Decimal `json:"to_qty"`
	Price       decimal.Decimal  `json:"price"`
	DiscountPct *decimal.Decimal `json:"discount_pct"`
}

// ReplaceProductRangesRequest 整体替换阶梯价请求
type ReplaceProductRangesRequest struct {
	Ranges []PriceRangeRequest `json:"ranges" binding:"required"`
}

// ReplaceProductRanges 整体替换商品阶梯价
func (h *Handler) ReplaceProductRanges(c *gin.Context) {
	id, ok := parseIDParam(c, "error.product_id_invalid")
	if !ok {
		return
	}
	var req ReplaceProductRangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	inputs := make([]service.PriceRangeInput, 0, len(req.Ranges))
	for _, item := range req.Ranges {
		inputs = append(inputs, service.PriceRangeInput{
			FromQty:     item.FromQty,
			ToQty:       item.ToQty,
			Price:       item.Price,
			DiscountPct: item.DiscountPct,
		})
	}

	ranges, err := h.ProductService.ReplaceRanges(id, inputs)
	if err != nil {
		respondServiceError(c, err, "error.product_update_failed")
		return
	}
	requestLog(c).Infow("admin_product_ranges_replaced",
		"product_id", id,
		"admin_id", c.GetUint("admin_id"),
		"count", len(ranges),
	)
	response.Success(c, ranges)
}

// ====================  设置管理  ====================

var editableSettingKeys = []string{
	constants.SettingKeySiteConfig,
	constants.SettingKeyPricingConfig,
	constants.SettingKeySMTPConfig,
	constants.SettingKeyStripeConfig,
}

func parseSettingKey(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.Param("key"))
	for _, allowed := range editableSettingKeys {
		if key == allowed {
			return key, true
		}
	}
	respondError(c, response.CodeBadRequest, "error.setting_key_invalid", nil)
	return "", false
}

// ListSettings 列出可编辑设置及其覆盖状态
func (h *Handler) ListSettings(c *gin.Context) {
	items, err := h.SettingService.Overview(editableSettingKeys)
	if err != nil {
		respondError(c, response.CodeInternal, "error.settings_fetch_failed", err)
		return
	}
	response.Success(c, items)
}

// GetSetting 获取设置（敏感字段脱敏）
func (h *Handler) GetSetting(c *gin.Context) {
	key, ok := parseSettingKey(c)
	if !ok {
		return
	}

	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		respondError(c, response.CodeInternal, "error.settings_fetch_failed", err)
		return
	}
	if value == nil {
		response.Success(c, gin.H{})
		return
	}
	response.Success(c, value)
}

// UpdateSetting 更新设置
func (h *Handler) UpdateSetting(c *gin.Context) {
	key, ok := parseSettingKey(c)
	if !ok {
		return
	}
	var value map[string]interface{}
	if err := c.ShouldBindJSON(&value); err != nil {
		respondBindError(c, err)
		return
	}

	saved, err := h.SettingService.Update(c.Request.Context(), key, value)
	if err != nil {
		respondServiceError(c, err, "error.settings_save_failed")
		return
	}

	_ = cache.Del(c.Request.Context(), constants.CacheKeyPublicConfig)
	requestLog(c).Infow("admin_setting_updated", "key", key, "admin_id", c.GetUint("admin_id"))

	if masked, err := h.SettingService.GetByKey(key); err == nil && masked != nil {
		response.Success(c, masked)
		return
	}
	response.Success(c, saved)
}
