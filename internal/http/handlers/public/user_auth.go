package public

import (
	"time"

	"github.com/printroll-next/internal/http/response"
	"github.com/printroll-next/internal/i18n"
	"github.com/printroll-next/internal/models"
	"github.com/printroll-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	TaxID       string `json:"tax_id"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Register(service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		TaxID:       req.TaxID,
		Locale:      i18n.ResolveLocale(c),
	})
	if err != nil {
		respondServiceError(c, err, "error.register_failed")
		return
	}

	response.Success(c, gin.H{
		"user":       buildUserPayload(user),
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Login(req.Email, req.Password, req.RememberMe)
	if err != nil {
		respondServiceError(c, err, "error.login_failed")
		return
	}

	response.Success(c, gin.H{
		"user":       buildUserPayload(user),
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// GetCurrentUser 获取当前登录用户信息
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		respondServiceError(c, err, "error.user_fetch_failed")
		return
	}
	response.Success(c, buildUserPayload(user))
}

// UpdateUserProfileRequest 更新资料请求
type UpdateUserProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	CompanyName *string `json:"company_name"`
	TaxID       *string `json:"tax_id"`
	Locale      *string `json:"locale"`
}

// UpdateUserProfile 更新用户资料
func (h *Handler) UpdateUserProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.DisplayName == nil && req.Phone == nil && req.CompanyName == nil && req.TaxID == nil && req.Locale == nil {
		respondError(c, response.CodeBadRequest, "error.profile_empty", nil)
		return
	}

	user, err := h.UserAuthService.UpdateProfile(uid, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		TaxID:       req.TaxID,
		Locale:      req.Locale,
	})
	if err != nil {
		respondServiceError(c, err, "error.profile_update_failed")
		return
	}
	response.Success(c, buildUserPayload(user))
}

// ChangeUserPasswordRequest 修改密码请求
type ChangeUserPasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangeUserPassword 修改密码，成功后旧 Token 全部失效
func (h *Handler) ChangeUserPassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangeUserPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.UserAuthService.ChangePassword(uid, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "error.user_update_failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

func buildUserPayload(user *models.User) gin.H {
	if user == nil {
		return gin.H{}
	}
	return gin.H{
		"id":             user.ID,
		"email":          user.Email,
		"display_name":   user.DisplayName,
		"phone":          user.Phone,
		"company_name":   user.CompanyName,
		"tax_id":         user.TaxID,
		"locale":         user.Locale,
		"loyalty_tier":   user.LoyaltyTier,
		"loyalty_points": user.LoyaltyPoints,
		"total_spent":    user.TotalSpent,
		"last_login_at":  user.LastLoginAt,
		"created_at":     user.CreatedAt,
	}
}
