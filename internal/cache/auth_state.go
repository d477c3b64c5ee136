package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/printroll-next/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// TokenGate 令牌吊销判定所需的最小状态
//
// InvalidBefore 为 Unix 秒，0 表示未设置。
type TokenGate struct {
	TokenVersion  uint64 `json:"token_version"`
	InvalidBefore int64  `json:"token_invalid_before"`
}

// Accepts 判断携带 version 且签发于 issuedAt 的令牌是否仍然有效
func (g TokenGate) Accepts(version uint64, issuedAt *time.Time) bool {
	if version != g.TokenVersion {
		return false
	}
	if g.InvalidBefore <= 0 {
		return true
	}
	return issuedAt != nil && issuedAt.Unix() >= g.InvalidBefore
}

func newTokenGate(version uint64, invalidBefore *time.Time) TokenGate {
	gate := TokenGate{TokenVersion: version}
	if invalidBefore != nil {
		gate.InvalidBefore = invalidBefore.Unix()
	}
	return gate
}

// UserAuthState 买家鉴权快照
type UserAuthState struct {
	TokenGate
	UserID      uint   `json:"user_id"`
	Status      string `json:"status"`
	LoyaltyTier string `json:"loyalty_tier"`
}

// AdminAuthState 管理员鉴权快照
type AdminAuthState struct {
	TokenGate
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	IsSuper  bool   `json:"is_super"`
}

// BuildUserAuthState 从用户模型构建鉴权快照
func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	return &UserAuthState{
		TokenGate:   newTokenGate(user.TokenVersion, user.TokenInvalidBefore),
		UserID:      user.ID,
		Status:      user.Status,
		LoyaltyTier: user.LoyaltyTier,
	}
}

// BuildAdminAuthState 从管理员模型构建鉴权快照
func BuildAdminAuthState(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	return &AdminAuthState{
		TokenGate: newTokenGate(admin.TokenVersion, admin.TokenInvalidBefore),
		AdminID:   admin.ID,
		Username:  admin.Username,
		IsSuper:   admin.IsSuper,
	}
}

func authStateKey(kind string, id uint) string {
	return fmt.Sprintf("auth:%s:%d", kind, id)
}

func loadAuthState[T any](ctx context.Context, kind string, id uint) (*T, bool, error) {
	if id == 0 {
		return nil, false, nil
	}
	var state T
	hit, err := GetJSON(ctx, authStateKey(kind, id), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// GetUserAuthState 读取买家鉴权快照
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	return loadAuthState[UserAuthState](ctx, "user", userID)
}

// SetUserAuthState 写入买家鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, authStateKey("user", state.UserID), state, authStateCacheTTL)
}

// DelUserAuthState 封禁或改密后清除快照
func DelUserAuthState(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return Del(ctx, authStateKey("user", userID))
}

// GetAdminAuthState 读取管理员鉴权快照
func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	return loadAuthState[AdminAuthState](ctx, "admin", adminID)
}

// SetAdminAuthState 写入管理员鉴权快照
func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return SetJSON(ctx, authStateKey("admin", state.AdminID), state, authStateCacheTTL)
}

// DelAdminAuthState 删除管理员鉴权快照
func DelAdminAuthState(ctx context.Context, adminID uint) error {
	if adminID == 0 {
		return nil
	}
	return Del(ctx, authStateKey("admin", adminID))
}
