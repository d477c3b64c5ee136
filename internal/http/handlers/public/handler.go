package public

import "github.com/printroll-next/internal/provider"

// Handler 前台接口处理器
// 说明：覆盖游客（商品、报价申请）与登录用户（购物车、结账、订单、会员）两类接口。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
