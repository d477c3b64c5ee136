package public

import (
	handlershared "github.com/printroll-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "user_id", "error.user_id_invalid", "error.user_id_type_invalid")
}

// optionalUserID 可选鉴权路由下读取用户 ID，游客返回 0
func optionalUserID(c *gin.Context) uint {
	return c.GetUint("user_id")
}
