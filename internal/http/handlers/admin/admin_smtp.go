package admin

import (
	"strings"

	"github.com/printroll-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SMTPTestSendRequest SMTP 测试发送请求
type SMTPTestSendRequest struct {
	ToEmail string `json:"to_email" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TestSMTPSettings 使用当前保存的 SMTP 配置发送测试邮件
func (h *Handler) TestSMTPSettings(c *gin.Context) {
	var req SMTPTestSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	toEmail := strings.TrimSpace(req.ToEmail)
	if toEmail == "" {
		respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
		return
	}

	if err := h.EmailService.SendCustomEmail(c.Request.Context(), toEmail, req.Subject, req.Body); err != nil {
		respondServiceError(c, err, "error.email_send_failed")
		return
	}
	requestLog(c).Infow("admin_smtp_test_sent", "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{"sent": true})
}
