package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/printroll-next/internal/i18n"
	"github.com/printroll-next/internal/models"
)

// EmailService 邮件发送服务，SMTP 参数每次发送时从配置来源读取
type EmailService struct {
	settings *ConfigProvider
}

// NewEmailService 创建邮件服务
func NewEmailService(settings *ConfigProvider) *EmailService {
	return &EmailService{settings: settings}
}

// OrderEmailInput 订单确认邮件输入
type OrderEmailInput struct {
	OrderNo  string
	Total    models.Money
	Currency string
}

// QuoteEmailInput 报价单就绪邮件输入
type QuoteEmailInput struct {
	QuoteNumber    string
	Total          models.Money
	Currency       string
	ExpiresAt      time.Time
	PaymentLinkURL string
}

// SendOrderConfirmation 发送订单确认邮件
func (s *EmailService) SendOrderConfirmation(ctx context.Context, toEmail string, input OrderEmailInput, locale string) error {
	subject, body := buildOrderConfirmationContent(input, locale)
	return s.sendTextEmail(ctx, toEmail, subject, body)
}

// SendQuoteReady 发送报价单就绪邮件
func (s *EmailService) SendQuoteReady(ctx context.Context, toEmail string, input QuoteEmailInput, locale string) error {
	subject, body := buildQuoteReadyContent(input, locale)
	return s.sendTextEmail(ctx, toEmail, subject, body)
}

// SendCustomEmail 发送测试邮件或自定义邮件
func (s *EmailService) SendCustomEmail(ctx context.Context, toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP test"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "SMTP configuration works."
	}
	return s.sendTextEmail(ctx, toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(ctx context.Context, toEmail, subject, body string) error {
	if s == nil || s.settings == nil {
		return ErrEmailServiceDisabled
	}
	cfg := s.settings.SMTP(ctx)
	if !cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(cfg.From, cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	if cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, cfg.Host, cfg.From, []string{toEmail}, []byte(msg)))
	}
	if cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, cfg.Host, cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, cfg.Host, cfg.From, []string{toEmail}, []byte(msg)))
}

func buildOrderConfirmationContent(input OrderEmailInput, locale string) (string, string) {
	subject := i18n.Sprintf(locale, "email.order_confirmation.subject", input.OrderNo)
	body := i18n.Sprintf(locale, "email.order_confirmation.body", input.OrderNo, input.Total.String(), input.Currency)
	return subject, body
}

func buildQuoteReadyContent(input QuoteEmailInput, locale string) (string, string) {
	subject := i18n.Sprintf(locale, "email.quote_ready.subject", input.QuoteNumber)
	body := i18n.Sprintf(locale, "email.quote_ready.body",
		input.QuoteNumber, input.Total.String(), input.Currency, input.ExpiresAt.Format("2006-01-02"))
	if link := strings.TrimSpace(input.PaymentLinkURL); link != "" {
		body += "\n\n" + link
	}
	return subject, body
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}
	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, _ string, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func authenticate(client *smtp.Client, auth smtp.Auth) error {
	if auth == nil {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		return nil
	}
	return client.Auth(auth)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		for _, hint := range []string{"recipient", "user", "mailbox", "rcpt"} {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
