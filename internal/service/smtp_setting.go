package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/models"
)

// SMTPSetting SMTP 配置实体（settings 表中的 smtp_config）
type SMTPSetting struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	UseTLS   bool   `json:"use_tls"`
	UseSSL   bool   `json:"use_ssl"`
}

// SMTPDefaultSetting 根据静态配置生成默认 SMTP 设置
func SMTPDefaultSetting(cfg config.EmailConfig) SMTPSetting {
	return NormalizeSMTPSetting(SMTPSetting{
		Enabled:  cfg.Enabled,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
		UseTLS:   cfg.UseTLS,
		UseSSL:   cfg.UseSSL,
	})
}

// NormalizeSMTPSetting 归一化 SMTP 配置并补齐默认值
func NormalizeSMTPSetting(setting SMTPSetting) SMTPSetting {
	setting.Host = strings.TrimSpace(setting.Host)
	setting.Username = strings.TrimSpace(setting.Username)
	setting.Password = strings.TrimSpace(setting.Password)
	setting.From = strings.TrimSpace(setting.From)
	setting.FromName = strings.TrimSpace(setting.FromName)
	if setting.Port <= 0 || setting.Port > 65535 {
		setting.Port = 587
	}
	if setting.UseSSL {
		setting.UseTLS = false
	}
	return setting
}

// ValidateSMTPSetting 校验启用状态下的必填项
func ValidateSMTPSetting(setting SMTPSetting) error {
	if !setting.Enabled {
		return nil
	}
	if setting.Host == "" {
		return fmt.Errorf("%w: smtp host is required", ErrSettingInvalid)
	}
	if _, err := mail.ParseAddress(setting.From); err != nil {
		return fmt.Errorf("%w: smtp from address is invalid", ErrSettingInvalid)
	}
	return nil
}

// SMTPSettingToConfig 转换为邮件服务使用的配置
func SMTPSettingToConfig(setting SMTPSetting) config.EmailConfig {
	return config.EmailConfig{
		Enabled:  setting.Enabled,
		Host:     setting.Host,
		Port:     setting.Port,
		Username: setting.Username,
		Password: setting.Password,
		From:     setting.From,
		FromName: setting.FromName,
		UseTLS:   setting.UseTLS,
		UseSSL:   setting.UseSSL,
	}
}

// SMTPSettingToMap 转换为 settings 存储结构
func SMTPSettingToMap(setting SMTPSetting) models.JSON {
	return models.JSON{
		"enabled":   setting.Enabled,
		"host":      setting.Host,
		"port":      setting.Port,
		"username":  setting.Username,
		"password":  setting.Password,
		"from":      setting.From,
		"from_name": setting.FromName,
		"use_tls":   setting.UseTLS,
		"use_ssl":   setting.UseSSL,
	}
}

// MaskSMTPSettingForAdmin 后台展示时隐藏密码
func MaskSMTPSettingForAdmin(setting SMTPSetting) models.JSON {
	masked := SMTPSettingToMap(setting)
	delete(masked, "password")
	masked["password_set"] = setting.Password != ""
	return masked
}

func smtpSettingFromJSON(raw models.JSON, fallback SMTPSetting) SMTPSetting {
	next := fallback
	if raw == nil {
		return next
	}
	next.Enabled = readBool(raw, "enabled", next.Enabled)
	next.Host = readString(raw, "host", next.Host)
	next.Port = readInt(raw, "port", next.Port)
	next.Username = readString(raw, "username", next.Username)
	if password := readString(raw, "password", ""); password != "" {
		next.Password = password
	}
	next.From = readString(raw, "from", next.From)
	next.FromName = readString(raw, "from_name", next.FromName)
	next.UseTLS = readBool(raw, "use_tls", next.UseTLS)
	next.UseSSL = readBool(raw, "use_ssl", next.UseSSL)
	return next
}
