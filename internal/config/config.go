package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	UserJWT  JWTConfig      `mapstructure:"user_jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Email    EmailConfig    `mapstructure:"email"`
	Quote    QuoteConfig    `mapstructure:"quote"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"`    // 数据库驱动（sqlite/postgres）
	DSN      string             `mapstructure:"dsn"`       // 数据库连接串
	LogLevel string             `mapstructure:"log_level"` // gorm 日志级别
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// EmailConfig 邮件服务配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	UseTLS   bool   `mapstructure:"use_tls"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// QuoteConfig 报价单配置
type QuoteConfig struct {
	ExpireDays           int    `mapstructure:"expire_days"`
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds"`
	NumberPrefix         string `mapstructure:"number_prefix"`
}

// PricingConfig 定价配置（可被后台 pricing_config 设置覆盖）
type PricingConfig struct {
	Currency                string  `mapstructure:"currency"`
	TaxRate                 float64 `mapstructure:"tax_rate"`
	FreeShippingThreshold   float64 `mapstructure:"free_shipping_threshold"`
	ShippingBaseCost        float64 `mapstructure:"shipping_base_cost"`
	ExpressShippingCost     float64 `mapstructure:"express_shipping_cost"`
	PointsPerCurrencyUnit   float64 `mapstructure:"points_per_currency_unit"`
	ExtrasPolicyVersion     string  `mapstructure:"extras_policy_version"`
	SettingsCacheTTLSeconds int     `mapstructure:"settings_cache_ttl_seconds"`
}

// TaxRateDecimal 税率
func (c PricingConfig) TaxRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TaxRate)
}

// PaymentConfig 支付配置
type PaymentConfig struct {
	Stripe StripeConfig `mapstructure:"stripe"`
}

// StripeConfig Stripe 支付配置
type StripeConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	SecretKey          string   `mapstructure:"secret_key"`
	PublishableKey     string   `mapstructure:"publishable_key"`
	SuccessURL         string   `mapstructure:"success_url"`
	CancelURL          string   `mapstructure:"cancel_url"`
	APIBaseURL         string   `mapstructure:"api_base_url"`
	PaymentMethodTypes []string `mapstructure:"payment_method_types"`
	TimeoutSeconds     int      `mapstructure:"timeout_seconds"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit RateLimitConfig      `mapstructure:"login_rate_limit"`
	QuoteRateLimit RateLimitConfig      `mapstructure:"quote_rate_limit"`
	PasswordPolicy PasswordPolicyConfig `mapstructure:"password_policy"`
}

// PasswordPolicyConfig 密码策略配置
type PasswordPolicyConfig struct {
	MinLength      int  `mapstructure:"min_length"`
	RequireUpper   bool `mapstructure:"require_upper"`
	RequireLower   bool `mapstructure:"require_lower"`
	RequireNumber  bool `mapstructure:"require_number"`
	RequireSpecial bool `mapstructure:"require_special"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Quote.ExpireDays <= 0 {
		return fmt.Errorf("quote.expire_days must be positive: %d", c.Quote.ExpireDays)
	}
	if c.Pricing.TaxRate < 0 || c.Pricing.TaxRate >= 1 {
		return fmt.Errorf("pricing.tax_rate out of range: %v", c.Pricing.TaxRate)
	}
	if c.Pricing.FreeShippingThreshold < 0 || c.Pricing.ShippingBaseCost < 0 {
		return errors.New("pricing shipping values must not be negative")
	}
	switch strings.TrimSpace(c.Pricing.ExtrasPolicyVersion) {
	case constants.ExtrasPolicyFormula, constants.ExtrasPolicyLegacyTable:
	default:
		return fmt.Errorf("pricing.extras_policy_version unsupported: %s", c.Pricing.ExtrasPolicyVersion)
	}
	if strings.EqualFold(c.Server.Mode, "release") && c.JWT.SecretKey == defaultAdminJWTSecret {
		return errors.New("jwt.secret must be changed in release mode")
	}
	return nil
}

const (
	defaultAdminJWTSecret = "change-me-in-production"
	defaultUserJWTSecret  = "user-change-me-in-production"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "printroll.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/printroll.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", defaultAdminJWTSecret)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("user_jwt.secret", defaultUserJWTSecret)
	v.SetDefault("user_jwt.expire_hours", 168)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", constants.RedisPrefixDefault)
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)
	v.SetDefault("security.login_rate_limit.block_seconds", 900)
	v.SetDefault("security.quote_rate_limit.window_seconds", 3600)
	v.SetDefault("security.quote_rate_limit.max_attempts", 10)
	v.SetDefault("security.quote_rate_limit.block_seconds", 0)
	v.SetDefault("security.password_policy.min_length", 8)
	v.SetDefault("security.password_policy.require_upper", false)
	v.SetDefault("security.password_policy.require_lower", true)
	v.SetDefault("security.password_policy.require_number", true)
	v.SetDefault("security.password_policy.require_special", false)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "Printroll")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("quote.expire_days", 15)
	v.SetDefault("quote.sweep_interval_seconds", 300)
	v.SetDefault("quote.number_prefix", "Q")
	v.SetDefault("pricing.currency", constants.SiteCurrencyDefault)
	v.SetDefault("pricing.tax_rate", 0.21)
	v.SetDefault("pricing.free_shipping_threshold", 100)
	v.SetDefault("pricing.shipping_base_cost", 6)
	v.SetDefault("pricing.express_shipping_cost", 12)
	v.SetDefault("pricing.points_per_currency_unit", 1)
	v.SetDefault("pricing.extras_policy_version", constants.ExtrasPolicyFormula)
	v.SetDefault("pricing.settings_cache_ttl_seconds", 60)
	v.SetDefault("payment.stripe.enabled", false)
	v.SetDefault("payment.stripe.api_base_url", "https://api.stripe.com")
	v.SetDefault("payment.stripe.payment_method_types", []string{"card"})
	v.SetDefault("payment.stripe.timeout_seconds", 15)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// LoadFrom 使用指定 viper 实例加载配置，configPaths 为空时使用默认查找路径
func LoadFrom(v *viper.Viper, configPaths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "../", "./etc"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	// 环境变量支持，例如 pricing.tax_rate -> PRICING_TAX_RATE
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		logger.Warnw("config_file_read_failed", "error", err, "fallback", "env_or_defaults")
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("配置解析失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return &cfg, nil
}

// Load 先加载 .env（若存在），再从 config.yml 与环境变量加载配置
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnw("dotenv_load_failed", "error", err)
	}
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		logger.Errorw("config_load_failed", "error", err)
		panic(err)
	}
	return cfg
}
