package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/printroll-next/internal/cache"
	"github.com/printroll-next/internal/clock"
	"github.com/printroll-next/internal/config"
	"github.com/printroll-next/internal/constants"
	"github.com/printroll-next/internal/logger"
	"github.com/printroll-next/internal/repository"
)

const defaultSettingsCacheTTL = 60 * time.Second

// ConfigCache 运行时设置缓存
type ConfigCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryConfigCache 进程内缓存，过期判断使用注入的时钟
type MemoryConfigCache struct {
	mu      sync.RWMutex
	clock   clock.Clock
	entries map[string]memoryCacheEntry
}

// NewMemoryConfigCache 创建进程内设置缓存
func NewMemoryConfigCache(c clock.Clock) *MemoryConfigCache {
	return &MemoryConfigCache{
		clock:   clock.OrReal(c),
		entries: make(map[string]memoryCacheEntry),
	}
}

// Get 读取缓存
func (m *MemoryConfigCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !m.clock.Now().Before(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set 写入缓存
func (m *MemoryConfigCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = memoryCacheEntry{payload: payload, expiresAt: m.clock.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete 删除缓存
func (m *MemoryConfigCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// RedisConfigCache 基于 Redis 的共享缓存，多实例部署时使用
type RedisConfigCache struct{}

// Get 读取缓存
func (RedisConfigCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return cache.GetJSON(ctx, settingsCacheKey(key), dest)
}

// Set 写入缓存
func (RedisConfigCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return cache.SetJSON(ctx, settingsCacheKey(key), value, ttl)
}

// Delete 删除缓存
func (RedisConfigCache) Delete(ctx context.Context, key string) error {
	return cache.Del(ctx, settingsCacheKey(key))
}

func settingsCacheKey(key string) string {
	return "settings:" + strings.TrimSpace(key)
}

// ConfigProvider 运行时配置来源：settings 表覆盖配置文件默认值，结果经缓存
type ConfigProvider struct {
	settingRepo repository.SettingRepository
	cache       ConfigCache
	ttl         time.Duration
	pricing     PricingSettings
	smtp        SMTPSetting
	stripe      StripeSetting
}

// NewConfigProvider 创建配置来源，cacheStore 为空时不缓存
func NewConfigProvider(settingRepo repository.SettingRepository, cacheStore ConfigCache, cfg *config.Config) *ConfigProvider {
	p := &ConfigProvider{
		settingRepo: settingRepo,
		cache:       cacheStore,
		ttl:         defaultSettingsCacheTTL,
	}
	if cfg != nil {
		p.pricing = PricingDefaultSetting(cfg.Pricing)
		p.smtp = SMTPDefaultSetting(cfg.Email)
		p.stripe = StripeDefaultSetting(cfg.Payment.Stripe)
		if cfg.Pricing.SettingsCacheTTLSeconds > 0 {
			p.ttl = time.Duration(cfg.Pricing.SettingsCacheTTLSeconds) * time.Second
		}
	} else {
		p.pricing = PricingDefaultSetting(config.PricingConfig{})
		p.smtp = NormalizeSMTPSetting(SMTPSetting{})
		p.stripe = NormalizeStripeSetting(StripeSetting{})
	}
	return p
}

// Pricing 当前定价参数
func (p *ConfigProvider) Pricing(ctx context.Context) PricingSettings {
	var result PricingSettings
	p.load(ctx, constants.SettingKeyPricingConfig, &result, func() interface{} {
		raw := p.readSetting(constants.SettingKeyPricingConfig)
		return normalizePricingSettings(pricingSettingsFromJSON(raw, p.pricing))
	})
	return result
}

// SMTP 当前 SMTP 设置
func (p *ConfigProvider) SMTP(ctx context.Context) SMTPSetting {
	var result SMTPSetting
	p.load(ctx, constants.SettingKeySMTPConfig, &result, func() interface{} {
		raw := p.readSetting(constants.SettingKeySMTPConfig)
		return NormalizeSMTPSetting(smtpSettingFromJSON(raw, p.smtp))
	})
	return result
}

// Stripe 当前 Stripe 设置
func (p *ConfigProvider) Stripe(ctx context.Context) StripeSetting {
	var result StripeSetting
	p.load(ctx, constants.SettingKeyStripeConfig, &result, func() interface{} {
		raw := p.readSetting(constants.SettingKeyStripeConfig)
		return NormalizeStripeSetting(stripeSettingFromJSON(raw, p.stripe))
	})
	return result
}

// Invalidate 设置更新后清除缓存
func (p *ConfigProvider) Invalidate(ctx context.Context, key string) {
	if p == nil || p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, key); err != nil {
		logger.Warnw("settings_cache_invalidate_failed", "key", key, "error", err)
	}
}

// load 先读缓存，未命中时调用 build 并回写；dest 必须为指针
func (p *ConfigProvider) load(ctx context.Context, key string, dest interface{}, build func() interface{}) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.cache != nil {
		hit, err := p.cache.Get(ctx, key, dest)
		if err != nil {
			logger.Warnw("settings_cache_get_failed", "key", key, "error", err)
		}
		if hit {
			return
		}
	}
	value := build()
	payload, err := json.Marshal(value)
	if err == nil {
		err = json.Unmarshal(payload, dest)
	}
	if err != nil {
		logger.Warnw("settings_decode_failed", "key", key, "error", err)
		return
	}
	if p.cache != nil {
		if err := p.cache.Set(ctx, key, value, p.ttl); err != nil {
			logger.Warnw("settings_cache_set_failed", "key", key, "error", err)
		}
	}
}

func (p *ConfigProvider) readSetting(key string) map[string]interface{} {
	if p.settingRepo == nil {
		return nil
	}
	setting, err := p.settingRepo.GetByKey(key)
	if err != nil {
		logger.Warnw("settings_fetch_failed", "key", key, "error", err)
		return nil
	}
	if setting == nil {
		return nil
	}
	return toStringAnyMap(setting.ValueJSON)
}
