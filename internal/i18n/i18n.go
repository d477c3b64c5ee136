package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleES = "es-ES"
	LocaleEN = "en-US"
	LocaleZH = "zh-CN"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleES

var (
	supportedTags = []language.Tag{
		language.MustParse(LocaleES),
		language.MustParse(LocaleEN),
		language.MustParse(LocaleZH),
	}
	matcher = language.NewMatcher(supportedTags)
)

// NormalizeLocale 将任意语言标记归一为受支持的语言，无法识别时返回默认语言
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultLocale
	}
	return localeByIndex(index)
}

// ResolveLocale 解析请求语言：X-Locale 头 > lang 参数 > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if v := strings.TrimSpace(c.GetHeader("X-Locale")); v != "" {
		return NormalizeLocale(v)
	}
	if v := strings.TrimSpace(c.Query("lang")); v != "" {
		return NormalizeLocale(v)
	}
	accept := strings.TrimSpace(c.GetHeader("Accept-Language"))
	if accept == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return localeByIndex(index)
}

func localeByIndex(index int) string {
	switch index {
	case 1:
		return LocaleEN
	case 2:
		return LocaleZH
	default:
		return LocaleES
	}
}

// T 翻译消息键，缺失时回退到默认语言，再回退到键本身
func T(locale, key string) string {
	if msgs, ok := messages[NormalizeLocale(locale)]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
