package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// I18nManager 国际化管理器
type I18nManager struct {
	messages map[string]map[string]string // lang -> key -> message
}

var defaultI18nManager *I18nManager

func init() {
	defaultI18nManager = NewI18nManager()
	// 加载默认语言资源
	defaultI18nManager.LoadMessages("en", map[string]string{
		"error.not_found":      "Resource not found",
		"error.unauthorized":   "Unauthorized",
		"error.forbidden":      "Forbidden",
		"error.bad_request":    "Bad request",
		"error.conflict":       "Resource was modified concurrently",
		"error.invalid_state":  "Operation not allowed in current state",
		"error.internal_error": "Internal server error",
		"success.created":      "Created successfully",
		"success.updated":      "Updated successfully",
		"success.deleted":      "Deleted successfully",
	})
	// 加载荷兰语语言资源(监管方与本地质量部门使用)
	defaultI18nManager.LoadMessages("nl", map[string]string{
		"error.not_found":      "Resource niet gevonden",
		"error.unauthorized":   "Niet geautoriseerd",
		"error.forbidden":      "Geen toegang",
		"error.bad_request":    "Ongeldig verzoek",
		"error.conflict":       "Resource is gelijktijdig gewijzigd",
		"error.invalid_state":  "Bewerking niet toegestaan in huidige status",
		"error.internal_error": "Interne serverfout",
		"success.created":      "Succesvol aangemaakt",
		"success.updated":      "Succesvol bijgewerkt",
		"success.deleted":      "Succesvol verwijderd",
	})
}

// NewI18nManager 创建国际化管理器
func NewI18nManager() *I18nManager {
	return &I18nManager{
		messages: make(map[string]map[string]string),
	}
}

// LoadMessages 加载语言消息
func (m *I18nManager) LoadMessages(lang string, messages map[string]string) {
	m.messages[lang] = messages
}

// Translate 翻译消息
func (m *I18nManager) Translate(lang, key string) string {
	if messages, ok := m.messages[lang]; ok {
		if message, ok := messages[key]; ok {
			return message
		}
	}
	// 找不到翻译时退回英文
	if lang != "en" {
		if messages, ok := m.messages["en"]; ok {
			if message, ok := messages[key]; ok {
				return message
			}
		}
	}
	// 还是找不到则返回 key
	return key
}

// I18nMiddleware 国际化中间件
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := "en" // 默认语言

		// 方式 1: 从查询参数获取语言
		if queryLang := c.Query("lang"); queryLang != "" {
			lang = normalizeLanguage(queryLang)
		} else if headerLang := c.GetHeader("Accept-Language"); headerLang != "" {
			// 方式 2: 从 Accept-Language 头获取语言
			lang = parseAcceptLanguage(headerLang)
		}

		c.Set("language", lang)

		c.Next()
	}
}

// GetLanguage 从上下文获取语言
func GetLanguage(c *gin.Context) string {
	if lang, exists := c.Get("language"); exists {
		if l, ok := lang.(string); ok {
			return l
		}
	}
	return "en"
}

// T 翻译消息(使用默认管理器)
func T(c *gin.Context, key string) string {
	lang := GetLanguage(c)
	return defaultI18nManager.Translate(lang, key)
}

// normalizeLanguage 规范化语言代码
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(lang)
	langMap := map[string]string{
		"nl-nl": "nl",
		"nl-be": "nl",
		"en-us": "en",
		"en-gb": "en",
	}
	if normalized, ok := langMap[lang]; ok {
		return normalized
	}
	if len(lang) > 2 {
		lang = lang[:2]
	}
	if lang == "nl" || lang == "en" {
		return lang
	}
	return "en"
}

// parseAcceptLanguage 解析 Accept-Language 头,取第一个支持的语言
func parseAcceptLanguage(header string) string {
	parts := strings.Split(header, ",")
	for _, part := range parts {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		normalized := normalizeLanguage(lang)
		if normalized != "en" || strings.HasPrefix(strings.ToLower(lang), "en") {
			return normalized
		}
	}
	return "en"
}
