package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yuriirask-bit/compliance-gin/internal/api"
)

// TestI18nManagerTranslate 测试消息翻译与回退
func TestI18nManagerTranslate(t *testing.T) {
	m := api.NewI18nManager()
	m.LoadMessages("en", map[string]string{"greeting": "hello"})
	m.LoadMessages("nl", map[string]string{"greeting": "hallo"})

	assert.Equal(t, "hello", m.Translate("en", "greeting"))
	assert.Equal(t, "hallo", m.Translate("nl", "greeting"))

	// 缺失的语言回退到英文
	assert.Equal(t, "hello", m.Translate("de", "greeting"))
	// 缺失的键返回键本身
	assert.Equal(t, "missing.key", m.Translate("en", "missing.key"))
}

// TestI18nMiddlewareLanguageSelection 测试语言选择
func TestI18nMiddlewareLanguageSelection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.I18nMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, api.GetLanguage(c))
	})

	cases := []struct {
		name     string
		query    string
		header   string
		expected string
	}{
		{"default", "", "", "en"},
		{"query param", "?lang=nl", "", "nl"},
		{"query param regional", "?lang=nl-NL", "", "nl"},
		{"accept language", "", "nl-NL,nl;q=0.9,en;q=0.8", "nl"},
		{"unsupported language", "?lang=fr", "", "en"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Accept-Language", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.expected, w.Body.String())
		})
	}
}

// TestTranslateHelper 测试默认管理器的内置消息
func TestTranslateHelper(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	c.Set("language", "en")
	assert.Equal(t, "Resource not found", api.T(c, "error.not_found"))

	c.Set("language", "nl")
	assert.Equal(t, "Resource niet gevonden", api.T(c, "error.not_found"))
}
