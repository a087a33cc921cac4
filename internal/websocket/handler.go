package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yuriirask-bit/compliance-gin/internal/auth"
)

var statusUpgrader = gorillaWS.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// 跨源校验由 CORS 中间件与反向代理承担
		return true
	},
}

// StatusStreamHandler 交易状态实时推送入口
// 浏览器 WebSocket API 不支持自定义 Header,token 经 query 参数
// 或 Sec-WebSocket-Protocol 子协议传递
func StatusStreamHandler(hub *Hub, validator *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := statusUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 失败时 gorilla 已写入响应
			return
		}

		client := NewClient(uuid.New().String(), claims.Sub, hub, conn, logrus.StandardLogger())
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}

func bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	// Sec-WebSocket-Protocol: bearer, <token>
	protocols := strings.Split(c.GetHeader("Sec-WebSocket-Protocol"), ",")
	if len(protocols) == 2 && strings.TrimSpace(protocols[0]) == "bearer" {
		return strings.TrimSpace(protocols[1])
	}
	return ""
}
