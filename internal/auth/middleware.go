package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT 认证中间件
// 验证通过后将用户身份写入 gin context 与请求 context
func AuthMiddleware(validator *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization header",
			})
			c.Abort()
			return
		}

		// 移除 "Bearer " 前缀
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
				"detail":  err.Error(),
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Sub)
		c.Set("username", claims.PreferredUsername)
		c.Set("roles", claims.RealmAccess.Roles)

		// 服务层通过请求 context 读取身份
		ctx := WithIdentity(c.Request.Context(), claims.Sub, claims.PreferredUsername, claims.RealmAccess.Roles)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole 角色校验中间件,须在 AuthMiddleware 之后使用
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c.Request.Context(), role) {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "insufficient role",
				"detail":  "operation requires role " + role,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
