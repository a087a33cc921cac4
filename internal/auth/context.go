package auth

import "context"

type contextKey string

const (
	keyUserID    contextKey = "user_id"
	keyUsername  contextKey = "username"
	keyRoles     contextKey = "roles"
	keyRequestID contextKey = "request_id"
	keyIP        contextKey = "ip"
	keyUserAgent contextKey = "user_agent"
)

// WithIdentity 将认证用户信息写入 context,供服务层审计使用
func WithIdentity(ctx context.Context, userID, username string, roles []string) context.Context {
	ctx = context.WithValue(ctx, keyUserID, userID)
	ctx = context.WithValue(ctx, keyUsername, username)
	ctx = context.WithValue(ctx, keyRoles, roles)
	return ctx
}

// WithRequestInfo 将请求元信息写入 context
func WithRequestInfo(ctx context.Context, requestID, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyRequestID, requestID)
	ctx = context.WithValue(ctx, keyIP, ip)
	ctx = context.WithValue(ctx, keyUserAgent, userAgent)
	return ctx
}

// UserID 从 context 获取用户 ID
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(keyUserID).(string); ok {
		return v
	}
	return ""
}

// Roles 从 context 获取用户角色
func Roles(ctx context.Context) []string {
	if v, ok := ctx.Value(keyRoles).([]string); ok {
		return v
	}
	return nil
}

// HasRole 判断 context 中的用户是否具有给定角色
func HasRole(ctx context.Context, role string) bool {
	for _, r := range Roles(ctx) {
		if r == role {
			return true
		}
	}
	return false
}

// RequestID 从 context 获取请求 ID
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

// ClientIP 从 context 获取客户端 IP
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(keyIP).(string); ok {
		return v
	}
	return ""
}

// UserAgent 从 context 获取 User Agent
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(keyUserAgent).(string); ok {
		return v
	}
	return ""
}
