package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/streambox/internal/model"
	"github.com/user/streambox/internal/utils"
)

// TokenVerifier 令牌校验接口（由 service.AuthService 实现）
type TokenVerifier interface {
	VerifyToken(plaintext string) (*model.User, error)
}

// 上下文键
const (
	ctxUser  = "user"
	ctxToken = "token"

	// SessionPasswordConfirmedAt 敏感操作二次确认时间戳的 Session 键
	SessionPasswordConfirmedAt = "password_confirmed_at"
)

// RequireAuth 必须登录中间件
func RequireAuth(auth TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		plaintext := ExtractToken(c)
		user, err := auth.VerifyToken(plaintext)
		if err != nil {
			// 无效、已撤销、已过期统一返回 401，不区分具体原因
			utils.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxToken, plaintext)
		c.Next()
	}
}

// OptionalAuth 可选登录中间件（不强制要求登录）
func OptionalAuth(auth TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if plaintext := ExtractToken(c); plaintext != "" {
			if user, err := auth.VerifyToken(plaintext); err == nil {
				c.Set(ctxUser, user)
				c.Set(ctxToken, plaintext)
			}
		}
		c.Next()
	}
}

// RequireAdmin 管理员权限中间件（须在 RequireAuth 之后）
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			utils.Forbidden(c, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePasswordConfirmed 敏感操作守卫：要求在时间窗口内完成过密码二次确认
// 确认时间戳由 ConfirmPassword 接口写入当前 Session
func RequirePasswordConfirmed(window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		confirmedAt, ok := session.Get(SessionPasswordConfirmedAt).(int64)
		if !ok || time.Since(time.Unix(confirmedAt, 0)) > window {
			utils.Forbidden(c, "请先确认当前密码")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ExtractToken 从 Authorization Header 或 Cookie 中提取令牌
func ExtractToken(c *gin.Context) string {
	// 优先从 Header 获取
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// 从 Cookie 获取
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}

	return ""
}

// CurrentUser 从上下文获取当前用户（未登录返回 nil）
func CurrentUser(c *gin.Context) *model.User {
	if v, exists := c.Get(ctxUser); exists {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// CurrentToken 从上下文获取当前请求携带的令牌明文
func CurrentToken(c *gin.Context) string {
	if v, exists := c.Get(ctxToken); exists {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return ""
}

// GetUserID 从上下文获取用户 ID（未登录返回 0）
func GetUserID(c *gin.Context) int {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
