package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/streambox/internal/handler"
	"github.com/user/streambox/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 公开目录 ====================
	catalog := r.Group("/api")
	catalog.Use(middleware.OptionalAuth(h.Auth))
	{
		catalog.GET("/media", h.ListMedia)
		catalog.GET("/media/:id", h.GetMedia)
		catalog.GET("/media/:id/similar", h.SimilarMedia)
		catalog.GET("/media/:id/episodes", h.ListEpisodes)
		catalog.GET("/media/:id/embed", h.EmbedURLs)
		catalog.GET("/genres", h.ListGenres)
		catalog.GET("/sources/status", h.SourceStatus)
	}

	// ==================== 认证 ====================
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/google", h.GoogleLogin)
		auth.POST("/logout", middleware.RequireAuth(h.Auth), h.Logout)
	}

	// 邮箱验证链接（从邮件点击进入，无需登录态）
	r.GET("/verify-email", h.VerifyEmailLink)

	// ==================== 账户（需要登录）====================
	account := r.Group("/api/account")
	account.Use(middleware.RequireAuth(h.Auth))
	{
		account.GET("/me", h.Me)
		account.PUT("/profile", h.UpdateProfile)
		account.GET("/verification", h.VerificationStatus)
		account.POST("/verification/send", h.SendVerificationLink)
		account.POST("/verification/confirm", h.ConfirmEmail)
		account.POST("/confirm-password", h.ConfirmPassword)
		account.PUT("/password",
			middleware.RequirePasswordConfirmed(h.Config.PasswordConfirmWindow),
			h.UpdatePassword)
		account.GET("/tokens", h.ListTokens)
		account.DELETE("/tokens/:id", h.RevokeToken)
		account.POST("/logout-all", h.LogoutAll)
	}

	// ==================== 收藏 / 评分 / 历史（需要登录）====================
	api := r.Group("/api")
	api.Use(middleware.RequireAuth(h.Auth))
	{
		api.GET("/favorites", h.ListFavorites)
		api.POST("/favorites", h.AddFavorite)
		api.DELETE("/favorites/:id", h.RemoveFavorite)

		api.GET("/ratings", h.ListRatings)
		api.POST("/ratings", h.UpsertRating)
		api.DELETE("/ratings/:id", h.DeleteRating)

		api.GET("/history", h.ListHistory)
		api.POST("/history", h.UpsertHistory)
		api.POST("/history/sync", h.SyncHistory)
		api.DELETE("/history/:id", h.RemoveHistory)
	}

	// ==================== 管理后台 ====================
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(h.Auth))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", h.Dashboard)
		admin.GET("/users", h.ListUsers)

		admin.POST("/media", h.CreateMedia)
		admin.PUT("/media/:id", h.UpdateMedia)
		admin.DELETE("/media/:id", h.DeleteMedia)

		admin.POST("/episodes", h.CreateEpisode)
		admin.PUT("/episodes/:id", h.UpdateEpisode)
		admin.DELETE("/episodes/:id", h.DeleteEpisode)

		admin.POST("/genres", h.CreateGenre)
		admin.PUT("/genres/:id", h.UpdateGenre)
		admin.DELETE("/genres/:id", h.DeleteGenre)

		admin.GET("/sources", h.ListSources)
		admin.POST("/sources", h.CreateSource)
		admin.PUT("/sources/:id", h.UpdateSource)
		admin.DELETE("/sources/:id", h.DeleteSource)
	}
}
