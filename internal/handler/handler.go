package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/user/streambox/internal/config"
	"github.com/user/streambox/internal/middleware"
	"github.com/user/streambox/internal/repository"
	"github.com/user/streambox/internal/service"
	"github.com/user/streambox/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos  *repository.Repositories
	Config *config.Config
	Auth   *service.AuthService
	Embed  *service.EmbedService
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	// 创建认证服务
	auth := service.NewAuthService(repos.User, repos.Token, cfg.AppSecret, cfg.TokenTTL)

	// 创建播放源服务
	embed := service.NewEmbedService(repos.Source, 5*time.Second)

	return &Handler{
		Repos:  repos,
		Config: cfg,
		Auth:   auth,
		Embed:  embed,
	}
}

// bindJSON 解析并校验请求体，失败时返回 422 和第一个字段错误
func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			utils.UnprocessableEntity(c, fieldError(verrs[0]))
			return false
		}
		utils.BadRequest(c, "无效的请求数据")
		return false
	}
	return true
}

// fieldError 把校验错误翻译成面向用户的提示
func fieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " 不能为空"
	case "email":
		return "请输入有效的邮箱地址"
	case "min":
		return fe.Field() + " 不能小于 " + fe.Param()
	case "max":
		return fe.Field() + " 不能大于 " + fe.Param()
	case "oneof":
		return fe.Field() + " 取值不合法"
	default:
		return fe.Field() + " 校验失败"
	}
}

// ==================== 认证 ====================

// RegisterReq 注册请求
type RegisterReq struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Device   string `json:"device"`
}

// Register 注册并直接登录
func (h *Handler) Register(c *gin.Context) {
	var req RegisterReq
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.Auth.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			utils.UnprocessableEntity(c, err.Error())
			return
		}
		log.Printf("[Register] 注册失败: %v", err)
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}

	result, err := h.Auth.IssueToken(user, deviceLabel(c, req.Device))
	if err != nil {
		log.Printf("[Register] 签发令牌失败: %v", err)
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}

	utils.Success(c, result)
}

// LoginReq 登录请求
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Device   string `json:"device"`
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	var req LoginReq
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.Auth.Login(req.Email, req.Password, deviceLabel(c, req.Device))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// 邮箱不存在和密码错误对外是同一个回答
			utils.Unauthorized(c, err.Error())
			return
		}
		log.Printf("[Login] 登录失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	utils.Success(c, result)
}

// GoogleLoginReq 外部身份登录请求（profile 已由上游 OAuth 回调校验）
type GoogleLoginReq struct {
	GoogleID string `json:"google_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Device   string `json:"device"`
}

// GoogleLogin 外部身份登录
func (h *Handler) GoogleLogin(c *gin.Context) {
	var req GoogleLoginReq
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.Auth.LoginWithGoogle(req.GoogleID, req.Email, req.Name, deviceLabel(c, req.Device))
	if err != nil {
		log.Printf("[GoogleLogin] 登录失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	utils.Success(c, result)
}

// Logout 登出：撤销当前令牌（重复登出同样返回成功）
func (h *Handler) Logout(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if err := h.Auth.RevokeToken(token); err != nil {
		log.Printf("[Logout] 撤销令牌失败: %v", err)
		utils.InternalServerError(c, "登出失败，请重试")
		return
	}

	// 清理 Session（密码确认状态一并失效）
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	utils.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 返回当前用户摘要
func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	utils.Success(c, gin.H{
		"user":           user.Summary(),
		"email_verified": h.Auth.IsEmailVerified(user),
	})
}

// deviceLabel 确定令牌的设备标签，缺省取 User-Agent
func deviceLabel(c *gin.Context, device string) string {
	if device != "" {
		return device
	}
	if ua := c.Request.UserAgent(); ua != "" {
		if len(ua) > 120 {
			return ua[:120]
		}
		return ua
	}
	return "unknown"
}
