package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/streambox/internal/middleware"
	"github.com/user/streambox/internal/service"
	"github.com/user/streambox/internal/utils"
)

// ==================== 邮箱验证 ====================

// VerificationStatus 邮箱验证状态（未登录由 RequireAuth 拦截为 401）
func (h *Handler) VerificationStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	utils.Success(c, gin.H{
		"user":           user.Summary(),
		"email_verified": h.Auth.IsEmailVerified(user),
	})
}

// SendVerificationLink 生成带签名的验证链接（邮件发送由外部服务完成）
func (h *Handler) SendVerificationLink(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if h.Auth.IsEmailVerified(user) {
		utils.SuccessWithMessage(c, "邮箱已验证", nil)
		return
	}

	token, err := h.Auth.VerificationToken(user)
	if err != nil {
		log.Printf("[SendVerificationLink] 生成链接失败: %v", err)
		utils.InternalServerError(c, "生成验证链接失败")
		return
	}

	utils.Success(c, gin.H{
		"verify_url": h.Config.SiteUrl + "/verify-email?token=" + token,
	})
}

// ConfirmEmail 直接确认当前用户邮箱（幂等：已验证时返回成功且时间戳不变）
func (h *Handler) ConfirmEmail(c *gin.Context) {
	user := middleware.CurrentUser(c)

	already, err := h.Auth.MarkEmailVerified(user.ID)
	if err != nil {
		log.Printf("[ConfirmEmail] 验证失败: %v", err)
		utils.InternalServerError(c, "验证失败，请重试")
		return
	}

	if already {
		utils.SuccessWithMessage(c, "邮箱已验证", nil)
		return
	}
	utils.SuccessWithMessage(c, "验证成功", nil)
}

// VerifyEmailLink 通过签名链接确认邮箱
func (h *Handler) VerifyEmailLink(c *gin.Context) {
	token := c.Query("token")
	userID, err := h.Auth.ConfirmVerificationToken(token)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	already, err := h.Auth.MarkEmailVerified(userID)
	if err != nil {
		log.Printf("[VerifyEmailLink] 验证失败: %v", err)
		utils.InternalServerError(c, "验证失败，请重试")
		return
	}

	if already {
		utils.SuccessWithMessage(c, "邮箱已验证", nil)
		return
	}
	utils.SuccessWithMessage(c, "验证成功", nil)
}

// ==================== 敏感操作二次确认 ====================

// ConfirmPasswordReq 密码确认请求
type ConfirmPasswordReq struct {
	Password string `json:"password" binding:"required"`
}

// ConfirmPassword 敏感操作前的密码二次确认，确认时刻写入当前 Session
// 新鲜度窗口由 RequirePasswordConfirmed 中间件检查
func (h *Handler) ConfirmPassword(c *gin.Context) {
	var req ConfirmPasswordReq
	if !h.bindJSON(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)
	confirmedAt, err := h.Auth.ConfirmPassword(user, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrPasswordMismatch) {
			utils.UnprocessableEntity(c, err.Error())
			return
		}
		log.Printf("[ConfirmPassword] 确认失败: %v", err)
		utils.InternalServerError(c, "确认失败，请重试")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionPasswordConfirmedAt, confirmedAt.Unix())
	session.Save()

	utils.SuccessWithMessage(c, "密码确认成功", gin.H{
		"confirmed_at": confirmedAt.Unix(),
	})
}

// ==================== 账号设置 ====================

// UpdateProfileReq 资料更新请求
type UpdateProfileReq struct {
	Name  string `json:"name" binding:"required,min=2,max=50"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfile 更新昵称和邮箱（换绑邮箱后验证状态重置）
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileReq
	if !h.bindJSON(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)

	if req.Email != user.Email {
		existing, err := h.Repos.User.FindByEmail(req.Email)
		if err != nil {
			utils.InternalServerError(c, "更新失败，请重试")
			return
		}
		if existing != nil && existing.ID != user.ID {
			utils.UnprocessableEntity(c, "该邮箱已被其他账号使用")
			return
		}
		if err := h.Repos.User.UpdateEmail(user.ID, req.Email); err != nil {
			log.Printf("[UpdateProfile] 更新邮箱失败: %v", err)
			utils.InternalServerError(c, "更新失败，请重试")
			return
		}
	}

	if req.Name != user.Name {
		if err := h.Repos.User.UpdateName(user.ID, req.Name); err != nil {
			log.Printf("[UpdateProfile] 更新昵称失败: %v", err)
			utils.InternalServerError(c, "更新失败，请重试")
			return
		}
	}

	utils.SuccessWithMessage(c, "资料已更新", nil)
}

// UpdatePasswordReq 密码修改请求
type UpdatePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// UpdatePassword 修改密码
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordReq
	if !h.bindJSON(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.Auth.ChangePassword(user, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrPasswordMismatch) {
			utils.UnprocessableEntity(c, "当前密码错误")
			return
		}
		log.Printf("[UpdatePassword] 修改密码失败: %v", err)
		utils.InternalServerError(c, "修改失败，请重试")
		return
	}

	utils.SuccessWithMessage(c, "密码已修改", nil)
}

// ==================== 设备管理 ====================

// ListTokens 登录设备列表
func (h *Handler) ListTokens(c *gin.Context) {
	tokens, err := h.Auth.ListTokens(middleware.GetUserID(c))
	if err != nil {
		log.Printf("[ListTokens] 获取设备列表失败: %v", err)
		utils.InternalServerError(c, "获取设备列表失败")
		return
	}
	utils.Success(c, tokens)
}

// RevokeToken 撤销指定设备的令牌
func (h *Handler) RevokeToken(c *gin.Context) {
	tokenID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的令牌 ID")
		return
	}

	if err := h.Auth.RevokeTokenByID(middleware.GetUserID(c), tokenID); err != nil {
		log.Printf("[RevokeToken] 撤销失败: %v", err)
		utils.InternalServerError(c, "撤销失败，请重试")
		return
	}

	utils.SuccessWithMessage(c, "已撤销", nil)
}

// LogoutAll 退出所有设备
func (h *Handler) LogoutAll(c *gin.Context) {
	if err := h.Auth.RevokeAllTokens(middleware.GetUserID(c)); err != nil {
		log.Printf("[LogoutAll] 撤销全部令牌失败: %v", err)
		utils.InternalServerError(c, "操作失败，请重试")
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Save()

	utils.SuccessWithMessage(c, "已退出所有设备", nil)
}
