package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID              int        `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Email           string     `json:"email" db:"email" gorm:"unique"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	IsAdmin         bool       `json:"is_admin" db:"is_admin"`
	GoogleID        *string    `json:"-" db:"google_id" gorm:"uniqueIndex"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" db:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// UserSummary 对外暴露的用户摘要（登录响应等场景）
type UserSummary struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Summary 生成用户摘要
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}
}

// AccessToken 访问令牌（每个登录设备一条，只存哈希）
type AccessToken struct {
	ID         int        `json:"id" db:"id"`
	UserID     int        `json:"user_id" db:"user_id" gorm:"index"`
	Name       string     `json:"name" db:"name"`
	TokenHash  string     `json:"-" db:"token_hash" gorm:"uniqueIndex"`
	LastUsedAt *time.Time `json:"last_used_at" db:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Expired 判断令牌是否已过期（ExpiresAt 为空表示永不过期）
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
