package repository

import (
	"errors"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	return r.db.Create(user).Error
}

// FindByEmail 根据邮箱查找用户（精确匹配）
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByID 根据 ID 查找用户
func (r *UserRepository) FindByID(id int) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByGoogleID 根据外部身份 ID 查找用户
func (r *UserRepository) FindByGoogleID(googleID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("google_id = ?", googleID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateName 更新昵称
func (r *UserRepository) UpdateName(userID int, name string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()}).Error
}

// UpdateEmail 更新邮箱（换绑后验证状态重置）
func (r *UserRepository) UpdateEmail(userID int, email string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"email": email, "email_verified_at": nil, "updated_at": time.Now()}).Error
}

// UpdatePasswordHash 更新密码哈希
func (r *UserRepository) UpdatePasswordHash(userID int, hash string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"password_hash": hash, "updated_at": time.Now()}).Error
}

// MarkEmailVerified 写入邮箱验证时间（只在未验证时生效，幂等）
func (r *UserRepository) MarkEmailVerified(userID int, verifiedAt time.Time) error {
	return r.db.Model(&model.User{}).
		Where("id = ? AND email_verified_at IS NULL", userID).
		Updates(map[string]interface{}{"email_verified_at": verifiedAt, "updated_at": time.Now()}).Error
}

// LinkGoogleID 绑定外部身份
func (r *UserRepository) LinkGoogleID(userID int, googleID string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"google_id": googleID, "updated_at": time.Now()}).Error
}

// ListAll 获取所有用户列表
func (r *UserRepository) ListAll(limit, offset int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}

// Count 获取用户总数
func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}
