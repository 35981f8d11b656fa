package repository

import (
	"errors"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create 保存令牌记录（只存哈希）
func (r *TokenRepository) Create(token *model.AccessToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	return r.db.Create(token).Error
}

// FindByHash 根据令牌哈希查找
func (r *TokenRepository) FindByHash(hash string) (*model.AccessToken, error) {
	var token model.AccessToken
	err := r.db.Where("token_hash = ?", hash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// FindByID 查找用户名下指定令牌
func (r *TokenRepository) FindByID(userID, tokenID int) (*model.AccessToken, error) {
	var token model.AccessToken
	err := r.db.Where("user_id = ? AND id = ?", userID, tokenID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// DeleteByHash 根据哈希删除令牌（撤销后不可再认证）
func (r *TokenRepository) DeleteByHash(hash string) error {
	return r.db.Where("token_hash = ?", hash).Delete(&model.AccessToken{}).Error
}

// DeleteByUser 删除用户的全部令牌（退出所有设备）
func (r *TokenRepository) DeleteByUser(userID int) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.AccessToken{}).Error
}

// ListByUser 获取用户的令牌列表（设备视角）
func (r *TokenRepository) ListByUser(userID int) ([]*model.AccessToken, error) {
	var tokens []*model.AccessToken
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}

// TouchLastUsed 更新最近使用时间
func (r *TokenRepository) TouchLastUsed(tokenID int, usedAt time.Time) error {
	return r.db.Model(&model.AccessToken{}).Where("id = ?", tokenID).
		Update("last_used_at", usedAt).Error
}

// DeleteExpired 清理已过期令牌
func (r *TokenRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Delete(&model.AccessToken{})
	return res.RowsAffected, res.Error
}
