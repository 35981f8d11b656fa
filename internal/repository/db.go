package repository

import (
	"fmt"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB 初始化数据库连接并执行表结构迁移
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移
	if err := db.AutoMigrate(
		&model.User{},
		&model.AccessToken{},
		&model.Media{},
		&model.Episode{},
		&model.Genre{},
		&model.EmbedSource{},
		&model.Favorite{},
		&model.Rating{},
		&model.WatchHistory{},
	); err != nil {
		return nil, fmt.Errorf("表结构迁移失败: %w", err)
	}

	return db, nil
}

// Repositories 仓库集合
type Repositories struct {
	DB       *gorm.DB
	User     *UserRepository
	Token    *TokenRepository
	Media    *MediaRepository
	Episode  *EpisodeRepository
	Genre    *GenreRepository
	Source   *SourceRepository
	Favorite *FavoriteRepository
	Rating   *RatingRepository
	History  *HistoryRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		User:     NewUserRepository(db),
		Token:    NewTokenRepository(db),
		Media:    NewMediaRepository(db),
		Episode:  NewEpisodeRepository(db),
		Genre:    NewGenreRepository(db),
		Source:   NewSourceRepository(db),
		Favorite: NewFavoriteRepository(db),
		Rating:   NewRatingRepository(db),
		History:  NewHistoryRepository(db),
	}
}
