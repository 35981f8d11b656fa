package handler

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/streambox/internal/middleware"
	"github.com/user/streambox/internal/model"
	"github.com/user/streambox/internal/utils"
)

// targetExists 检查作品和剧集是否存在；episodeID 为 0 表示针对整部作品
func (h *Handler) targetExists(mediaID, episodeID int) (bool, error) {
	media, err := h.Repos.Media.FindByID(mediaID)
	if err != nil || media == nil {
		return false, err
	}

	if episodeID > 0 {
		episode, err := h.Repos.Episode.FindByID(episodeID)
		if err != nil {
			return false, err
		}
		if episode == nil || episode.MediaID != mediaID {
			return false, nil
		}
	}

	return true, nil
}

// resolveTarget 校验收藏/评分/历史操作引用的作品和剧集存在
func (h *Handler) resolveTarget(c *gin.Context, mediaID, episodeID int) bool {
	ok, err := h.targetExists(mediaID, episodeID)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return false
	}
	if !ok {
		utils.NotFound(c, "条目或剧集不存在")
		return false
	}
	return true
}

// ==================== 收藏 ====================

// FavoriteReq 收藏请求
type FavoriteReq struct {
	MediaID   int `json:"media_id" binding:"required"`
	EpisodeID int `json:"episode_id"`
}

// AddFavorite 添加收藏（重复添加幂等）
func (h *Handler) AddFavorite(c *gin.Context) {
	var req FavoriteReq
	if !h.bindJSON(c, &req) {
		return
	}
	if !h.resolveTarget(c, req.MediaID, req.EpisodeID) {
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.Repos.Favorite.Add(userID, req.MediaID, req.EpisodeID); err != nil {
		log.Printf("[AddFavorite] 添加失败: %v", err)
		utils.InternalServerError(c, "操作失败")
		return
	}

	utils.SuccessWithMessage(c, "已收藏", nil)
}

// RemoveFavorite 取消收藏
func (h *Handler) RemoveFavorite(c *gin.Context) {
	mediaID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}
	episodeID, _ := strconv.Atoi(c.DefaultQuery("episode_id", "0"))

	userID := middleware.GetUserID(c)
	if err := h.Repos.Favorite.Remove(userID, mediaID, episodeID); err != nil {
		log.Printf("[RemoveFavorite] 取消失败: %v", err)
		utils.InternalServerError(c, "操作失败")
		return
	}

	utils.SuccessWithMessage(c, "已取消收藏", nil)
}

// ListFavorites 收藏列表
func (h *Handler) ListFavorites(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pageParams(c)

	favorites, err := h.Repos.Favorite.ListByUser(userID, limit, offset)
	if err != nil {
		log.Printf("[ListFavorites] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}

	count, _ := h.Repos.Favorite.CountByUser(userID)
	utils.Success(c, gin.H{
		"items": favorites,
		"total": count,
	})
}

// ==================== 评分 ====================

// RateReq 评分请求（1-10 整数分制）
type RateReq struct {
	MediaID   int `json:"media_id" binding:"required"`
	EpisodeID int `json:"episode_id"`
	Score     int `json:"score" binding:"required,min=1,max=10"`
}

// UpsertRating 写入或更新评分
func (h *Handler) UpsertRating(c *gin.Context) {
	var req RateReq
	if !h.bindJSON(c, &req) {
		return
	}
	if !h.resolveTarget(c, req.MediaID, req.EpisodeID) {
		return
	}

	rating := &model.Rating{
		UserID:    middleware.GetUserID(c),
		MediaID:   req.MediaID,
		EpisodeID: req.EpisodeID,
		Score:     req.Score,
	}
	if err := h.Repos.Rating.Upsert(rating); err != nil {
		log.Printf("[UpsertRating] 保存失败: %v", err)
		utils.InternalServerError(c, "操作失败")
		return
	}

	// 聚合列失效，下次详情查询时重算
	utils.CacheDelete("media_detail:" + strconv.Itoa(req.MediaID))

	utils.SuccessWithMessage(c, "已评分", rating)
}

// DeleteRating 删除评分
func (h *Handler) DeleteRating(c *gin.Context) {
	mediaID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}
	episodeID, _ := strconv.Atoi(c.DefaultQuery("episode_id", "0"))

	userID := middleware.GetUserID(c)
	if err := h.Repos.Rating.Delete(userID, mediaID, episodeID); err != nil {
		log.Printf("[DeleteRating] 删除失败: %v", err)
		utils.InternalServerError(c, "操作失败")
		return
	}

	utils.CacheDelete("media_detail:" + strconv.Itoa(mediaID))
	utils.SuccessWithMessage(c, "已删除评分", nil)
}

// ListRatings 用户评分列表
func (h *Handler) ListRatings(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pageParams(c)

	ratings, err := h.Repos.Rating.ListByUser(userID, limit, offset)
	if err != nil {
		log.Printf("[ListRatings] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}

	count, _ := h.Repos.Rating.CountByUser(userID)
	utils.Success(c, gin.H{
		"items": ratings,
		"total": count,
	})
}

// ==================== 观看历史 ====================

// HistoryReq 观看进度上报
type HistoryReq struct {
	MediaID   int     `json:"media_id" binding:"required"`
	EpisodeID int     `json:"episode_id"`
	Progress  float64 `json:"progress" binding:"min=0"`
	Duration  float64 `json:"duration" binding:"min=0"`
	WatchedAt int64   `json:"watched_at"` // 毫秒时间戳，0 表示取服务器时间
}

// historyFromReq 把上报数据转成历史记录
// watched_at 缺省时留零值，由仓库补服务器当前时间
func historyFromReq(userID int, dto HistoryReq) *model.WatchHistory {
	record := &model.WatchHistory{
		UserID:    userID,
		MediaID:   dto.MediaID,
		EpisodeID: dto.EpisodeID,
		Progress:  dto.Progress,
		Duration:  dto.Duration,
	}
	if dto.WatchedAt > 0 {
		record.WatchedAt = time.UnixMilli(dto.WatchedAt)
	}
	return record
}

// UpsertHistory 上报观看进度（同一 (作品, 剧集) 只保留最新一条，后写覆盖）
func (h *Handler) UpsertHistory(c *gin.Context) {
	var req HistoryReq
	if !h.bindJSON(c, &req) {
		return
	}
	if !h.resolveTarget(c, req.MediaID, req.EpisodeID) {
		return
	}

	record := historyFromReq(middleware.GetUserID(c), req)
	if err := h.Repos.History.Upsert(record); err != nil {
		log.Printf("[UpsertHistory] 保存失败: %v", err)
		utils.InternalServerError(c, "操作失败")
		return
	}

	utils.Success(c, record)
}

// SyncHistoryReq 批量同步请求
type SyncHistoryReq struct {
	Records    []HistoryReq `json:"records"`
	LastSyncAt int64        `json:"last_sync_at"` // 毫秒时间戳
}

// SyncHistory 多端同步观看历史：保存客户端记录，返回服务端新增
func (h *Handler) SyncHistory(c *gin.Context) {
	var req SyncHistoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "无效的请求数据")
		return
	}

	userID := middleware.GetUserID(c)

	// 1. 将客户端记录保存到服务端（引用不存在的条目或剧集跳过）
	for _, dto := range req.Records {
		if ok, err := h.targetExists(dto.MediaID, dto.EpisodeID); err != nil || !ok {
			continue
		}
		if err := h.Repos.History.Upsert(historyFromReq(userID, dto)); err != nil {
			log.Printf("[SyncHistory] 保存记录失败: %v", err)
		}
	}

	// 2. 返回服务端在 last_sync_at 之后的所有更新
	serverRecords, err := h.Repos.History.GetAfter(userID, time.UnixMilli(req.LastSyncAt))
	if err != nil {
		log.Printf("[SyncHistory] 获取服务端新记录失败: %v", err)
	}

	utils.Success(c, gin.H{
		"server_records": serverRecords,
		"synced_at":      time.Now().UnixMilli(),
	})
}

// ListHistory 观看历史列表
func (h *Handler) ListHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pageParams(c)

	histories, err := h.Repos.History.ListByUser(userID, limit, offset)
	if err != nil {
		log.Printf("[ListHistory] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}

	count, _ := h.Repos.History.CountByUser(userID)
	utils.Success(c, gin.H{
		"items": histories,
		"total": count,
	})
}

// RemoveHistory 删除观看记录
func (h *Handler) RemoveHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的记录 ID")
		return
	}

	if err := h.Repos.History.Delete(middleware.GetUserID(c), id); err != nil {
		log.Printf("[RemoveHistory] 删除失败: %v", err)
		utils.InternalServerError(c, "删除失败")
		return
	}

	utils.Success(c, nil)
}

// pageParams 解析分页参数
func pageParams(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}
