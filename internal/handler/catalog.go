package handler

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/streambox/internal/middleware"
	"github.com/user/streambox/internal/model"
	"github.com/user/streambox/internal/repository"
	"github.com/user/streambox/internal/utils"
)

// ==================== 目录浏览 ====================

// ListMedia 条目列表（支持类型、分类、关键词筛选）
func (h *Handler) ListMedia(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	mediaType := c.Query("type")
	if mediaType != "" && mediaType != model.MediaTypeMovie && mediaType != model.MediaTypeTVShow {
		utils.BadRequest(c, "type 只能是 movie 或 tv_show")
		return
	}

	items, total, err := h.Repos.Media.List(repository.MediaFilter{
		Type:      mediaType,
		GenreSlug: c.Query("genre"),
		Keyword:   c.Query("q"),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	})
	if err != nil {
		log.Printf("[ListMedia] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}

	utils.Success(c, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// mediaDetail 详情响应载荷
type mediaDetail struct {
	*model.Media
	IsFavorited   bool     `json:"is_favorited"`
	UserScore     int      `json:"user_score,omitempty"`
	ResumeSeconds *float64 `json:"resume_seconds,omitempty"`
}

// GetMedia 条目详情（带分类、剧集和评分聚合；登录用户附加个人状态）
func (h *Handler) GetMedia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}

	media, err := h.getMediaCached(id)
	if err != nil {
		log.Printf("[GetMedia] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}
	if media == nil {
		utils.NotFound(c, "条目不存在")
		return
	}

	detail := mediaDetail{Media: media}

	// 登录用户补充收藏/评分/续播状态
	if userID := middleware.GetUserID(c); userID > 0 {
		detail.IsFavorited, _ = h.Repos.Favorite.IsFavorited(userID, media.ID, 0)
		if rating, _ := h.Repos.Rating.Find(userID, media.ID, 0); rating != nil {
			detail.UserScore = rating.Score
		}
		if history, _ := h.Repos.History.Find(userID, media.ID, 0); history != nil {
			detail.ResumeSeconds = &history.Progress
		}
	}

	utils.Success(c, detail)
}

// getMediaCached 详情查询（带进程内缓存，聚合列同时刷新）
func (h *Handler) getMediaCached(id int) (*model.Media, error) {
	cacheKey := "media_detail:" + strconv.Itoa(id)
	if cached, found := utils.CacheGet(cacheKey); found {
		if media, ok := cached.(*model.Media); ok {
			return media, nil
		}
	}

	media, err := h.Repos.Media.FindByID(id)
	if err != nil || media == nil {
		return media, err
	}

	// 聚合列惰性刷新
	if agg, err := h.Repos.Media.RefreshRatingAggregate(id); err == nil {
		media.RatingAvg = agg.Avg
		media.RatingCount = agg.Count
	}

	utils.CacheSet(cacheKey, media, 5*time.Minute)
	return media, nil
}

// SimilarMedia 相似条目推荐
func (h *Handler) SimilarMedia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}

	items, err := h.Repos.Media.FindSimilar(id, 12)
	if err != nil {
		log.Printf("[SimilarMedia] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}

	utils.Success(c, items)
}

// ListEpisodes 作品剧集列表
func (h *Handler) ListEpisodes(c *gin.Context) {
	mediaID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}

	media, err := h.Repos.Media.FindByID(mediaID)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if media == nil {
		utils.NotFound(c, "条目不存在")
		return
	}

	utils.Success(c, media.Episodes)
}

// ListGenres 分类列表
func (h *Handler) ListGenres(c *gin.Context) {
	genres, err := h.Repos.Genre.ListAll()
	if err != nil {
		log.Printf("[ListGenres] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}
	utils.Success(c, genres)
}

// ==================== 播放 ====================

// EmbedURLs 获取播放地址（外部 embed 播放器数据契约）
// GET /api/media/:id/embed?episode_id=xxx
func (h *Handler) EmbedURLs(c *gin.Context) {
	mediaID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}

	media, err := h.Repos.Media.FindByID(mediaID)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if media == nil {
		utils.NotFound(c, "条目不存在")
		return
	}

	var episode *model.Episode
	if episodeStr := c.Query("episode_id"); episodeStr != "" {
		episodeID, err := strconv.Atoi(episodeStr)
		if err != nil {
			utils.BadRequest(c, "无效的剧集 ID")
			return
		}
		episode, err = h.Repos.Episode.FindByID(episodeID)
		if err != nil {
			utils.InternalServerError(c, "查询失败")
			return
		}
		if episode == nil || episode.MediaID != media.ID {
			utils.NotFound(c, "剧集不存在")
			return
		}
	}

	infos, err := h.Embed.Resolve(media, episode)
	if err != nil {
		log.Printf("[EmbedURLs] 生成播放地址失败: %v", err)
		utils.InternalServerError(c, "生成播放地址失败")
		return
	}

	utils.Success(c, infos)
}

// SourceStatus 播放源探活
func (h *Handler) SourceStatus(c *gin.Context) {
	statuses, err := h.Embed.Probe(c.Request.Context())
	if err != nil {
		log.Printf("[SourceStatus] 探测失败: %v", err)
		utils.InternalServerError(c, "探测失败")
		return
	}
	utils.Success(c, statuses)
}
