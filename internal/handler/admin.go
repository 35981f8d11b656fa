package handler

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pgvector/pgvector-go"
	"github.com/user/streambox/internal/model"
	"github.com/user/streambox/internal/utils"
)

// ==================== 条目管理 ====================

// MediaReq 条目创建/更新请求
type MediaReq struct {
	Title         string    `json:"title" binding:"required,max=255"`
	OriginalTitle string    `json:"original_title"`
	Description   string    `json:"description"`
	Type          string    `json:"type" binding:"required,oneof=movie tv_show"`
	Link          string    `json:"link" binding:"required"`
	Poster        string    `json:"poster"`
	Year          string    `json:"year"`
	Duration      float64   `json:"duration"`
	GenreIDs      []int     `json:"genre_ids"`
	Embedding     []float32 `json:"embedding"`
}

func (h *Handler) mediaFromReq(c *gin.Context, req *MediaReq) (*model.Media, bool) {
	media := &model.Media{
		Title:         req.Title,
		OriginalTitle: req.OriginalTitle,
		Description:   req.Description,
		Type:          req.Type,
		Link:          req.Link,
		Poster:        req.Poster,
		Year:          req.Year,
		Duration:      req.Duration,
	}

	if len(req.Embedding) > 0 {
		vec := pgvector.NewVector(req.Embedding)
		media.Embedding = &vec
	}

	if len(req.GenreIDs) > 0 {
		genres, err := h.Repos.Genre.FindByIDs(req.GenreIDs)
		if err != nil {
			utils.InternalServerError(c, "查询分类失败")
			return nil, false
		}
		if len(genres) != len(req.GenreIDs) {
			utils.BadRequest(c, "存在无效的分类 ID")
			return nil, false
		}
		media.Genres = genres
	}

	return media, true
}

// CreateMedia 新增条目
func (h *Handler) CreateMedia(c *gin.Context) {
	var req MediaReq
	if !h.bindJSON(c, &req) {
		return
	}

	media, ok := h.mediaFromReq(c, &req)
	if !ok {
		return
	}

	if err := h.Repos.Media.Create(media); err != nil {
		log.Printf("[CreateMedia] 创建失败: %v", err)
		utils.InternalServerError(c, "创建失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", media)
}

// UpdateMedia 更新条目
func (h *Handler) UpdateMedia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}

	existing, err := h.Repos.Media.FindByID(id)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if existing == nil {
		utils.NotFound(c, "条目不存在")
		return
	}

	var req MediaReq
	if !h.bindJSON(c, &req) {
		return
	}

	media, ok := h.mediaFromReq(c, &req)
	if !ok {
		return
	}
	media.ID = id

	if err := h.Repos.Media.Update(media); err != nil {
		log.Printf("[UpdateMedia] 更新失败: %v", err)
		utils.InternalServerError(c, "更新失败")
		return
	}

	utils.CacheDelete("media_detail:" + strconv.Itoa(id))
	utils.SuccessWithMessage(c, "更新成功", media)
}

// DeleteMedia 删除条目
func (h *Handler) DeleteMedia(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的条目 ID")
		return
	}

	if err := h.Repos.Media.Delete(id); err != nil {
		log.Printf("[DeleteMedia] 删除失败: %v", err)
		utils.InternalServerError(c, "删除失败")
		return
	}

	utils.CacheDelete("media_detail:" + strconv.Itoa(id))
	utils.SuccessWithMessage(c, "删除成功", nil)
}

// ==================== 剧集管理 ====================

// EpisodeReq 剧集创建/更新请求
type EpisodeReq struct {
	MediaID       int    `json:"media_id" binding:"required"`
	EpisodeNumber int    `json:"episode_number" binding:"required,min=1"`
	Title         string `json:"title"`
	Link          string `json:"link" binding:"required"`
}

// CreateEpisode 新增剧集
func (h *Handler) CreateEpisode(c *gin.Context) {
	var req EpisodeReq
	if !h.bindJSON(c, &req) {
		return
	}

	media, err := h.Repos.Media.FindByID(req.MediaID)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if media == nil {
		utils.NotFound(c, "条目不存在")
		return
	}
	if !media.IsTVShow() {
		utils.BadRequest(c, "电影条目不能添加剧集")
		return
	}

	episode := &model.Episode{
		MediaID:       req.MediaID,
		EpisodeNumber: req.EpisodeNumber,
		Title:         req.Title,
		Link:          req.Link,
	}
	if err := h.Repos.Episode.Create(episode); err != nil {
		log.Printf("[CreateEpisode] 创建失败: %v", err)
		utils.InternalServerError(c, "创建失败")
		return
	}

	utils.CacheDelete("media_detail:" + strconv.Itoa(req.MediaID))
	utils.SuccessWithMessage(c, "创建成功", episode)
}

// UpdateEpisode 更新剧集
func (h *Handler) UpdateEpisode(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的剧集 ID")
		return
	}

	existing, err := h.Repos.Episode.FindByID(id)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if existing == nil {
		utils.NotFound(c, "剧集不存在")
		return
	}

	var req EpisodeReq
	if !h.bindJSON(c, &req) {
		return
	}

	existing.EpisodeNumber = req.EpisodeNumber
	existing.Title = req.Title
	existing.Link = req.Link
	if err := h.Repos.Episode.Update(existing); err != nil {
		log.Printf("[UpdateEpisode] 更新失败: %v", err)
		utils.InternalServerError(c, "更新失败")
		return
	}

	utils.CacheDelete("media_detail:" + strconv.Itoa(existing.MediaID))
	utils.SuccessWithMessage(c, "更新成功", existing)
}

// DeleteEpisode 删除剧集
func (h *Handler) DeleteEpisode(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的剧集 ID")
		return
	}

	episode, err := h.Repos.Episode.FindByID(id)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if episode == nil {
		utils.NotFound(c, "剧集不存在")
		return
	}

	if err := h.Repos.Episode.Delete(id); err != nil {
		log.Printf("[DeleteEpisode] 删除失败: %v", err)
		utils.InternalServerError(c, "删除失败")
		return
	}

	utils.CacheDelete("media_detail:" + strconv.Itoa(episode.MediaID))
	utils.SuccessWithMessage(c, "删除成功", nil)
}

// ==================== 分类管理 ====================

// GenreReq 分类创建/更新请求
type GenreReq struct {
	Name  string `json:"name" binding:"required,max=64"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// CreateGenre 新增分类（slug 缺省时从名称生成）
func (h *Handler) CreateGenre(c *gin.Context) {
	var req GenreReq
	if !h.bindJSON(c, &req) {
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}

	existing, err := h.Repos.Genre.FindBySlug(slug)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if existing != nil {
		utils.BadRequest(c, "分类标识已存在")
		return
	}

	genre := &model.Genre{Name: req.Name, Slug: slug, Color: req.Color}
	if err := h.Repos.Genre.Create(genre); err != nil {
		log.Printf("[CreateGenre] 创建失败: %v", err)
		utils.InternalServerError(c, "创建失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", genre)
}

// UpdateGenre 更新分类
func (h *Handler) UpdateGenre(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的分类 ID")
		return
	}

	var req GenreReq
	if !h.bindJSON(c, &req) {
		return
	}

	genre := &model.Genre{ID: id, Name: req.Name, Slug: req.Slug, Color: req.Color}
	if genre.Slug == "" {
		genre.Slug = utils.Slugify(req.Name)
	}

	if err := h.Repos.Genre.Update(genre); err != nil {
		log.Printf("[UpdateGenre] 更新失败: %v", err)
		utils.InternalServerError(c, "更新失败")
		return
	}

	utils.SuccessWithMessage(c, "更新成功", genre)
}

// DeleteGenre 删除分类
func (h *Handler) DeleteGenre(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的分类 ID")
		return
	}

	if err := h.Repos.Genre.Delete(id); err != nil {
		log.Printf("[DeleteGenre] 删除失败: %v", err)
		utils.InternalServerError(c, "删除失败")
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}

// ==================== 播放源管理 ====================

// SourceReq 播放源创建/更新请求
type SourceReq struct {
	Name     string `json:"name" binding:"required,max=64"`
	Key      string `json:"key" binding:"required,max=32"`
	BaseURL  string `json:"base_url" binding:"required,url"`
	Enabled  *bool  `json:"enabled"`
	Priority int    `json:"priority"`
}

// ListSources 播放源列表（含禁用项）
func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.Repos.Source.ListAll()
	if err != nil {
		log.Printf("[ListSources] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}
	utils.Success(c, sources)
}

// CreateSource 新增播放源
func (h *Handler) CreateSource(c *gin.Context) {
	var req SourceReq
	if !h.bindJSON(c, &req) {
		return
	}

	existing, err := h.Repos.Source.FindByKey(req.Key)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if existing != nil {
		utils.BadRequest(c, "播放源标识已存在")
		return
	}

	source := &model.EmbedSource{
		Name:     req.Name,
		Key:      req.Key,
		BaseURL:  req.BaseURL,
		Enabled:  true,
		Priority: req.Priority,
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}

	if err := h.Repos.Source.Create(source); err != nil {
		log.Printf("[CreateSource] 创建失败: %v", err)
		utils.InternalServerError(c, "创建失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", source)
}

// UpdateSource 更新播放源
func (h *Handler) UpdateSource(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的播放源 ID")
		return
	}

	var req SourceReq
	if !h.bindJSON(c, &req) {
		return
	}

	source := &model.EmbedSource{
		ID:       id,
		Name:     req.Name,
		Key:      req.Key,
		BaseURL:  req.BaseURL,
		Priority: req.Priority,
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}

	if err := h.Repos.Source.Update(source); err != nil {
		log.Printf("[UpdateSource] 更新失败: %v", err)
		utils.InternalServerError(c, "更新失败")
		return
	}

	utils.SuccessWithMessage(c, "更新成功", source)
}

// DeleteSource 删除播放源
func (h *Handler) DeleteSource(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的播放源 ID")
		return
	}

	if err := h.Repos.Source.Delete(id); err != nil {
		log.Printf("[DeleteSource] 删除失败: %v", err)
		utils.InternalServerError(c, "删除失败")
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}

// ==================== 用户与概览 ====================

// ListUsers 用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	limit, offset := pageParams(c)

	users, err := h.Repos.User.ListAll(limit, offset)
	if err != nil {
		log.Printf("[ListUsers] 查询失败: %v", err)
		utils.InternalServerError(c, "查询失败")
		return
	}

	summaries := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}

	total, _ := h.Repos.User.Count()
	utils.Success(c, gin.H{
		"items": summaries,
		"total": total,
	})
}

// Dashboard 后台概览统计
func (h *Handler) Dashboard(c *gin.Context) {
	userCount, err := h.Repos.User.Count()
	if err != nil {
		log.Printf("[Dashboard] 统计用户失败: %v", err)
		utils.InternalServerError(c, "统计失败")
		return
	}
	mediaCount, _ := h.Repos.Media.Count()

	utils.Success(c, gin.H{
		"user_count":  userCount,
		"media_count": mediaCount,
	})
}
