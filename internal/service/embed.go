package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/streambox/internal/model"
	"github.com/user/streambox/internal/repository"
	"github.com/user/streambox/internal/utils"
	"golang.org/x/sync/singleflight"
)

// EmbedService 外部播放源服务
// 只负责拼装 embed 地址和镜像站点探活，播放器本身由外部提供
type EmbedService struct {
	sources *repository.SourceRepository
	client  *http.Client
	timeout time.Duration
	sf      singleflight.Group
}

// NewEmbedService 创建播放源服务
func NewEmbedService(sources *repository.SourceRepository, timeout time.Duration) *EmbedService {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &EmbedService{
		sources: sources,
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// EmbedInfo 播放地址信息（对外数据契约）
type EmbedInfo struct {
	SourceKey  string `json:"source_key"`
	SourceName string `json:"source_name"`
	URL        string `json:"url"`
}

// BuildURL 拼装单个播放源的 embed 地址
// 电影: {base}/embed/movie/{link}，剧集: {base}/embed/tv/{link}/{episode_number}
func BuildURL(source *model.EmbedSource, media *model.Media, episode *model.Episode) string {
	base := strings.TrimRight(source.BaseURL, "/")
	if media.IsTVShow() && episode != nil {
		return fmt.Sprintf("%s/embed/tv/%s/%d", base, media.Link, episode.EpisodeNumber)
	}
	return fmt.Sprintf("%s/embed/movie/%s", base, media.Link)
}

// Resolve 为作品/剧集生成所有启用播放源的 embed 地址（探测耗时小的在前）
func (s *EmbedService) Resolve(media *model.Media, episode *model.Episode) ([]EmbedInfo, error) {
	sources, err := s.sources.ListEnabled()
	if err != nil {
		return nil, err
	}

	infos := make([]EmbedInfo, 0, len(sources))
	for _, src := range sources {
		infos = append(infos, EmbedInfo{
			SourceKey:  src.Key,
			SourceName: src.Name,
			URL:        BuildURL(src, media, episode),
		})
	}
	return infos, nil
}

// SourceStatus 镜像探活结果
type SourceStatus struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	SpeedMs   int    `json:"speed_ms"`
}

// Probe 并发探测所有启用播放源的可用性
// 结果缓存 5 分钟，singleflight 避免并发请求重复探测
func (s *EmbedService) Probe(ctx context.Context) ([]SourceStatus, error) {
	const cacheKey = "embed_probe"
	if cached, found := utils.CacheGet(cacheKey); found {
		if statuses, ok := cached.([]SourceStatus); ok {
			return statuses, nil
		}
	}

	val, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		sources, err := s.sources.ListEnabled()
		if err != nil {
			return nil, err
		}

		statuses := make([]SourceStatus, len(sources))
		var wg sync.WaitGroup
		for i, src := range sources {
			wg.Add(1)
			go func(i int, src *model.EmbedSource) {
				defer wg.Done()
				statuses[i] = s.probeOne(ctx, src)
			}(i, src)
		}
		wg.Wait()

		// 可用且速度快的排前面
		sort.SliceStable(statuses, func(i, j int) bool {
			if statuses[i].Available != statuses[j].Available {
				return statuses[i].Available
			}
			return statuses[i].SpeedMs < statuses[j].SpeedMs
		})

		utils.CacheSet(cacheKey, statuses, 5*time.Minute)
		return statuses, nil
	})
	if err != nil {
		return nil, err
	}

	return val.([]SourceStatus), nil
}

// probeOne 探测单个播放源并回写耗时
func (s *EmbedService) probeOne(ctx context.Context, src *model.EmbedSource) SourceStatus {
	status := SourceStatus{Key: src.Key, Name: src.Name}

	req, err := http.NewRequestWithContext(ctx, "HEAD", src.BaseURL, nil)
	if err != nil {
		return status
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[EmbedService] 探测失败 (%s): %v", src.Key, err)
		return status
	}
	resp.Body.Close()

	elapsed := int(time.Since(start).Milliseconds())
	status.Available = resp.StatusCode < http.StatusInternalServerError
	status.SpeedMs = elapsed

	if status.Available {
		if err := s.sources.UpdateSpeed(src.ID, elapsed); err != nil {
			log.Printf("[EmbedService] 回写耗时失败 (%s): %v", src.Key, err)
		}
	}

	return status
}
