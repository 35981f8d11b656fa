package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/streambox/internal/model"
)

func TestBuildURLMovie(t *testing.T) {
	source := &model.EmbedSource{Key: "vidsrc", BaseURL: "https://vidsrc.example.com/"}
	media := &model.Media{Type: model.MediaTypeMovie, Link: "tt0111161"}

	url := BuildURL(source, media, nil)
	assert.Equal(t, "https://vidsrc.example.com/embed/movie/tt0111161", url)
}

func TestBuildURLTVShow(t *testing.T) {
	source := &model.EmbedSource{Key: "vidsrc", BaseURL: "https://vidsrc.example.com"}
	media := &model.Media{Type: model.MediaTypeTVShow, Link: "tt0903747"}
	episode := &model.Episode{EpisodeNumber: 3}

	url := BuildURL(source, media, episode)
	assert.Equal(t, "https://vidsrc.example.com/embed/tv/tt0903747/3", url)
}

func TestBuildURLTVShowWithoutEpisode(t *testing.T) {
	// 剧集类型但未指定集数时退回整部作品的地址
	source := &model.EmbedSource{Key: "vidsrc", BaseURL: "https://vidsrc.example.com"}
	media := &model.Media{Type: model.MediaTypeTVShow, Link: "tt0903747"}

	url := BuildURL(source, media, nil)
	assert.Equal(t, "https://vidsrc.example.com/embed/movie/tt0903747", url)
}
