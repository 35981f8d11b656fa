package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidScore(t *testing.T) {
	assert.True(t, ValidScore(1))
	assert.True(t, ValidScore(10))
	assert.False(t, ValidScore(0))
	assert.False(t, ValidScore(11))
	assert.False(t, ValidScore(-3))
}

func TestWatchHistoryNormalize(t *testing.T) {
	cases := []struct {
		name         string
		progress     float64
		duration     float64
		wantProgress float64
		wantDuration float64
	}{
		{"正常进度", 120, 3600, 120, 3600},
		{"负进度归零", -5, 3600, 0, 3600},
		{"进度超过时长截断", 4000, 3600, 3600, 3600},
		{"负时长全部归零", 100, -1, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &WatchHistory{Progress: tc.progress, Duration: tc.duration}
			h.Normalize()
			assert.Equal(t, tc.wantProgress, h.Progress)
			assert.Equal(t, tc.wantDuration, h.Duration)
		})
	}
}

func TestAccessTokenExpired(t *testing.T) {
	now := time.Now()

	// 无过期时间表示永不过期
	forever := &AccessToken{}
	assert.False(t, forever.Expired(now))

	future := now.Add(time.Hour)
	alive := &AccessToken{ExpiresAt: &future}
	assert.False(t, alive.Expired(now))

	past := now.Add(-time.Hour)
	dead := &AccessToken{ExpiresAt: &past}
	assert.True(t, dead.Expired(now))
}
