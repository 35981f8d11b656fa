package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string](16, time.Minute)

	c.Set("a", "hello")
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "hello", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[int](16, 10*time.Millisecond)

	c.Set("n", 42)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("n")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheRemove(t *testing.T) {
	c := NewTTLCache[string](16, time.Minute)

	c.Set("a", "x")
	c.Remove("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheEviction(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// 超出容量时淘汰最久未用的条目
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
