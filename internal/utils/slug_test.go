package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"  Action  ", "action"},
		{"Sci-Fi & Fantasy", "sci-fi-fantasy"},
		{"Top 10", "top-10"},
		{"喜剧", "喜剧"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "输入: %q", tc.in)
	}
}
