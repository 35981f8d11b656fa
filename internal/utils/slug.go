package utils

import (
	"strings"
	"unicode"
)

// Slugify 把名称转成 URL 友好的 slug（小写字母数字，其他字符折叠为连字符）
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true // 避免开头出现连字符

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
