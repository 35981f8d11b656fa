package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/streambox/internal/model"
	"github.com/user/streambox/internal/service"
)

// stubVerifier 固定令牌校验桩
type stubVerifier struct {
	valid string
	user  *model.User
}

func (v *stubVerifier) VerifyToken(plaintext string) (*model.User, error) {
	if plaintext != "" && plaintext == v.valid {
		return v.user, nil
	}
	return nil, service.ErrUnauthenticated
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("test_session", store))
	return r
}

func TestRequireAuth(t *testing.T) {
	verifier := &stubVerifier{valid: "good-token", user: &model.User{ID: 7, Name: "张三"}}

	r := newTestRouter()
	r.GET("/protected", RequireAuth(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})

	// 无令牌、错误令牌、有效令牌
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"无令牌", "", http.StatusUnauthorized},
		{"无效令牌", "Bearer bad-token", http.StatusUnauthorized},
		{"有效令牌", "Bearer good-token", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireAuthCookieFallback(t *testing.T) {
	verifier := &stubVerifier{valid: "cookie-token", user: &model.User{ID: 3}}

	r := newTestRouter()
	r.GET("/protected", RequireAuth(verifier), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	verifier := &stubVerifier{valid: "good-token", user: &model.User{ID: 7}}

	r := newTestRouter()
	r.GET("/open", OptionalAuth(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})

	// 未登录也放行
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":0`)

	// 带有效令牌时识别用户
	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestRequireAdmin(t *testing.T) {
	admin := &stubVerifier{valid: "admin-token", user: &model.User{ID: 1, IsAdmin: true}}
	normal := &stubVerifier{valid: "user-token", user: &model.User{ID: 2}}

	for _, tc := range []struct {
		name     string
		verifier *stubVerifier
		token    string
		want     int
	}{
		{"管理员放行", admin, "admin-token", http.StatusOK},
		{"普通用户拒绝", normal, "user-token", http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter()
			r.GET("/admin", RequireAuth(tc.verifier), RequireAdmin(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequirePasswordConfirmed(t *testing.T) {
	const window = 30 * time.Minute

	newServer := func(confirmedAt int64) *gin.Engine {
		r := newTestRouter()
		// 先写入 Session 再访问受保护路由，模拟密码确认流程
		r.POST("/confirm", func(c *gin.Context) {
			session := sessions.Default(c)
			session.Set(SessionPasswordConfirmedAt, confirmedAt)
			require.NoError(t, session.Save())
			c.Status(http.StatusOK)
		})
		r.PUT("/sensitive", RequirePasswordConfirmed(window), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	run := func(r *gin.Engine, withSession bool) int {
		var sessionCookies []*http.Cookie
		if withSession {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("POST", "/confirm", nil))
			sessionCookies = w.Result().Cookies()
		}

		req := httptest.NewRequest("PUT", "/sensitive", nil)
		for _, ck := range sessionCookies {
			req.AddCookie(ck)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// 窗口内确认过：放行
	assert.Equal(t, http.StatusOK, run(newServer(time.Now().Unix()), true))

	// 确认已超出窗口：拒绝
	stale := time.Now().Add(-window - time.Minute).Unix()
	assert.Equal(t, http.StatusForbidden, run(newServer(stale), true))

	// 从未确认：拒绝
	assert.Equal(t, http.StatusForbidden, run(newServer(0), false))
}

func TestExtractTokenPrefersHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Authorization", "Bearer header-token")
	c.Request.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})

	assert.Equal(t, "header-token", ExtractToken(c))
}
