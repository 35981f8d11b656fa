package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T, ttl time.Duration) (*AuthService, *fakeUserStore, *fakeTokenStore) {
	t.Helper()
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	return NewAuthService(users, tokens, "test-secret", ttl), users, tokens
}

func TestLoginGenericError(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 0)

	_, err := svc.Register("张三", "zhang@example.com", "correct-password")
	require.NoError(t, err)

	// 邮箱不存在和密码错误必须返回完全相同的错误
	_, errUnknown := svc.Login("nobody@example.com", "whatever", "test")
	_, errWrongPass := svc.Login("zhang@example.com", "wrong-password", "test")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestLoginIssuesOpaqueToken(t *testing.T) {
	svc, _, tokens := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	result, err := svc.Login("zhang@example.com", "password123", "Chrome on macOS")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	// 存储侧只保留哈希，明文不落库
	stored, err := tokens.FindByHash(HashToken(result.Token))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, result.Token, stored.TokenHash)
	assert.Equal(t, "Chrome on macOS", stored.Name)
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	result, err := svc.IssueToken(user, "test")
	require.NoError(t, err)

	got, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// 未知令牌和空令牌统一返回未登录
	_, err = svc.VerifyToken("bogus-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.VerifyToken("")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyTokenExpired(t *testing.T) {
	svc, _, tokens := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	result, err := svc.IssueToken(user, "test")
	require.NoError(t, err)

	// 手动把过期时间拨到过去
	stored, err := tokens.FindByHash(HashToken(result.Token))
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	stored.ExpiresAt = &past
	tokens.tokens[stored.TokenHash] = stored

	_, err = svc.VerifyToken(result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRevokeTokenNoResurrection(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	first, err := svc.IssueToken(user, "device-1")
	require.NoError(t, err)
	second, err := svc.IssueToken(user, "device-2")
	require.NoError(t, err)

	// 先校验一次，确保令牌进了缓存
	_, err = svc.VerifyToken(first.Token)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(first.Token))

	// 已撤销的令牌永久失效，缓存条目同步清除
	_, err = svc.VerifyToken(first.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// 另一个令牌不受影响
	_, err = svc.VerifyToken(second.Token)
	assert.NoError(t, err)

	// 重复撤销幂等
	assert.NoError(t, svc.RevokeToken(first.Token))
}

func TestRevokeTokenStaleWriteback(t *testing.T) {
	svc, _, tokens := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	result, err := svc.IssueToken(user, "test")
	require.NoError(t, err)
	hash := HashToken(result.Token)

	// 并发场景：另一个校验在撤销之前读到了存储里的行
	stale, err := tokens.FindByHash(hash)
	require.NoError(t, err)
	require.NotNil(t, stale)

	require.NoError(t, svc.RevokeToken(result.Token))
	gone, err := tokens.FindByHash(hash)
	require.NoError(t, err)
	require.Nil(t, gone, "存储侧的行应已删除")

	// 旧行在撤销清缓存之后才被写回，撤销仍须生效
	svc.cache.Set(hash, stale)
	tokens.tokens[hash] = stale

	_, err = svc.VerifyToken(result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRevokeTokenByID(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)
	other, err := svc.Register("李四", "li@example.com", "password456")
	require.NoError(t, err)

	result, err := svc.IssueToken(user, "device")
	require.NoError(t, err)

	list, err := svc.ListTokens(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// 其他用户无法撤销不属于自己的令牌
	require.NoError(t, svc.RevokeTokenByID(other.ID, list[0].ID))
	_, err = svc.VerifyToken(result.Token)
	assert.NoError(t, err)

	// 本人撤销后令牌失效
	require.NoError(t, svc.RevokeTokenByID(user.ID, list[0].ID))
	_, err = svc.VerifyToken(result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRevokeAllTokens(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	first, err := svc.IssueToken(user, "device-1")
	require.NoError(t, err)
	second, err := svc.IssueToken(user, "device-2")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllTokens(user.ID))

	_, err = svc.VerifyToken(first.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.VerifyToken(second.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	list, err := svc.ListTokens(user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 0)

	_, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register("李四", "zhang@example.com", "password456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestMarkEmailVerifiedIdempotent(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, svc.IsEmailVerified(user))

	already, err := svc.MarkEmailVerified(user.ID)
	require.NoError(t, err)
	assert.False(t, already)

	verified, err := users.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, verified.EmailVerifiedAt)
	firstStamp := *verified.EmailVerifiedAt

	// 重复标记返回已验证，时间戳保持首次的值
	already, err = svc.MarkEmailVerified(user.ID)
	require.NoError(t, err)
	assert.True(t, already)

	again, err := users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *again.EmailVerifiedAt)
}

func TestVerificationTokenRoundTrip(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 0)

	user, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	tokenString, err := svc.VerificationToken(user)
	require.NoError(t, err)

	userID, err := svc.ConfirmVerificationToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// 篡改或伪造的令牌一律拒绝
	_, err = svc.ConfirmVerificationToken(tokenString + "x")
	assert.ErrorIs(t, err, ErrInvalidLinkToken)
	_, err = svc.ConfirmVerificationToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidLinkToken)
}

func TestConfirmPassword(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 0)

	created, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)
	user, err := users.FindByID(created.ID)
	require.NoError(t, err)

	before := time.Now()
	confirmedAt, err := svc.ConfirmPassword(user, "password123")
	require.NoError(t, err)
	assert.False(t, confirmedAt.Before(before))

	_, err = svc.ConfirmPassword(user, "wrong-password")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestChangePassword(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 0)

	created, err := svc.Register("张三", "zhang@example.com", "old-password")
	require.NoError(t, err)
	user, err := users.FindByID(created.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(user, "wrong", "new-password"), ErrPasswordMismatch)
	require.NoError(t, svc.ChangePassword(user, "old-password", "new-password"))

	_, err = svc.Login("zhang@example.com", "old-password", "test")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("zhang@example.com", "new-password", "test")
	assert.NoError(t, err)
}

func TestLoginWithGoogle(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 0)

	// 1. 全新用户：创建账号且邮箱直接标记为已验证
	result, err := svc.LoginWithGoogle("google-1", "new@example.com", "新用户", "test")
	require.NoError(t, err)
	created, err := users.FindByEmail("new@example.com")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotNil(t, created.EmailVerifiedAt)
	assert.Equal(t, created.ID, result.User.ID)

	// 2. 再次登录：复用同一账号
	again, err := svc.LoginWithGoogle("google-1", "new@example.com", "新用户", "test")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.User.ID)

	// 3. 已有密码账号同邮箱：自动绑定
	existing, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)
	linked, err := svc.LoginWithGoogle("google-2", "zhang@example.com", "张三", "test")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.User.ID)

	reloaded, err := users.FindByID(existing.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.GoogleID)
	assert.Equal(t, "google-2", *reloaded.GoogleID)
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 30*24*time.Hour)

	_, err := svc.Register("张三", "zhang@example.com", "password123")
	require.NoError(t, err)

	result, err := svc.Login("zhang@example.com", "password123", "e2e")
	require.NoError(t, err)

	user, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "zhang@example.com", user.Email)

	require.NoError(t, svc.RevokeToken(result.Token))

	_, err = svc.VerifyToken(result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
