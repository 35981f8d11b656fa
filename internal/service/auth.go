package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/user/streambox/internal/model"
	"github.com/user/streambox/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUnauthenticated    = errors.New("未登录")
	ErrPasswordMismatch   = errors.New("密码不正确")
	ErrEmailTaken         = errors.New("该邮箱已被注册")
	ErrInvalidLinkToken   = errors.New("链接无效或已过期")
)

// UserStore 用户存储接口
type UserStore interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByID(id int) (*model.User, error)
	FindByGoogleID(googleID string) (*model.User, error)
	MarkEmailVerified(userID int, verifiedAt time.Time) error
	LinkGoogleID(userID int, googleID string) error
	UpdatePasswordHash(userID int, hash string) error
}

// TokenStore 令牌存储接口
type TokenStore interface {
	Create(token *model.AccessToken) error
	FindByHash(hash string) (*model.AccessToken, error)
	FindByID(userID, tokenID int) (*model.AccessToken, error)
	DeleteByHash(hash string) error
	DeleteByUser(userID int) error
	ListByUser(userID int) ([]*model.AccessToken, error)
	TouchLastUsed(tokenID int, usedAt time.Time) error
}

// AuthService 认证服务：凭证校验、令牌签发/撤销、邮箱验证、敏感操作二次确认
type AuthService struct {
	users    UserStore
	tokens   TokenStore
	secret   []byte
	tokenTTL time.Duration
	cache    *utils.TTLCache[*model.AccessToken]
	// 撤销哈希的墓碑集合：并发校验可能在撤销清缓存之后才把旧行写回，
	// 墓碑存活时间必须长于缓存条目，校验时先查墓碑
	revoked *utils.TTLCache[struct{}]
}

const verifyCacheTTL = 5 * time.Minute

// NewAuthService 创建认证服务
// tokenTTL 为 0 表示签发的令牌永不过期
func NewAuthService(users UserStore, tokens TokenStore, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		cache:    utils.NewTTLCache[*model.AccessToken](4096, verifyCacheTTL),
		revoked:  utils.NewTTLCache[struct{}](4096, 2*verifyCacheTTL),
	}
}

// TokenResult 登录结果：明文令牌只在这里出现一次
type TokenResult struct {
	Token string            `json:"token"`
	User  model.UserSummary `json:"user"`
}

// dummyHash 用于邮箱不存在时的等时比较，避免通过响应耗时探测账号
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("streambox-timing-pad"), bcrypt.DefaultCost)

// Login 校验邮箱密码并签发令牌
// 邮箱不存在和密码错误返回同一个错误，防止账号枚举
func (s *AuthService) Login(email, password, device string) (*TokenResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.IssueToken(user, device)
}

// IssueToken 为用户签发新的不透明令牌，存储侧只保留哈希
func (s *AuthService) IssueToken(user *model.User, device string) (*TokenResult, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	plaintext := base64.RawURLEncoding.EncodeToString(raw)

	token := &model.AccessToken{
		UserID:    user.ID,
		Name:      device,
		TokenHash: HashToken(plaintext),
		CreatedAt: time.Now(),
	}
	if s.tokenTTL > 0 {
		expiresAt := time.Now().Add(s.tokenTTL)
		token.ExpiresAt = &expiresAt
	}

	if err := s.tokens.Create(token); err != nil {
		return nil, err
	}

	return &TokenResult{
		Token: plaintext,
		User:  user.Summary(),
	}, nil
}

// VerifyToken 校验令牌并返回对应用户
// 不存在、已撤销、已过期统一返回 ErrUnauthenticated
func (s *AuthService) VerifyToken(plaintext string) (*model.User, error) {
	if plaintext == "" {
		return nil, ErrUnauthenticated
	}

	hash := HashToken(plaintext)
	now := time.Now()

	if _, gone := s.revoked.Get(hash); gone {
		s.cache.Remove(hash)
		return nil, ErrUnauthenticated
	}

	token, cached := s.cache.Get(hash)
	if !cached {
		var err error
		token, err = s.tokens.FindByHash(hash)
		if err != nil {
			return nil, err
		}
		if token == nil {
			return nil, ErrUnauthenticated
		}
		s.cache.Set(hash, token)
	}

	if token.Expired(now) {
		s.cache.Remove(hash)
		return nil, ErrUnauthenticated
	}

	user, err := s.users.FindByID(token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.cache.Remove(hash)
		return nil, ErrUnauthenticated
	}

	// 最近使用时间按分钟粒度回写，避免每个请求都落库
	if token.LastUsedAt == nil || now.Sub(*token.LastUsedAt) > time.Minute {
		token.LastUsedAt = &now
		s.tokens.TouchLastUsed(token.ID, now)
	}

	return user, nil
}

// RevokeToken 撤销当前令牌（幂等：重复撤销不报错）
// 先立墓碑再删行，撤销后的令牌不可能再通过校验
func (s *AuthService) RevokeToken(plaintext string) error {
	if plaintext == "" {
		return nil
	}
	hash := HashToken(plaintext)
	s.tombstone(hash)
	return s.tokens.DeleteByHash(hash)
}

// RevokeTokenByID 撤销用户名下指定令牌（设备管理）
func (s *AuthService) RevokeTokenByID(userID, tokenID int) error {
	token, err := s.tokens.FindByID(userID, tokenID)
	if err != nil {
		return err
	}
	if token == nil {
		return nil
	}
	s.tombstone(token.TokenHash)
	return s.tokens.DeleteByHash(token.TokenHash)
}

// RevokeAllTokens 撤销用户全部令牌（退出所有设备）
func (s *AuthService) RevokeAllTokens(userID int) error {
	tokens, err := s.tokens.ListByUser(userID)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		s.tombstone(t.TokenHash)
	}
	return s.tokens.DeleteByUser(userID)
}

// tombstone 标记哈希已撤销并清掉缓存条目
func (s *AuthService) tombstone(hash string) {
	s.revoked.Set(hash, struct{}{})
	s.cache.Remove(hash)
}

// ListTokens 获取用户的登录设备列表
func (s *AuthService) ListTokens(userID int) ([]*model.AccessToken, error) {
	return s.tokens.ListByUser(userID)
}

// Register 注册新用户
func (s *AuthService) Register(name, email, password string) (*model.User, error) {
	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// LoginWithGoogle 外部身份登录：找到则直接登录，同邮箱自动绑定，否则创建新账号
// OAuth 握手和 profile 校验由上层完成，这里只消费校验后的身份信息
func (s *AuthService) LoginWithGoogle(googleID, email, name, device string) (*TokenResult, error) {
	user, err := s.users.FindByGoogleID(googleID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user, err = s.users.FindByEmail(email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := s.users.LinkGoogleID(user.ID, googleID); err != nil {
				return nil, err
			}
		}
	}

	if user == nil {
		// 外部身份侧邮箱已验证，新账号直接标记
		now := time.Now()
		user = &model.User{
			Name:            name,
			Email:           email,
			GoogleID:        &googleID,
			EmailVerifiedAt: &now,
			CreatedAt:       now,
		}
		if err := s.users.Create(user); err != nil {
			return nil, err
		}
	}

	return s.IssueToken(user, device)
}

// IsEmailVerified 查询邮箱验证状态
func (s *AuthService) IsEmailVerified(user *model.User) bool {
	return user.EmailVerifiedAt != nil
}

// MarkEmailVerified 标记邮箱已验证
// 单向且幂等：已验证用户重复调用返回 alreadyVerified=true，时间戳不变
func (s *AuthService) MarkEmailVerified(userID int) (alreadyVerified bool, err error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUnauthenticated
	}
	if user.EmailVerifiedAt != nil {
		return true, nil
	}
	return false, s.users.MarkEmailVerified(userID, time.Now())
}

// ConfirmPassword 敏感操作前的密码二次确认，成功返回确认时刻
func (s *AuthService) ConfirmPassword(user *model.User, password string) (time.Time, error) {
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return time.Time{}, ErrPasswordMismatch
	}
	return time.Now(), nil
}

// ChangePassword 修改密码（需先通过当前密码校验）
func (s *AuthService) ChangePassword(user *model.User, current, newPassword string) error {
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrPasswordMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(user.ID, string(hash))
}

// verifyClaims 邮箱验证链接的签名声明
type verifyClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

const verifyPurpose = "email-verify"

// VerificationToken 生成带签名的邮箱验证链接令牌（24 小时有效）
func (s *AuthService) VerificationToken(user *model.User) (string, error) {
	claims := &verifyClaims{
		Purpose: verifyPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ConfirmVerificationToken 校验链接令牌并返回用户 ID
func (s *AuthService) ConfirmVerificationToken(tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &verifyClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("错误的签名算法: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, ErrInvalidLinkToken
	}

	claims, ok := token.Claims.(*verifyClaims)
	if !ok || !token.Valid || claims.Purpose != verifyPurpose {
		return 0, ErrInvalidLinkToken
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, ErrInvalidLinkToken
	}
	return userID, nil
}

// HashToken 计算令牌的存储哈希
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
