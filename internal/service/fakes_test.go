package service

import (
	"sync"
	"time"

	"github.com/user/streambox/internal/model"
)

// fakeUserStore 内存用户存储，供服务层测试使用
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: make(map[int]*model.User)}
}

func (s *fakeUserStore) Create(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextID
	s.nextID++
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) FindByEmail(email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindByID(id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) FindByGoogleID(googleID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) MarkEmailVerified(userID int, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if ok && u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = &verifiedAt
	}
	return nil
}

func (s *fakeUserStore) LinkGoogleID(userID int, googleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.GoogleID = &googleID
	}
	return nil
}

func (s *fakeUserStore) UpdatePasswordHash(userID int, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.PasswordHash = hash
	}
	return nil
}

// fakeTokenStore 内存令牌存储
type fakeTokenStore struct {
	mu     sync.Mutex
	nextID int
	tokens map[string]*model.AccessToken // 键是令牌哈希
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{nextID: 1, tokens: make(map[string]*model.AccessToken)}
}

func (s *fakeTokenStore) Create(token *model.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.ID = s.nextID
	s.nextID++
	clone := *token
	s.tokens[token.TokenHash] = &clone
	return nil
}

func (s *fakeTokenStore) FindByHash(hash string) (*model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[hash]
	if !ok {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (s *fakeTokenStore) FindByID(userID, tokenID int) (*model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.ID == tokenID && t.UserID == userID {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *fakeTokenStore) DeleteByHash(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, hash)
	return nil
}

func (s *fakeTokenStore) DeleteByUser(userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, hash)
		}
	}
	return nil
}

func (s *fakeTokenStore) ListByUser(userID int) ([]*model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*model.AccessToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			clone := *t
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *fakeTokenStore) TouchLastUsed(tokenID int, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.ID == tokenID {
			t.LastUsedAt = &usedAt
		}
	}
	return nil
}
