package client

import (
	"sync"
	"time"

	"room_rental/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// AuthStore keeps the bearer token of the signed-in user. The claims are read
// without verifying the signature; the server remains the authority.
type AuthStore struct {
	mu     sync.RWMutex
	token  string
	claims *utils.Claims
	now    func() time.Time
}

func NewAuthStore() *AuthStore {
	return &AuthStore{now: time.Now}
}

// Set stores token after decoding its claims.
func (s *AuthStore) Set(token string) error {
	claims := &utils.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = claims
	return nil
}

// Token returns the stored token, or "" when none is stored or it expired.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.expiredLocked() {
		return ""
	}
	return s.token
}

func (s *AuthStore) UserID() (uint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return 0, false
	}
	return s.claims.UserID, true
}

// Role is the role at issue time. It goes stale when an admin changes it.
func (s *AuthStore) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return ""
	}
	return s.claims.Role
}

func (s *AuthStore) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiredLocked()
}

func (s *AuthStore) expiredLocked() bool {
	if s.claims == nil || s.claims.ExpiresAt == nil {
		return true
	}
	return !s.now().Before(s.claims.ExpiresAt.Time)
}

func (s *AuthStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.claims = nil
}
