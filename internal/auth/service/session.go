package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"designmate/internal/common/middleware"
)

// ============================================================
// Session Manager
// ============================================================

const issuer = "designmate-auth"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// SessionManager выдаёт подписанные HS256 токены и помнит отозванные
// (logout) до истечения их срока.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (m *SessionManager) Issue(userID string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Resolve возвращает ID пользователя для действующего токена.
func (m *SessionManager) Resolve(token string) (string, bool) {
	claims, err := m.parse(token)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

// Verify реализует middleware.Verifier.
func (m *SessionManager) Verify(_ context.Context, token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", middleware.ErrUnauthenticated, err)
	}
	return claims.Subject, nil
}

// Revoke делает токен недействительным до истечения его срока.
func (m *SessionManager) Revoke(token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

// Cleanup удаляет отозванные токены, срок которых уже истёк.
func (m *SessionManager) Cleanup() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for jti, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, jti)
			n++
		}
	}
	return n
}

func (m *SessionManager) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	m.mu.Lock()
	_, revoked := m.revoked[claims.ID]
	m.mu.Unlock()
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}
