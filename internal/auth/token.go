// Package auth issues and verifies API access tokens for the SPA client.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken covers unknown, malformed and expired tokens alike so the
// response never leaks which case it was.
var ErrInvalidToken = errors.New("invalid access token")

// AccessToken is a stored credential. Only the bcrypt hash of the secret is
// persisted; the plain token is shown once at issue time.
type AccessToken struct {
	ID         int64
	UserID     int64
	Name       string
	SecretHash string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is past its expiry, if it has one.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// Repository persists access tokens.
type Repository interface {
	Create(ctx context.Context, token AccessToken) (int64, error)
	Get(ctx context.Context, id int64) (*AccessToken, error)
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// Service issues and verifies tokens.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Issue creates a token for the user and returns its plain form
// "<id>|<secret>". A zero ttl means the token never expires.
func (s *Service) Issue(ctx context.Context, userID int64, name string, ttl time.Duration) (string, error) {
	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("auth: generate secret: %w", err)
	}
	plain := hex.EncodeToString(secret)

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash secret: %w", err)
	}

	token := AccessToken{
		UserID:     userID,
		Name:       name,
		SecretHash: string(hash),
		CreatedAt:  time.Now(),
	}
	if ttl > 0 {
		expires := token.CreatedAt.Add(ttl)
		token.ExpiresAt = &expires
	}

	id, err := s.repo.Create(ctx, token)
	if err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return fmt.Sprintf("%d|%s", id, plain), nil
}

// Verify resolves a plain token to its owning user.
func (s *Service) Verify(ctx context.Context, plain string) (int64, error) {
	idPart, secret, ok := strings.Cut(plain, "|")
	if !ok {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	token, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if token.Expired(time.Now()) {
		return 0, ErrInvalidToken
	}
	if bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(secret)) != nil {
		return 0, ErrInvalidToken
	}

	_ = s.repo.TouchLastUsed(ctx, id, time.Now())
	return token.UserID, nil
}

// Revoke deletes a token.
func (s *Service) Revoke(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
