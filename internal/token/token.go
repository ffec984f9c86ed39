// Package token issues and verifies the two signed token kinds used by the
// service: long-lived session tokens carrying the user's identity, and
// short-lived password-reset tokens carrying only an email claim. The two
// kinds are signed with distinct secrets so one can never stand in for the
// other. Reset tokens are revocable through the Ledger; session tokens are
// not.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"courier/internal/models"
)

// ErrInvalidToken covers forged, expired, and revoked reset tokens alike.
// Callers must not learn which sub-check failed.
var ErrInvalidToken = errors.New("invalid token")

// ErrUnauthorized is returned for session tokens that fail verification.
var ErrUnauthorized = errors.New("unauthorized")

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type resetClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Config carries the signing material and lifetimes for both token kinds.
type Config struct {
	SessionSecret []byte
	ResetSecret   []byte
	SessionTTL    time.Duration
	ResetTTL      time.Duration
}

// Service signs and verifies tokens. Verification of reset tokens consults
// the revocation ledger.
type Service struct {
	cfg    Config
	ledger *Ledger
}

func NewService(cfg Config, ledger *Ledger) (*Service, error) {
	if len(cfg.SessionSecret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if len(cfg.ResetSecret) == 0 {
		return nil, errors.New("reset secret is required")
	}
	if cfg.SessionTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	return &Service{cfg: cfg, ledger: ledger}, nil
}

// IssueSession signs a session token carrying the user's identity.
func (s *Service) IssueSession(user models.User) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SessionSecret)
}

// VerifySession checks signature and expiry only. Session tokens are not
// revocable, so the ledger is never consulted here.
func (s *Service) VerifySession(rawToken string) (SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		return s.cfg.SessionSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return SessionClaims{}, ErrUnauthorized
	}
	return *claims, nil
}

// IssueReset signs a short-lived reset token carrying only the email claim.
func (s *Service) IssueReset(user models.User) (string, error) {
	claims := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.ResetTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: user.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.ResetSecret)
}

// VerifyReset returns the email claim of a valid, unrevoked reset token.
// Signature failure, expiry, and revocation all collapse into
// ErrInvalidToken; a ledger lookup failure is surfaced as-is.
func (s *Service) VerifyReset(ctx context.Context, rawToken string) (string, error) {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		return s.cfg.ResetSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	revoked, err := s.ledger.IsRevoked(ctx, rawToken)
	if err != nil {
		return "", fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// Revoke marks a reset token as no longer honored.
func (s *Service) Revoke(ctx context.Context, rawToken string) error {
	return s.ledger.Revoke(ctx, rawToken)
}
