// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package auth implements password accounts and opaque bearer sessions
// on top of the pulse store.
//
// Tokens are 32 random bytes, base64url encoded with a "pls_" prefix.
// Only the SHA-256 of a token is stored, so a leaked database does not
// leak usable credentials.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
)

// TokenPrefix marks bearer tokens issued by this service.
const TokenPrefix = "pls_"

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password. The two cases are indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrPasswordTooLong is returned when a password exceeds bcrypt's input
// limit. The limit is in bytes, so multibyte passwords hit it sooner.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// UserStore is the subset of the store used for accounts and sessions.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	CreateSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	GetSessionUser(ctx context.Context, tokenHash string) (*store.User, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *store.User
}

// Service registers users, issues tokens and validates them.
// It implements extensions.AuthProvider.
type Service struct {
	users UserStore
	ttl   time.Duration
	cost  int
	now   func() time.Time
}

var _ extensions.AuthProvider = (*Service)(nil)

// NewService creates a Service. A non-positive ttl defaults to 24h and a
// cost outside bcrypt's range defaults to bcrypt.DefaultCost.
func NewService(users UserStore, ttl time.Duration, cost int) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, ttl: ttl, cost: cost, now: time.Now}
}

// Register creates an account. A duplicate email returns an error
// wrapping store.ErrConflict.
func (s *Service) Register(ctx context.Context, name, email, password string) (*store.User, error) {
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.CreateUser(ctx, name, email, hash)
	if err != nil {
		return nil, err
	}
	slog.Info("User registered", "user_id", u.ID)
	return u, nil
}

// Login checks credentials and issues a new session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.ttl).UTC()
	if err := s.users.CreateSession(ctx, hashToken(token), u.ID, expiresAt); err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Validate resolves a bearer token to the identity of its user.
func (s *Service) Validate(ctx context.Context, token string) (*extensions.AuthInfo, error) {
	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, fmt.Errorf("missing or malformed token: %w", extensions.ErrUnauthorized)
	}
	u, err := s.users.GetSessionUser(ctx, hashToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("unknown or expired session: %w", extensions.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return &extensions.AuthInfo{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Revoke deletes the session behind token.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, hashToken(token))
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
