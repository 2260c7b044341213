package auth

import (
	"context"
	"strings"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
}

// AdminAuthenticator checks the single configured admin account.
type AdminAuthenticator struct {
	email        string
	passwordHash string
	tokens       *TokenManager
}

func NewAdminAuthenticator(email, passwordHash string, tokens *TokenManager) *AdminAuthenticator {
	return &AdminAuthenticator{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		tokens:       tokens,
	}
}

func (a *AdminAuthenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "auth"),
		zap.String("method", "Login"),
	)

	if a.email == "" || a.passwordHash == "" {
		log.Warn("admin login attempted without configured credentials")
		return nil, ErrAdminDisabled
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email != a.email || !CheckPasswordHash(password, a.passwordHash) {
		log.Info("admin login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	token, expires, err := a.tokens.Issue(a.email, RoleAdmin)
	if err != nil {
		log.Error("failed to issue admin token", zap.Error(err))
		return nil, err
	}

	log.Info("admin logged in", zap.String("email", a.email))
	return &LoginResult{Token: token, ExpiresAt: expires, Email: a.email}, nil
}
