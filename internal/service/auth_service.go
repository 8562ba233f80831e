package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/store"
)

// ErrInvalidCredentials rejects a login attempt.
var ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")

const sessionKeyPrefix = "session:"

// AuthService valida las credenciales del administrador y gestiona las
// sesiones respaldadas por el KV store. Credentials come from the
// environment; there is a single administrative account.
type AuthService struct {
	userHash     string
	passwordHash string
	sessions     store.KV
	ttl          time.Duration
	logger       *zap.Logger
}

func NewAuthService(adminUser, adminPassword string, sessions store.KV, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		userHash:     sha256Hex(adminUser),
		passwordHash: sha256Hex(adminPassword),
		sessions:     sessions,
		ttl:          ttl,
		logger:       logger,
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Login verifies the credentials and creates a session, returning its token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(sha256Hex(username)), []byte(s.userHash)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(sha256Hex(password)), []byte(s.passwordHash)) == 1
	if !userOK || !passOK {
		s.logger.Warn("Admin login failed", zap.String("username", username))
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.Set(ctx, sessionKeyPrefix+token, "admin", s.ttl); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("Admin login")
	return token, nil
}

// Check reports whether token belongs to a live session.
func (s *AuthService) Check(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, err := s.sessions.Get(ctx, sessionKeyPrefix+token)
	return err == nil
}

// Logout destroys the session. Destroying an unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Del(ctx, sessionKeyPrefix+token)
}
