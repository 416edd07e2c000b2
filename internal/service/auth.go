package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

const (
	apiKeyPrefix = "pbk_"
	// AdminCaller identifies requests authenticated with the admin key.
	AdminCaller = "admin"
)

// AdminAuth checks bearer tokens against the single configured admin key.
// Only the key's hash is kept in memory.
type AdminAuth struct {
	hash []byte
}

// NewAdminAuth creates an AdminAuth for key. An empty key rejects every token.
func NewAdminAuth(key string) *AdminAuth {
	if key == "" {
		return &AdminAuth{}
	}
	return &AdminAuth{hash: hashToken(key)}
}

// ValidateAPIKey returns the caller name for a valid token.
func (a *AdminAuth) ValidateAPIKey(ctx context.Context, token string) (string, error) {
	if len(a.hash) == 0 || token == "" {
		return "", domain.ErrInvalidAPIKey
	}
	if subtle.ConstantTimeCompare(a.hash, hashToken(token)) != 1 {
		return "", domain.ErrInvalidAPIKey
	}
	return AdminCaller, nil
}

// GenerateAPIKey returns a fresh random admin key.
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate API key", err)
	}
	return apiKeyPrefix + hex.EncodeToString(bytes), nil
}

// IsValidAPIToken reports whether token has the shape GenerateAPIKey produces.
func IsValidAPIToken(token string) bool {
	if !strings.HasPrefix(token, apiKeyPrefix) {
		return false
	}
	raw := strings.TrimPrefix(token, apiKeyPrefix)
	if len(raw) != 64 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}

func hashToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
