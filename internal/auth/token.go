package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer    = "unpatched-server"
	tokenAudience  = "unpatched-server-users"
	tokenTTL       = 30 * 24 * time.Hour
	cookieTTL      = 365 * 24 * time.Hour
	cookieName     = "unpatched_token"
	signingKeyLen  = 64
	signingKeyFile = "signing.key"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// LoadOrCreateSigningKey reuses the 64-char random alphanumeric secret
// persisted at <dir>/signing.key, or generates and writes one on first
// start. If the file exists but cannot be read, a
// fresh key is generated and a warning is the caller's responsibility —
// LoadOrCreateSigningKey returns the regenerated key and a non-nil
// readErr so the caller can log it.
func LoadOrCreateSigningKey(dir string) (key string, readErr error) {
	path := filepath.Join(dir, signingKeyFile)

	raw, err := os.ReadFile(path)
	if err == nil && len(strings.TrimSpace(string(raw))) == signingKeyLen {
		return strings.TrimSpace(string(raw)), nil
	}
	if err != nil && !os.IsNotExist(err) {
		readErr = fmt.Errorf("read signing key: %w", err)
	}

	generated, genErr := generateAlphanumeric(signingKeyLen)
	if genErr != nil {
		return "", fmt.Errorf("generate signing key: %w", genErr)
	}

	if writeErr := os.WriteFile(path, []byte(generated), 0o600); writeErr != nil {
		return generated, fmt.Errorf("persist signing key: %w", writeErr)
	}
	return generated, readErr
}

func generateAlphanumeric(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphanumeric[int(b)%len(alphanumeric)]
	}
	return string(out), nil
}

// TokenIssuer signs and verifies operator bearer tokens.
type TokenIssuer struct {
	key []byte
}

func NewTokenIssuer(key string) *TokenIssuer {
	return &TokenIssuer{key: []byte(key)}
}

// Issue signs an operator session token with the registered claim set.
func (t *TokenIssuer) Issue(email string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   email,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenCreation, err)
	}
	return signed, nil
}

// Verify parses and validates a raw token, returning its subject (email).
func (t *TokenIssuer) Verify(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.key, nil
	}, jwt.WithAudience(tokenAudience), jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

// SetCookie attaches the token as a Secure, HttpOnly, SameSite=Strict
// cookie rooted at "/" with a one-year max-age.
func SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookieTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the operator's session cookie immediately, for
// the GET /logout endpoint.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ExtractToken prefers the Authorization: Bearer header, falling back
// to the unpatched_token cookie.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
