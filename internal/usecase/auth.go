package usecase

import (
	"context"
	"net/mail"
	"time"

	"github.com/apimeister/unpatched-server/internal/auth"
	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/metrics"
	"github.com/apimeister/unpatched-server/internal/repository"
)

// AuthUsecase implements the operator login procedure.
type AuthUsecase struct {
	users     repository.UserRepository
	blacklist repository.BlacklistRepository
	tokens    *auth.TokenIssuer
	now       func() time.Time
}

func NewAuthUsecase(users repository.UserRepository, blacklist repository.BlacklistRepository, tokens *auth.TokenIssuer) *AuthUsecase {
	return &AuthUsecase{users: users, blacklist: blacklist, tokens: tokens, now: time.Now}
}

// Login runs one login attempt from addr through the blacklist check,
// field validation, and credential verification.
func (u *AuthUsecase) Login(ctx context.Context, addr, clientID, clientSecret string) (string, error) {
	now := u.now().UTC()

	item, err := u.blacklist.GetByIP(ctx, addr)
	if err != nil {
		return "", err
	}
	if item != nil {
		if item.IsBlocked(now) {
			return "", domain.ErrWrongCredentials
		}
		if item.BlockedUntil != nil && !item.BlockedUntil.After(now) {
			if err := u.blacklist.Delete(ctx, addr); err != nil {
				return "", err
			}
		}
	}

	if clientID == "" || clientSecret == "" {
		return "", domain.ErrMissingCredentials
	}
	if _, err := mail.ParseAddress(clientID); err != nil {
		return "", domain.ErrInvalidEmail
	}

	user, lookupErr := u.users.GetByEmail(ctx, clientID)
	if lookupErr != nil || !auth.VerifyPassword(clientSecret, user.Password) {
		metrics.LoginFailuresTotal.Inc()
		if _, err := u.blacklist.RecordFailure(ctx, addr, now); err != nil {
			return "", err
		}
		return "", domain.ErrWrongCredentials
	}

	return u.tokens.Issue(user.Email)
}

// Verify validates a raw bearer/cookie token and returns the subject email.
func (u *AuthUsecase) Verify(raw string) (string, error) {
	return u.tokens.Verify(raw)
}
