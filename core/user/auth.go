package user

import (
	"context"
	"crypto/subtle"

	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
)

// Verifier checks a username/password pair. It returns ErrInvalidCredentials on mismatch
// without telling which of the two was wrong.
type Verifier interface {
	Verify(ctx context.Context, username, password string) error
}

// PlaceholderVerifier accepts any pair where the password equals the username.
// It stands in for a real credential store and must not be used in production.
type PlaceholderVerifier struct{}

var _ Verifier = PlaceholderVerifier{}

func (PlaceholderVerifier) Verify(_ context.Context, username, password string) error {
	if subtle.ConstantTimeCompare([]byte(username), []byte(password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// BcryptVerifier compares the password against the bcrypt hash of the stored profile.
type BcryptVerifier struct {
	repo Repository
}

var _ Verifier = (*BcryptVerifier)(nil)

func NewBcryptVerifier(repo Repository) *BcryptVerifier {
	return &BcryptVerifier{repo: repo}
}

func (v *BcryptVerifier) Verify(ctx context.Context, username, password string) error {
	p, err := v.repo.LookupProfile(ctx, username)
	if err != nil {
		return errors.Wrap(err, "looking up profile")
	}
	if p == nil || p.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err = p.CheckPassword(password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// NewVerifier picks the Verifier named by auth.verifier.
func NewVerifier(conf *core.Config, repo Repository) Verifier {
	if conf.Auth.Verifier == "bcrypt" {
		return NewBcryptVerifier(repo)
	}
	return PlaceholderVerifier{}
}
