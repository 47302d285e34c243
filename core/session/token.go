// Package session turns an authenticated user.User into the small token stored in the
// session cookie and validates it back on every request.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
)

var NowFunc = time.Now // mockable

type (
	// Token is the serialized form of a User placed in the session cookie.
	Token struct {
		Username            string                 `json:"username,omitempty"`
		ServiceTokens       map[string]interface{} `json:"serviceTokens,omitempty"`
		SessionTokenVersion int                    `json:"sessionTokenVersion,omitempty"`
		SessionTimestamp    int64                  `json:"sessionTimestamp,omitempty"` // epoch ms
	}

	// Loader re-hydrates a User out of fresh profile data (user.Service does).
	Loader interface {
		InitUser(ctx context.Context, username string) (user.User, error)
	}

	Codec struct {
		Timeout time.Duration
		Version int
		Users   Loader
	}
)

func (t Token) IsEmpty() bool {
	return t.Username == "" && t.SessionTimestamp == 0 && t.SessionTokenVersion == 0 && len(t.ServiceTokens) == 0
}

func NewCodec(conf *core.Config, users Loader) *Codec {
	return &Codec{
		Timeout: conf.Session.Timeout,
		Version: conf.Session.TokenVersion,
		Users:   users,
	}
}

func nowMillis() int64 {
	return NowFunc().UnixNano() / int64(time.Millisecond)
}

// Serialize never fails: it returns an empty Token when usr has no username or no positive
// session timestamp. Callers must check Token.IsEmpty.
func (c *Codec) Serialize(usr *user.User) Token {
	if usr == nil || strings.TrimSpace(usr.Username) == "" || usr.SessionTimestamp <= 0 {
		return Token{}
	}
	return Token{
		Username:            usr.Username,
		ServiceTokens:       usr.ServiceTokens(),
		SessionTokenVersion: c.Version,
		SessionTimestamp:    usr.SessionTimestamp,
	}
}

// Deserialize checks, in order, the token shape, its age, its version, then looks up a fresh
// profile. Every failure is an *InvalidSessionError.
func (c *Codec) Deserialize(ctx context.Context, tok Token) (user.User, error) {
	if strings.TrimSpace(tok.Username) == "" || tok.SessionTimestamp <= 0 {
		return user.User{}, NewInvalidSessionError(ReasonMalformed, nil)
	}
	if nowMillis()-tok.SessionTimestamp > c.Timeout.Milliseconds() {
		return user.User{}, NewInvalidSessionError(ReasonExpired, nil)
	}
	if tok.SessionTokenVersion != c.Version {
		return user.User{}, NewInvalidSessionError(ReasonVersionMismatch, nil)
	}

	usr, err := c.Users.InitUser(ctx, tok.Username)
	if err != nil {
		return user.User{}, NewInvalidSessionError(ReasonLookupFailed, err)
	}
	usr.SessionTimestamp = tok.SessionTimestamp
	for svc, val := range tok.ServiceTokens {
		if err = usr.SetServiceToken(svc, val); err != nil {
			return user.User{}, NewInvalidSessionError(ReasonMalformed, err)
		}
	}
	return usr, nil
}

// Remaining is how long a session established at timestamp (epoch ms) stays valid.
func (c *Codec) Remaining(timestamp int64) time.Duration {
	left := c.Timeout - time.Duration(nowMillis()-timestamp)*time.Millisecond
	if left < 0 {
		return 0
	}
	return left
}
