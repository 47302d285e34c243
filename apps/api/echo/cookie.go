package echoapi

import (
	"crypto/sha256"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/session"
)

const sessionValueKey = "token"

// cookieSealer stores a session.Token in a tamper-proof cookie.
// Read reports ok=false when the request carries no session cookie at all.
type cookieSealer interface {
	Read(r *http.Request) (tok session.Token, ok bool, err error)
	Write(w http.ResponseWriter, r *http.Request, tok session.Token) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

func newCookieSealer(conf *core.Config) (cookieSealer, error) {
	switch conf.Server.CookieStore {
	case "jwt":
		key, err := deriveKey(conf.SecretKey, "session signing", 32)
		if err != nil {
			return nil, err
		}
		return &jwtSealer{conf: conf, key: key}, nil
	default:
		return newStoreSealer(conf)
	}
}

func deriveKey(secret, purpose string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		return nil, errors.Wrapf(err, "deriving %s key", purpose)
	}
	return key, nil
}

// cookieMaxAge rounds the session timeout up to whole seconds.
// The cookie must outlive the session; session.Codec decides when it expires.
func cookieMaxAge(conf *core.Config) int {
	return int((conf.Session.Timeout + time.Second - 1) / time.Second)
}

// storeSealer keeps the token in a gorilla/sessions cookie, signed and encrypted with securecookie.
type storeSealer struct {
	name  string
	store *sessions.CookieStore
}

func newStoreSealer(conf *core.Config) (*storeSealer, error) {
	hashKey, err := deriveKey(conf.SecretKey, "session authentication", 32)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(conf.SecretKey, "session encryption", 32)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.MaxAge(cookieMaxAge(conf))
	store.Options.HttpOnly = true
	store.Options.Secure = conf.Server.CookieSecure
	store.Options.SameSite = http.SameSiteLaxMode
	return &storeSealer{name: conf.Server.CookieName, store: store}, nil
}

func (st *storeSealer) Read(r *http.Request) (session.Token, bool, error) {
	if _, err := r.Cookie(st.name); err != nil {
		return session.Token{}, false, nil
	}
	sess, err := st.store.New(r, st.name)
	if err != nil {
		return session.Token{}, true, errors.Wrap(err, "decoding session cookie")
	}
	raw, _ := sess.Values[sessionValueKey].(string)

	var tok session.Token
	if err = json.Unmarshal([]byte(raw), &tok); err != nil {
		return session.Token{}, true, errors.Wrap(err, "unmarshalling session token")
	}
	return tok, true, nil
}

func (st *storeSealer) Write(w http.ResponseWriter, r *http.Request, tok session.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "marshalling session token")
	}
	sess := st.newSession()
	sess.Values[sessionValueKey] = string(data)
	return errors.Wrap(st.store.Save(r, w, sess), "saving session cookie")
}

func (st *storeSealer) Clear(w http.ResponseWriter, r *http.Request) error {
	sess := st.newSession()
	sess.Options.MaxAge = -1
	return errors.Wrap(st.store.Save(r, w, sess), "clearing session cookie")
}

func (st *storeSealer) newSession() *sessions.Session {
	sess := sessions.NewSession(st.store, st.name)
	opts := *st.store.Options
	sess.Options = &opts
	return sess
}

// jwtSealer keeps the token as the claims of an HS256 JWT.
type jwtSealer struct {
	conf *core.Config
	key  []byte
}

type sessionClaims struct {
	session.Token
	jwt.RegisteredClaims
}

func (js *jwtSealer) Read(r *http.Request) (session.Token, bool, error) {
	c, err := r.Cookie(js.conf.Server.CookieName)
	if err != nil || c.Value == "" {
		return session.Token{}, false, nil
	}

	claims := new(sessionClaims)
	_, err = jwt.ParseWithClaims(
		c.Value,
		claims,
		func(*jwt.Token) (interface{}, error) { return js.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(js.conf.AppName),
		jwt.WithTimeFunc(session.NowFunc),
		jwt.WithLeeway(time.Second), // exp is truncated to seconds
	)
	if err != nil {
		return session.Token{}, true, errors.Wrap(err, "parsing session jwt")
	}
	return claims.Token, true, nil
}

func (js *jwtSealer) Write(w http.ResponseWriter, _ *http.Request, tok session.Token) error {
	issuedAt := time.Unix(0, tok.SessionTimestamp*int64(time.Millisecond))
	claims := sessionClaims{
		Token: tok,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    js.conf.AppName,
			Subject:   tok.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(js.conf.Session.Timeout)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(js.key)
	if err != nil {
		return errors.Wrap(err, "signing session jwt")
	}
	http.SetCookie(w, js.cookie(signed, cookieMaxAge(js.conf)))
	return nil
}

func (js *jwtSealer) Clear(w http.ResponseWriter, _ *http.Request) error {
	http.SetCookie(w, js.cookie("", -1))
	return nil
}

func (js *jwtSealer) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     js.conf.Server.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   js.conf.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
