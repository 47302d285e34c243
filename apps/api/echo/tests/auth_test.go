package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/session"
	"github.com/trezcool/scaffold/core/user"
	"github.com/trezcool/scaffold/tests"
)

func TestLoginPage(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/login?redirect=%2Fadmin%2Fusers", nil)
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="username"`)
	assert.Contains(t, rec.Body.String(), `name="redirectUrl" value="/admin/users"`)

	// already signed in
	cookies := login(t, app, "pparker", "pparker")
	req, rec = newRequest(http.MethodGet, "/login?redirect=%2Faccount", cookies)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/account", rec.Header().Get("Location"))
}

func TestLogin(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name         string
		form         url.Values
		wantCode     int
		wantLocation string
		wantBody     string
	}{
		{
			name:         "success",
			form:         url.Values{"username": {"pparker"}, "password": {"pparker"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name:         "success with redirect",
			form:         url.Values{"username": {" pparker "}, "password": {"pparker"}, "redirectUrl": {"/account?tab=1"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/account?tab=1",
		},
		{
			name:         "absolute redirect",
			form:         url.Values{"username": {"pparker"}, "password": {"pparker"}, "redirectUrl": {"https://evil.test/"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name:         "scheme-relative redirect",
			form:         url.Values{"username": {"pparker"}, "password": {"pparker"}, "redirectUrl": {"//evil.test"}},
			wantCode:     http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name:     "wrong password",
			form:     url.Values{"username": {"pparker"}, "password": {"mjwatson"}},
			wantCode: http.StatusOK,
			wantBody: user.ErrInvalidCredentials.Error(),
		},
		{
			name:     "unknown user",
			form:     url.Values{"username": {"gstacy"}, "password": {"gstacy"}},
			wantCode: http.StatusOK,
			wantBody: user.ErrInvalidCredentials.Error(),
		},
		{
			name:     "blank password",
			form:     url.Values{"username": {"pparker"}},
			wantCode: http.StatusOK,
			wantBody: "password: this field is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newFormRequest(http.MethodPost, "/login", nil, tt.form)
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
				assert.NotNil(t, sessionCookie(rec))
			} else {
				assert.Nil(t, sessionCookie(rec))
				assert.Contains(t, rec.Body.String(), tt.wantBody)
				assert.Contains(t, rec.Body.String(), `value="`+core.CleanString(tt.form.Get("username"))+`"`)
			}
		})
	}
}

func TestLogin_Bcrypt(t *testing.T) {
	app := setup(t, func(conf *core.Config) { conf.Auth.Verifier = "bcrypt" })
	testutil.CreateProfile(t, app.repo, "gstacy", "Sup3r-Secret!", user.RoleUser)

	req, rec := newFormRequest(http.MethodPost, "/login", nil, url.Values{"username": {"gstacy"}, "password": {"gstacy"}})
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ErrInvalidCredentials.Error())

	cookies := login(t, app, "gstacy", "Sup3r-Secret!")
	req, rec = newRequest(http.MethodGet, "/api/me", cookies)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout(t *testing.T) {
	app := setup(t)
	cookies := login(t, app, "pparker", "pparker")

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req, rec := newRequest(method, "/logout", cookies)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.True(t, c.MaxAge < 0, "cookie must be cleared")
	}
}

func TestAPILogin(t *testing.T) {
	app := setup(t)

	body := marchallObj(t, map[string]string{"username": "mjwatson", "password": "mjwatson"})
	req, rec := newRequest(http.MethodPost, "/api/login", nil, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var usr user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
	assert.Equal(t, "mjwatson", usr.Username)
	assert.Equal(t, []string{"user"}, usr.Roles)
	assert.NotZero(t, usr.SessionTimestamp)
	require.NotNil(t, sessionCookie(rec))

	runHTTPTests(t, app, []httpTest{
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/api/login",
			body:     marchallObj(t, map[string]string{"username": "mjwatson", "password": "nope"}),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: user.ErrInvalidCredentials.Error()}),
		},
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     "/api/login",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
	})

	req, rec = newRequest(http.MethodPost, "/api/logout", []*http.Cookie{sessionCookie(rec)})
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSession(t *testing.T) {
	for _, store := range []string{"securecookie", "jwt"} {
		t.Run(store, func(t *testing.T) {
			app := setup(t, func(conf *core.Config) { conf.Server.CookieStore = store })
			cookies := login(t, app, "pparker", "pparker")

			req, rec := newRequest(http.MethodGet, "/api/me", cookies)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var usr user.User
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
			assert.Equal(t, "pparker", usr.Username)
			assert.Equal(t, []string{"reporter", "superhero"}, usr.Roles)
			assert.Equal(t, "Spider-Man", usr.Extra["alias"])
			assert.NotZero(t, usr.SessionTimestamp)

			tampered := []*http.Cookie{{Name: cookieName, Value: cookies[0].Value + "x"}}
			req, rec = newRequest(http.MethodGet, "/api/me", tampered)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidSession)}, rec)
			c := sessionCookie(rec)
			require.NotNil(t, c)
			assert.True(t, c.MaxAge < 0, "an untrusted cookie must be cleared")
		})
	}
}

func TestSession_Expired(t *testing.T) {
	for _, store := range []string{"securecookie", "jwt"} {
		t.Run(store, func(t *testing.T) {
			app := setup(t, func(conf *core.Config) { conf.Server.CookieStore = store })

			user.NowFunc = func() time.Time { return time.Now().Add(-app.conf.Session.Timeout - time.Minute) }
			cookies := login(t, app, "pparker", "pparker")
			user.NowFunc = time.Now

			req, rec := newRequest(http.MethodGet, "/api/me", cookies)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidSession)}, rec)

			req, rec = newRequest(http.MethodGet, "/account", cookies)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login?redirect=%2Faccount", rec.Header().Get("Location"))
		})
	}
}

// sessions stay valid up to the configured timeout, whatever second they started in
func TestSession_NotYetExpired(t *testing.T) {
	for _, store := range []string{"securecookie", "jwt"} {
		for _, timeout := range []time.Duration{24 * time.Hour, 1500 * time.Millisecond} {
			t.Run(store+" "+timeout.String(), func(t *testing.T) {
				app := setup(t, func(conf *core.Config) {
					conf.Server.CookieStore = store
					conf.Session.Timeout = timeout
				})
				loggedInAt := time.Now().Truncate(time.Second).Add(900 * time.Millisecond)

				user.NowFunc = func() time.Time { return loggedInAt }
				cookies := login(t, app, "pparker", "pparker")
				user.NowFunc = time.Now

				session.NowFunc = func() time.Time { return loggedInAt.Add(timeout - 400*time.Millisecond) }
				t.Cleanup(func() { session.NowFunc = time.Now })

				req, rec := newRequest(http.MethodGet, "/api/me", cookies)
				app.ServeHTTP(rec, req)
				assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

				session.NowFunc = func() time.Time { return loggedInAt.Add(timeout + time.Millisecond) }
				req, rec = newRequest(http.MethodGet, "/api/me", cookies)
				app.ServeHTTP(rec, req)
				checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidSession)}, rec)
			})
		}
	}
}

func TestSession_TokenVersion(t *testing.T) {
	app := setup(t)
	cookies := login(t, app, "pparker", "pparker")

	bumped := setup(t, func(conf *core.Config) { conf.Session.TokenVersion++ })
	req, rec := newRequest(http.MethodGet, "/api/me", cookies)
	bumped.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidSession)}, rec)

	req, rec = newRequest(http.MethodGet, "/api/me", cookies)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
