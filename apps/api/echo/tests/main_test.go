package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	. "github.com/trezcool/scaffold/apps/api/echo"
	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/nav"
	"github.com/trezcool/scaffold/core/session"
	"github.com/trezcool/scaffold/core/user"
	"github.com/trezcool/scaffold/storage/database/dummy"
	"github.com/trezcool/scaffold/tests"
)

const cookieName = "scaffold-session"

var (
	errUnauthenticated = httpErr{Error: "user not authenticated"}
	errInvalidSession  = httpErr{Error: "invalid session"}
	errForbidden       = httpErr{Error: "permission denied"}
)

type testApp struct {
	*Server
	conf *core.Config
	repo user.Repository
}

// setup builds a server over the embedded seed profiles; tweaks adjust the TEST config first.
func setup(t *testing.T, tweaks ...func(conf *core.Config)) *testApp {
	t.Helper()
	conf := testutil.NewConfig(t)
	for _, tweak := range tweaks {
		tweak(conf)
	}

	db, err := dummydb.Open(conf)
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewProfileRepository(db)

	validate, translator := testutil.NewValidator()
	usrSvc := user.NewService(repo, user.NewVerifier(conf, repo), validate)

	menu, err := nav.NewMenu(conf, testutil.NopLogger{})
	if err != nil {
		t.Fatalf("nav.NewMenu() failed: %v", err)
	}

	server, err := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     testutil.NopLogger{},
		UserSvc:    usrSvc,
		Codec:      session.NewCodec(conf, usrSvc),
		Menu:       menu,
		Validate:   validate,
		Translator: translator,
	})
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	return &testApp{Server: server, conf: conf, repo: repo}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	cookies  []*http.Cookie
	wantCode int
	wantData []byte
}

func newRequest(method, path string, cookies []*http.Cookie, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req, httptest.NewRecorder()
}

func newFormRequest(method, path string, cookies []*http.Cookie, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req, httptest.NewRecorder()
}

// login signs in through the login form and returns the session cookie.
func login(t *testing.T, app http.Handler, uname, pwd string) []*http.Cookie {
	t.Helper()
	req, rec := newFormRequest(http.MethodPost, "/login", nil, url.Values{"username": {uname}, "password": {pwd}})
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login(%s) failed! code = %v; body %s", uname, rec.Code, rec.Body.String())
	}
	c := sessionCookie(rec)
	if c == nil {
		t.Fatalf("login(%s) failed! no session cookie", uname)
	}
	return []*http.Cookie{c}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.cookies, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
