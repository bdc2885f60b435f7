package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/cookie"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/response"
)

type envelope struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	Data         json.RawMessage        `json:"data"`
	ErrorSources []response.ErrorSource `json:"errorSources"`
}

func newAuthRouter(p *fakeProvider, u *fakeUsers, s *fakeSessions) http.Handler {
	lg := zap.NewNop().Sugar()
	cw := cookie.NewWriter(cookie.MaxAges{Access: 24 * time.Hour, Refresh: 7 * 24 * time.Hour, Session: 24 * time.Hour})
	h := NewHandler(newTestService(p, u, s), cw, response.NewErrorWriter(lg, false), lg)
	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Post("/auth/refresh-token", h.RefreshToken)
	return r
}

func do(t *testing.T, h http.Handler, path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestRegisterHandler_SetsCookies(t *testing.T) {
	p := &fakeProvider{signUp: &identity.Result{Token: "sess-token", User: activeUser()}}
	rec, env := do(t, newAuthRouter(p, &fakeUsers{}, &fakeSessions{}), "/auth/register",
		`{"name":"Ann Lee","email":"ann@example.com","password":"Str0ng!Pass"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully", env.Message)

	var data Result
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "sess-token", data.Token)
	assert.NotEmpty(t, data.AccessToken)
	assert.NotEmpty(t, data.RefreshToken)
	assert.NotContains(t, string(env.Data), "password")

	cs := cookiesByName(rec)
	require.Len(t, cs, 3)
	for _, name := range []string{cookie.AccessTokenName, cookie.RefreshTokenName, cookie.SessionTokenName} {
		c, ok := cs[name]
		require.True(t, ok, name)
		assert.True(t, c.HttpOnly, name)
		assert.True(t, c.Secure, name)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite, name)
		assert.Equal(t, "/", c.Path, name)
	}
	assert.Equal(t, data.AccessToken, cs[cookie.AccessTokenName].Value)
	assert.Equal(t, "sess-token", cs[cookie.SessionTokenName].Value)
	assert.Equal(t, 86400, cs[cookie.AccessTokenName].MaxAge)
	assert.Equal(t, 7*86400, cs[cookie.RefreshTokenName].MaxAge)
}

func TestRegisterHandler_Validation(t *testing.T) {
	rec, env := do(t, newAuthRouter(&fakeProvider{}, &fakeUsers{}, &fakeSessions{}), "/auth/register",
		`{"name":"A","email":"not-an-email","password":"weak"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation Error", env.Message)
	paths := make([]string, 0, len(env.ErrorSources))
	for _, s := range env.ErrorSources {
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []string{"email", "name", "password"}, paths)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRegisterHandler_MalformedBody(t *testing.T) {
	rec, env := do(t, newAuthRouter(&fakeProvider{}, &fakeUsers{}, &fakeSessions{}), "/auth/register", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", env.Message)
}

func TestRegisterHandler_OversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", response.MaxBodyBytes) + `"}`
	rec, env := do(t, newAuthRouter(&fakeProvider{}, &fakeUsers{}, &fakeSessions{}), "/auth/register", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large", env.Message)
}

func TestLoginHandler(t *testing.T) {
	p := &fakeProvider{signIn: &identity.Result{Token: "sess", User: activeUser()}}
	rec, env := do(t, newAuthRouter(p, &fakeUsers{}, &fakeSessions{}), "/auth/login",
		`{"email":"ann@example.com","password":"Str0ng!Pass"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User logged in successfully", env.Message)
	assert.Len(t, cookiesByName(rec), 3)
}

func TestLoginHandler_BlockedUser(t *testing.T) {
	u := activeUser()
	u.Status = entity.StatusBlocked
	sessions := &fakeSessions{}
	p := &fakeProvider{signIn: &identity.Result{Token: "sess", User: u}}
	rec, env := do(t, newAuthRouter(p, &fakeUsers{}, sessions), "/auth/login",
		`{"email":"ann@example.com","password":"Str0ng!Pass"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "User is blocked", env.Message)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, []string{"sess"}, sessions.deleted)
}

func TestLogoutHandler(t *testing.T) {
	sessions := &fakeSessions{}
	rec, env := do(t, newAuthRouter(&fakeProvider{}, &fakeUsers{}, sessions), "/auth/logout", "",
		&http.Cookie{Name: cookie.SessionTokenName, Value: "sess"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User logged out successfully", env.Message)
	assert.Equal(t, "null", string(env.Data))
	assert.Equal(t, []string{"sess"}, sessions.deleted)

	cs := cookiesByName(rec)
	require.Len(t, cs, 3)
	for _, c := range cs {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestLogoutHandler_NoCookie(t *testing.T) {
	rec, env := do(t, newAuthRouter(&fakeProvider{}, &fakeUsers{}, &fakeSessions{}), "/auth/logout", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Session token is required", env.Message)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRefreshTokenHandler(t *testing.T) {
	u := activeUser()
	users := &fakeUsers{byID: map[string]*entity.User{"u1": u}}
	refresh, err := testIssuer().RefreshToken(token.ClaimsFromUser(u))
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		rec, env := do(t, newAuthRouter(&fakeProvider{}, users, &fakeSessions{}), "/auth/refresh-token", "",
			&http.Cookie{Name: cookie.RefreshTokenName, Value: refresh})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Access token refreshed successfully", env.Message)
		cs := cookiesByName(rec)
		require.Len(t, cs, 1)
		assert.NotEmpty(t, cs[cookie.AccessTokenName].Value)
	})

	t.Run("body", func(t *testing.T) {
		rec, _ := do(t, newAuthRouter(&fakeProvider{}, users, &fakeSessions{}), "/auth/refresh-token",
			`{"refreshToken":"`+refresh+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cookie wins over body", func(t *testing.T) {
		rec, _ := do(t, newAuthRouter(&fakeProvider{}, users, &fakeSessions{}), "/auth/refresh-token",
			`{"refreshToken":"garbage"}`, &http.Cookie{Name: cookie.RefreshTokenName, Value: refresh})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec, env := do(t, newAuthRouter(&fakeProvider{}, users, &fakeSessions{}), "/auth/refresh-token", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Refresh token is required", env.Message)
	})
}
