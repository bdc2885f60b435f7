// Package cookie writes the three auth cookies: accessToken, refreshToken
// and the identity provider's session token.
package cookie

import (
	"net/http"
	"time"
)

const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
	SessionTokenName = "better-auth.session_token"
)

// Options are copied verbatim onto the Set-Cookie header. MaxAge is in seconds.
type Options struct {
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Path     string
	MaxAge   int
}

// Set attaches a cookie with exactly the given attributes.
func Set(w http.ResponseWriter, name, value string, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		MaxAge:   opts.MaxAge,
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// Clear emits an empty, already expired cookie so the client drops it.
// The attributes mirror the ones Set used; browsers refuse SameSite=None without Secure.
func Clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// MaxAges holds the lifetimes of the three cookies.
type MaxAges struct {
	Access  time.Duration
	Refresh time.Duration
	Session time.Duration
}

// Writer sets and clears the auth cookies with fixed security attributes:
// HttpOnly, Secure, SameSite=None and Path=/.
type Writer struct {
	maxAges MaxAges
}

func NewWriter(m MaxAges) *Writer {
	return &Writer{maxAges: m}
}

func (cw *Writer) options(d time.Duration) Options {
	return Options{
		HTTPOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		Path:     "/",
		MaxAge:   int(d / time.Second),
	}
}

func (cw *Writer) SetAccessToken(w http.ResponseWriter, tok string) {
	Set(w, AccessTokenName, tok, cw.options(cw.maxAges.Access))
}

func (cw *Writer) SetRefreshToken(w http.ResponseWriter, tok string) {
	Set(w, RefreshTokenName, tok, cw.options(cw.maxAges.Refresh))
}

func (cw *Writer) SetSessionToken(w http.ResponseWriter, tok string) {
	Set(w, SessionTokenName, tok, cw.options(cw.maxAges.Session))
}

func (cw *Writer) ClearAccessToken(w http.ResponseWriter)  { Clear(w, AccessTokenName, "/") }
func (cw *Writer) ClearRefreshToken(w http.ResponseWriter) { Clear(w, RefreshTokenName, "/") }
func (cw *Writer) ClearSessionToken(w http.ResponseWriter) { Clear(w, SessionTokenName, "/") }

// ClearAll drops all three cookies.
func (cw *Writer) ClearAll(w http.ResponseWriter) {
	cw.ClearAccessToken(w)
	cw.ClearRefreshToken(w)
	cw.ClearSessionToken(w)
}
