package auth

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/cookie"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/response"
)

// Handler exposes the /auth endpoints.
type Handler struct {
	svc     *Service
	cookies *cookie.Writer
	errs    *response.ErrorWriter
	logger  *zap.SugaredLogger
}

func NewHandler(svc *Service, cookies *cookie.Writer, errs *response.ErrorWriter, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, cookies: cookies, errs: errs, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.Decode(w, r, &req, false); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	res, err := h.svc.Register(r.Context(), req, clientMeta(r))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.setAuthCookies(w, res)
	response.Send(w, http.StatusCreated, "User registered successfully", res)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.Decode(w, r, &req, false); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req, clientMeta(r))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.setAuthCookies(w, res)
	h.logger.Infow("user logged in", "user_id", res.User.ID)
	response.Send(w, http.StatusOK, "User logged in successfully", res)
}

// Logout handles POST /auth/logout. The session token comes from its cookie only.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var sessionToken string
	if c, err := r.Cookie(cookie.SessionTokenName); err == nil {
		sessionToken = c.Value
	}
	if _, err := h.svc.Logout(r.Context(), sessionToken); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.cookies.ClearAll(w)
	response.Send(w, http.StatusOK, "User logged out successfully", nil)
}

// RefreshToken handles POST /auth/refresh-token. The cookie wins over the body.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.Decode(w, r, &req, true); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	refreshToken := req.RefreshToken
	if c, err := r.Cookie(cookie.RefreshTokenName); err == nil && c.Value != "" {
		refreshToken = c.Value
	}
	res, err := h.svc.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.cookies.SetAccessToken(w, res.AccessToken)
	response.Send(w, http.StatusOK, "Access token refreshed successfully", res)
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, res *Result) {
	h.cookies.SetAccessToken(w, res.AccessToken)
	h.cookies.SetRefreshToken(w, res.RefreshToken)
	h.cookies.SetSessionToken(w, res.Token)
}

func clientMeta(r *http.Request) ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return ClientMeta{IP: ip, UserAgent: r.UserAgent()}
}
