package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/response"
)

// Handler exposes HTTP endpoints for user profiles.
type Handler struct {
	svc    *UserService
	errs   *response.ErrorWriter
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, errs *response.ErrorWriter, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, errs: errs, logger: logger}
}

// GetProfile handles GET /users/{userId}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	p, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if p == nil {
		h.logger.Debugw("profile not found", "user_id", userID)
		response.Send(w, http.StatusOK, "User profile retrieved successfully", nil)
		return
	}
	response.Send(w, http.StatusOK, "User profile retrieved successfully", p)
}
