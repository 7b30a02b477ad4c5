package auth

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-journeymate/internal/api"
)

type AuthHandler struct {
	oracle Oracle
	logger *slog.Logger
}

func NewAuthHandler(oracle Oracle, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		oracle: oracle,
		logger: logger,
	}
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
}

// GetSession godoc
// @Summary      Current session
// @Description  Reports whether the bearer token identifies a user and who it is.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} sessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := h.oracle.CurrentUser(r.Context())
	if !ok {
		api.WriteJSONResponse(w, r, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, sessionResponse{
		Authenticated: true,
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
	})
}
