package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clipforge/clipforge/internal/model"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// userResponse is the public view of an account. The password hash and the
// verification token never leave the server.
type userResponse struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name,omitempty"`
	VerificationState string `json:"verification_state"`
	Credits           int    `json:"credits"`
}

func newUserResponse(user *model.User) userResponse {
	resp := userResponse{
		ID:                user.ID,
		Email:             user.Email,
		VerificationState: user.VerificationState,
		Credits:           user.Credits,
	}
	if user.Name != nil {
		resp.Name = *user.Name
	}
	return resp
}
