package handler

import (
	"log/slog"
	"net/http"

	"github.com/clipforge/clipforge/internal/ctxkeys"
	"github.com/clipforge/clipforge/internal/service"
)

type AccountHandler struct {
	creditService *service.CreditService
}

func NewAccountHandler(creditService *service.CreditService) *AccountHandler {
	return &AccountHandler{creditService: creditService}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	respondJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *AccountHandler) Credits(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	balance, err := h.creditService.Balance(user.ID)
	if err != nil {
		slog.Error("failed to load credit balance", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to load credit balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"credits": balance})
}
