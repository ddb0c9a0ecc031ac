package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/sims/internal/handlers/render"
	"github.com/nkiryanov/sims/internal/handlers/userctx"
	"github.com/nkiryanov/sims/internal/logger"
	"github.com/nkiryanov/sims/internal/models"
)

type userService interface {
	AssignedPGs(ctx context.Context, supervisorID int64) ([]models.AssignedPG, error)
}

type UserHandler struct {
	users  userService
	logger logger.Logger
}

func NewUser(users userService, l logger.Logger) *UserHandler {
	return &UserHandler{users: users, logger: l}
}

func (h *UserHandler) assignedPGs(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Count   int                 `json:"count"`
		Results []models.AssignedPG `json:"results"`
	}

	user, _ := userctx.FromContext(r.Context())

	pgs, err := h.users.AssignedPGs(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("assigned pgs failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, response{Count: len(pgs), Results: pgs})
}
