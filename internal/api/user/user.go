package user

import (
	"context"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const pathAssignedPGs = "/api/users/assigned-pgs/"

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

// PGs assigned to the current supervisor
func (a *API) AssignedPGs(ctx context.Context) ([]models.AssignedPG, error) {
	var page models.Page[models.AssignedPG]
	if err := a.client.Get(ctx, pathAssignedPGs, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
