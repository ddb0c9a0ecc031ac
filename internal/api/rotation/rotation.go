package rotation

import (
	"context"
	"fmt"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const pathMine = "/api/rotations/my/"

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

func (a *API) Mine(ctx context.Context) (models.Page[models.Rotation], error) {
	var page models.Page[models.Rotation]
	err := a.client.Get(ctx, pathMine, nil, &page)
	return page, err
}

func (a *API) Get(ctx context.Context, id int64) (models.Rotation, error) {
	var r models.Rotation
	err := a.client.Get(ctx, fmt.Sprintf("%s%d/", pathMine, id), nil, &r)
	return r, err
}
