// Package certificate lists the trainee's certificates and fetches their files
package certificate

import (
	"context"
	"fmt"
	"io"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const pathMine = "/api/certificates/my/"

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

func (a *API) Mine(ctx context.Context) ([]models.CertificateSummary, error) {
	var page models.Page[models.CertificateSummary]
	if err := a.client.Get(ctx, pathMine, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Download writes the certificate file to w and returns its content type
func (a *API) Download(ctx context.Context, id int64, w io.Writer) (string, error) {
	return a.client.Download(ctx, fmt.Sprintf("%s%d/download/", pathMine, id), w)
}
