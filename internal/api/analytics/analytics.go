// Package analytics reads the admin dashboard figures
package analytics

import (
	"context"
	"net/url"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathOverview    = "/api/analytics/dashboard/overview/"
	pathTrends      = "/api/analytics/dashboard/trends/"
	pathCompliance  = "/api/analytics/dashboard/compliance/"
	pathPerformance = "/api/analytics/performance/"
)

type TrendsRequest struct {
	Period string
	Metric string
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

func (a *API) Overview(ctx context.Context) (models.DashboardOverview, error) {
	var overview models.DashboardOverview
	err := a.client.Get(ctx, pathOverview, nil, &overview)
	return overview, err
}

func (a *API) Trends(ctx context.Context, req TrendsRequest) ([]models.TrendPoint, error) {
	q := url.Values{}
	if req.Period != "" {
		q.Set("period", req.Period)
	}
	if req.Metric != "" {
		q.Set("metric", req.Metric)
	}

	var points []models.TrendPoint
	if err := a.client.Get(ctx, pathTrends, q, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (a *API) Compliance(ctx context.Context) (models.ComplianceMetrics, error) {
	var metrics models.ComplianceMetrics
	err := a.client.Get(ctx, pathCompliance, nil, &metrics)
	return metrics, err
}

func (a *API) Performance(ctx context.Context, period string) (models.PerformanceMetrics, error) {
	var q url.Values
	if period != "" {
		q = url.Values{"period": {period}}
	}

	var metrics models.PerformanceMetrics
	err := a.client.Get(ctx, pathPerformance, q, &metrics)
	return metrics, err
}
