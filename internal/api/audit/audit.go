// Package audit reads the activity log and manages audit reports. Admin only
package audit

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathActivity = "/api/audit/activity/"
	pathReports  = "/api/audit/reports/"
)

type ActivityFilter struct {
	User      int64  `json:"user"`
	Action    string `json:"action"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Ordering  string `json:"ordering"`
}

func (f ActivityFilter) query() url.Values {
	q := url.Values{}
	if f.User != 0 {
		q.Set("user", strconv.FormatInt(f.User, 10))
	}
	for k, v := range map[string]string{
		"action":     f.Action,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
		"ordering":   f.Ordering,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

type ReportFilter struct {
	ReportType string
	Ordering   string
}

func (f ReportFilter) query() url.Values {
	q := url.Values{}
	if f.ReportType != "" {
		q.Set("report_type", f.ReportType)
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	return q
}

type ReportRequest struct {
	ReportType string         `json:"report_type" validate:"required"`
	Parameters map[string]any `json:"parameters"`
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

// ActivityLogs lists audited actions, newest first unless the filter orders otherwise
func (a *API) ActivityLogs(ctx context.Context, filter ActivityFilter) (models.Page[models.ActivityLog], error) {
	if err := api.Validate(filter); err != nil {
		return models.Page[models.ActivityLog]{}, err
	}
	if filter.Ordering == "" {
		filter.Ordering = "-created_at"
	}

	var page models.Page[models.ActivityLog]
	err := a.client.Get(ctx, pathActivity, filter.query(), &page)
	return page, err
}

func (a *API) Reports(ctx context.Context, filter ReportFilter) (models.Page[models.AuditReport], error) {
	var page models.Page[models.AuditReport]
	err := a.client.Get(ctx, pathReports, filter.query(), &page)
	return page, err
}

// CreateReport asks the backend to generate a report of given type
func (a *API) CreateReport(ctx context.Context, req ReportRequest) (models.AuditReport, error) {
	if err := api.Validate(req); err != nil {
		return models.AuditReport{}, err
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}

	var report models.AuditReport
	err := a.client.Post(ctx, pathReports, req, &report)
	return report, err
}
