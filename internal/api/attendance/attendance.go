// Package attendance reads attendance summaries and uploads attendance sheets
package attendance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/apiclient"
	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathSummary = "/api/attendance/summary/"
	pathUpload  = "/api/attendance/upload/"
)

type SummaryRequest struct {
	User      int64  `json:"user"`
	Period    string `json:"period" validate:"required,oneof=monthly quarterly semester yearly custom"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// LastMonth is the monthly summary window ending at now, as the trainee dashboard shows it
func LastMonth(now time.Time) SummaryRequest {
	return SummaryRequest{
		Period:    "monthly",
		StartDate: now.AddDate(0, -1, 0).Format(time.DateOnly),
		EndDate:   now.Format(time.DateOnly),
	}
}

func (r SummaryRequest) query() url.Values {
	q := url.Values{
		"period":     {r.Period},
		"start_date": {r.StartDate},
		"end_date":   {r.EndDate},
	}
	if r.User != 0 {
		q.Set("user", strconv.FormatInt(r.User, 10))
	}
	return q
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

// Summary of the current user, or of req.User when the caller may see others
func (a *API) Summary(ctx context.Context, req SummaryRequest) (models.AttendanceSummary, error) {
	if err := api.Validate(req); err != nil {
		return models.AttendanceSummary{}, err
	}

	var summary models.AttendanceSummary
	err := a.client.Get(ctx, pathSummary, req.query(), &summary)
	return summary, err
}

// Upload sends a CSV sheet of attendance records
func (a *API) Upload(ctx context.Context, name string, r io.Reader) (models.AttendanceUploadResult, error) {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return models.AttendanceUploadResult{}, fmt.Errorf("%w: attendance sheet must be a .csv file", apperrors.ErrInvalidPayload)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return models.AttendanceUploadResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return models.AttendanceUploadResult{}, fmt.Errorf("%w: %s is empty", apperrors.ErrInvalidPayload, name)
	}

	var result models.AttendanceUploadResult
	err = a.client.Multipart(ctx, pathUpload, nil, apiclient.File{Name: name, Content: bytes.NewReader(content)}, &result)
	return result, err
}
