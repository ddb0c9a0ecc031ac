package logbook

import (
	"context"
	"fmt"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathPending = "/api/logbook/pending/"
	pathMine    = "/api/logbook/my/"
)

func pathVerify(id int64) string { return fmt.Sprintf("/api/logbook/%d/verify/", id) }
func pathEntry(id int64) string  { return fmt.Sprintf("/api/logbook/my/%d/", id) }
func pathSubmit(id int64) string { return fmt.Sprintf("/api/logbook/my/%d/submit/", id) }

// Partial update of a draft; only set fields are sent
type PayloadUpdate struct {
	CaseTitle        *string `json:"case_title,omitempty"`
	Date             *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Location         *string `json:"location_of_activity,omitempty"`
	PatientHistory   *string `json:"patient_history_summary,omitempty"`
	ManagementAction *string `json:"management_action,omitempty"`
	Topic            *string `json:"topic_subtopic,omitempty"`
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

// Entries waiting for the supervisor's review
func (a *API) Pending(ctx context.Context) (models.Page[models.LogbookEntry], error) {
	var page models.Page[models.LogbookEntry]
	err := a.client.Get(ctx, pathPending, nil, &page)
	return page, err
}

func (a *API) Verify(ctx context.Context, id int64, feedback string) (models.LogbookEntry, error) {
	body := map[string]string{}
	if feedback != "" {
		body["feedback"] = feedback
	}

	var entry models.LogbookEntry
	err := a.client.Patch(ctx, pathVerify(id), body, &entry)
	return entry, err
}

// Trainee's own entries. The backend answers with a list or a page, both end up as Page
func (a *API) MyEntries(ctx context.Context) (models.Page[models.LogbookEntry], error) {
	var page models.Page[models.LogbookEntry]
	err := a.client.Get(ctx, pathMine, nil, &page)
	return page, err
}

func (a *API) Create(ctx context.Context, payload models.LogbookPayload) (models.LogbookEntry, error) {
	if err := api.Validate(payload); err != nil {
		return models.LogbookEntry{}, err
	}

	var entry models.LogbookEntry
	err := a.client.Post(ctx, pathMine, payload, &entry)
	return entry, err
}

func (a *API) Update(ctx context.Context, id int64, update PayloadUpdate) (models.LogbookEntry, error) {
	if err := api.Validate(update); err != nil {
		return models.LogbookEntry{}, err
	}

	var entry models.LogbookEntry
	err := a.client.Patch(ctx, pathEntry(id), update, &entry)
	return entry, err
}

// Submit draft for supervisor review
func (a *API) Submit(ctx context.Context, id int64) (models.LogbookEntry, error) {
	var entry models.LogbookEntry
	err := a.client.Post(ctx, pathSubmit(id), nil, &entry)
	return entry, err
}
