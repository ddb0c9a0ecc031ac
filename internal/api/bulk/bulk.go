// Package bulk uploads CSV and Excel files for bulk imports and assigns PGs to supervisors
package bulk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/apiclient"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathImport     = "/api/bulk/import/"
	pathAssignment = "/api/bulk/assignment/"
	pathReview     = "/api/bulk/review/"
)

var importPaths = map[models.ImportKind]string{
	models.ImportGeneric:     pathImport,
	models.ImportTrainees:    "/api/bulk/import-trainees/",
	models.ImportSupervisors: "/api/bulk/import-supervisors/",
	models.ImportResidents:   "/api/bulk/import-residents/",
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

// Import uploads the file of given kind. CSV files are checked locally first
func (a *API) Import(ctx context.Context, kind models.ImportKind, name string, r io.Reader) (models.BulkImportResult, error) {
	path, ok := importPaths[kind]
	if !ok {
		return models.BulkImportResult{}, fmt.Errorf("unknown import kind %q", kind)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return models.BulkImportResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := checkFile(kind, name, content); err != nil {
		return models.BulkImportResult{}, err
	}

	var fields map[string]string
	if kind == models.ImportGeneric {
		fields = map[string]string{"import_type": string(kind)}
	}

	var result models.BulkImportResult
	err = a.client.Multipart(ctx, path, fields, apiclient.File{Name: name, Content: bytes.NewReader(content)}, &result)
	return result, err
}

func (a *API) Assign(ctx context.Context, assignments []models.Assignment) (models.BulkAssignmentResult, error) {
	var result models.BulkAssignmentResult
	err := a.client.Post(ctx, pathAssignment, map[string][]models.Assignment{"assignments": assignments}, &result)
	return result, err
}

// Review result of a previous import
func (a *API) Review(ctx context.Context, importID int64) (models.BulkImportResult, error) {
	var result models.BulkImportResult
	err := a.client.Get(ctx, pathReview, url.Values{"import_id": {strconv.FormatInt(importID, 10)}}, &result)
	return result, err
}
