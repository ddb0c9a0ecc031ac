package search

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathSearch      = "/api/search/"
	pathHistory     = "/api/search/history/"
	pathSuggestions = "/api/search/suggestions/"

	// Repeated array param, e.g. types[]=logbook&types[]=rotation
	paramTypes = "types[]"

	minSuggestionQuery = 2
)

type Options struct {
	Types []string // e.g. "logbook", "rotation"; all when empty
	Limit int
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

func (a *API) Search(ctx context.Context, q string, opts Options) (models.Page[models.SearchResult], error) {
	query := url.Values{"q": {strings.TrimSpace(q)}}
	for _, t := range opts.Types {
		query.Add(paramTypes, t)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var page models.Page[models.SearchResult]
	err := a.client.Get(ctx, pathSearch, query, &page)
	return page, err
}

func (a *API) History(ctx context.Context) (models.Page[models.SearchHistory], error) {
	var page models.Page[models.SearchHistory]
	err := a.client.Get(ctx, pathHistory, nil, &page)
	return page, err
}

// Suggestions for a partial query. Queries shorter than two characters give none without a request
func (a *API) Suggestions(ctx context.Context, q string) ([]models.SearchSuggestion, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minSuggestionQuery {
		return []models.SearchSuggestion{}, nil
	}

	var page models.Page[models.SearchSuggestion]
	if err := a.client.Get(ctx, pathSuggestions, url.Values{"q": {q}}, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
