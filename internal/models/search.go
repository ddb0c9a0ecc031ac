package models

import (
	"encoding/json"
	"time"
)

type SearchResult struct {
	Type        string                     `json:"type"`
	ID          int64                      `json:"id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description,omitempty"`
	URL         string                     `json:"url"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

type SearchSuggestion struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

type SearchHistory struct {
	ID           int64     `json:"id"`
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	SearchedAt   time.Time `json:"searched_at"`
}
