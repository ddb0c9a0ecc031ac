package models

import (
	"encoding/json"
)

type ImportKind string

const (
	ImportGeneric     ImportKind = "generic"
	ImportTrainees    ImportKind = "trainees"
	ImportSupervisors ImportKind = "supervisors"
	ImportResidents   ImportKind = "residents"
)

type BulkImportResult struct {
	Success       bool              `json:"success"`
	SuccessCount  int               `json:"success_count"`
	ErrorCount    int               `json:"error_count"`
	Errors        []string          `json:"errors"`
	ImportedItems []json.RawMessage `json:"imported_items"`
	ImportID      int64             `json:"import_id,omitempty"`
}

type Assignment struct {
	UserID       int64 `json:"user_id"`
	SupervisorID int64 `json:"supervisor_id"`
}

type BulkAssignmentResult struct {
	Success       bool     `json:"success"`
	AssignedCount int      `json:"assigned_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors"`
}
