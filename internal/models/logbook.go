package models

import (
	"time"
)

type LogbookStatus string

const (
	LogbookDraft    LogbookStatus = "draft"
	LogbookPending  LogbookStatus = "pending"
	LogbookApproved LogbookStatus = "approved"
	LogbookRejected LogbookStatus = "rejected"
	LogbookReturned LogbookStatus = "returned"
	LogbookArchived LogbookStatus = "archived"
)

// Editable reports whether a trainee may still change the entry
func (s LogbookStatus) Editable() bool {
	return s == LogbookDraft || s == LogbookReturned
}

type EntryAuthor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type EntryRotation struct {
	ID         int64  `json:"id"`
	Department string `json:"department"`
}

type LogbookEntry struct {
	ID                 int64                     `json:"id"`
	CaseTitle          string                    `json:"case_title"`
	Date               string                    `json:"date"`
	Location           string                    `json:"location_of_activity,omitempty"`
	PatientHistory     string                    `json:"patient_history_summary,omitempty"`
	ManagementAction   string                    `json:"management_action,omitempty"`
	Topic              string                    `json:"topic_subtopic,omitempty"`
	User               Identified[EntryAuthor]   `json:"user"`
	Rotation           Identified[EntryRotation] `json:"rotation"`
	Status             LogbookStatus             `json:"status"`
	SubmittedAt        *time.Time                `json:"submitted_at,omitempty"`
	VerifiedBy         Identified[EntryAuthor]   `json:"verified_by"`
	VerifiedAt         *time.Time                `json:"verified_at,omitempty"`
	SupervisorComments string                    `json:"supervisor_comments,omitempty"`
	CreatedAt          *time.Time                `json:"created_at,omitempty"`
	UpdatedAt          *time.Time                `json:"updated_at,omitempty"`
}

// Fields a trainee fills in; all of them are required to create a draft
type LogbookPayload struct {
	CaseTitle        string `json:"case_title" validate:"required"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Location         string `json:"location_of_activity" validate:"required"`
	PatientHistory   string `json:"patient_history_summary" validate:"required"`
	ManagementAction string `json:"management_action" validate:"required"`
	Topic            string `json:"topic_subtopic" validate:"required"`
}
