package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// ActivityLog is one audited action. User is an id or an expanded author
type ActivityLog struct {
	ID        int64                      `json:"id"`
	User      Identified[EntryAuthor]    `json:"user"`
	Action    string                     `json:"action"`
	Details   map[string]json.RawMessage `json:"details,omitempty"`
	IPAddress string                     `json:"ip_address,omitempty"`
	UserAgent string                     `json:"user_agent,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

// Actor names who did it: full name, username or "#id", empty for system actions
func (l ActivityLog) Actor() string {
	if u, ok := l.User.Get(); ok {
		switch {
		case u.FullName != "":
			return u.FullName
		case u.Username != "":
			return u.Username
		}
	}
	if id := l.User.IDValue(); id != 0 {
		return "#" + strconv.FormatInt(id, 10)
	}
	return ""
}

type AuditReport struct {
	ID          int64          `json:"id"`
	ReportType  string         `json:"report_type"`
	Parameters  map[string]any `json:"parameters"`
	GeneratedAt time.Time      `json:"generated_at"`
	FileURL     string         `json:"file_url,omitempty"`
}
