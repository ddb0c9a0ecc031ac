package models

import (
	"github.com/shopspring/decimal"
)

type AttendanceSummary struct {
	TotalSessions        int             `json:"total_sessions"`
	Attended             int             `json:"attended"`
	Absent               int             `json:"absent"`
	Late                 int             `json:"late"`
	Excused              int             `json:"excused"`
	AttendancePercentage decimal.Decimal `json:"attendance_percentage"`
	EligibilityStatus    string          `json:"eligibility_status"`
	Period               string          `json:"period"`
	StartDate            string          `json:"start_date"`
	EndDate              string          `json:"end_date"`
}

type AttendanceUploadResult struct {
	Message      string   `json:"message"`
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}
