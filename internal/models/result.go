package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Exam struct {
	ID                  int64           `json:"id"`
	Title               string          `json:"title"`
	ModuleName          string          `json:"module_name,omitempty"`
	ExamType            string          `json:"exam_type"`
	Date                string          `json:"date"`
	MaxMarks            decimal.Decimal `json:"max_marks"`
	PassingMarks        decimal.Decimal `json:"passing_marks"`
	Status              string          `json:"status"`
	Rotation            *int64          `json:"rotation,omitempty"`
	RequiresEligibility bool            `json:"requires_eligibility"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type Score struct {
	ID                  int64            `json:"id"`
	Exam                Identified[Exam] `json:"exam"`
	Student             int64            `json:"student"`
	MarksObtained       decimal.Decimal  `json:"marks_obtained"`
	Percentage          decimal.Decimal  `json:"percentage"`
	Grade               string           `json:"grade"`
	IsPassing           bool             `json:"is_passing"`
	IsEligible          bool             `json:"is_eligible"`
	IneligibilityReason string           `json:"ineligibility_reason,omitempty"`
	EnteredBy           int64            `json:"entered_by"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type ExamStatistics struct {
	TotalStudents  int             `json:"total_students"`
	Passed         int             `json:"passed"`
	Failed         int             `json:"failed"`
	PassPercentage decimal.Decimal `json:"pass_percentage"`
	AverageMarks   decimal.Decimal `json:"average_marks"`
	MaxMarks       decimal.Decimal `json:"max_marks"`
	PassingMarks   decimal.Decimal `json:"passing_marks"`
}
