package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type DashboardOverview struct {
	TotalUsers       int               `json:"total_users"`
	TotalPGs         int               `json:"total_pgs"`
	TotalSupervisors int               `json:"total_supervisors"`
	ActiveRotations  int               `json:"active_rotations"`
	PendingReviews   int               `json:"pending_reviews"`
	RecentActivity   []json.RawMessage `json:"recent_activity,omitempty"`
}

type TrendPoint struct {
	Period string          `json:"period"`
	Value  decimal.Decimal `json:"value"`
	Label  string          `json:"label,omitempty"`
}

// Compliance rates in percent
type ComplianceMetrics struct {
	LogbookCompliance     decimal.Decimal `json:"logbook_compliance"`
	CertificateCompliance decimal.Decimal `json:"certificate_compliance"`
	RotationCompliance    decimal.Decimal `json:"rotation_compliance"`
	OverallCompliance     decimal.Decimal `json:"overall_compliance"`
}

type PerformanceMetrics struct {
	AverageScores  decimal.Decimal   `json:"average_scores"`
	PassRate       decimal.Decimal   `json:"pass_rate"`
	CompletionRate decimal.Decimal   `json:"completion_rate"`
	TopPerformers  []json.RawMessage `json:"top_performers,omitempty"`
}
