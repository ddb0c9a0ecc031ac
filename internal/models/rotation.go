package models

type Rotation struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Department     string `json:"department"`
	Hospital       string `json:"hospital"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	SupervisorName string `json:"supervisor_name,omitempty"`
}

type AssignedPG struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Specialty Label  `json:"specialty,omitempty"`
	Year      Label  `json:"year,omitempty"`
	IsActive  *bool  `json:"is_active,omitempty"`
}
