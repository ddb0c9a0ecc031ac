package models

type CertificateSummary struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	CertificateTypeName string `json:"certificate_type_name"`
	IssueDate           string `json:"issue_date"`
	Status              string `json:"status"`
	HasFile             bool   `json:"has_file"`
	FileName            string `json:"file_name,omitempty"`
}
