package bulk

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/models"
)

// requirement is met when every column of any alternative is present
type requirement struct {
	name         string
	alternatives [][]string
}

var (
	fullName = requirement{name: "name", alternatives: [][]string{{"name"}, {"first name", "last name"}}}

	requirements = map[models.ImportKind][]requirement{
		models.ImportGeneric: {
			{name: "pg_username", alternatives: [][]string{{"pg_username"}}},
			{name: "case_title", alternatives: [][]string{{"case_title"}}},
			{name: "date", alternatives: [][]string{{"date"}}},
			{name: "status", alternatives: [][]string{{"status"}}},
		},
		models.ImportSupervisors: {
			fullName,
			{name: "specialty", alternatives: [][]string{{"specialty"}}},
		},
		models.ImportResidents: {
			fullName,
			{name: "year", alternatives: [][]string{{"year"}}},
			{name: "specialty", alternatives: [][]string{{"specialty"}}},
			{name: "supervisor name", alternatives: [][]string{{"supervisor name"}, {"supervisor username"}}},
		},
	}
)

var (
	errExcelOnly      = errors.New("trainee import accepts only Excel files (.xlsx, .xls)")
	errUnsupportedExt = errors.New("only .csv, .xlsx and .xls files can be imported")
)

func isExcel(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".xls"
}

func isCSV(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".csv"
}

// checkFile validates what can be checked before upload: the extension and, for CSV, the header row.
// Excel workbooks are passed to the backend as is.
func checkFile(kind models.ImportKind, name string, content []byte) error {
	switch {
	case kind == models.ImportTrainees && !isExcel(name):
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidCSV, errExcelOnly)
	case isExcel(name):
		return nil
	case !isCSV(name):
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidCSV, errUnsupportedExt)
	}

	header, err := readHeader(content)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidCSV, err)
	}

	if missing := missingColumns(kind, header); len(missing) > 0 {
		return fmt.Errorf("%w: missing columns: %s", apperrors.ErrInvalidCSV, strings.Join(missing, ", "))
	}
	return nil
}

// Header row normalized to lower case. The file must have at least one data row
func readHeader(content []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("can't read header: %w", err)
	}

	if _, err := r.Read(); errors.Is(err, io.EOF) {
		return nil, errors.New("file has no rows")
	} else if err != nil {
		return nil, fmt.Errorf("can't read first row: %w", err)
	}

	normalized := make([]string, 0, len(header))
	for _, h := range header {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			normalized = append(normalized, h)
		}
	}
	if len(normalized) == 0 {
		return nil, errors.New("no headers found in file")
	}
	return normalized, nil
}

func missingColumns(kind models.ImportKind, header []string) []string {
	var missing []string
	for _, req := range requirements[kind] {
		met := slices.ContainsFunc(req.alternatives, func(columns []string) bool {
			for _, c := range columns {
				if !slices.Contains(header, c) {
					return false
				}
			}
			return true
		})
		if !met {
			missing = append(missing, req.name)
		}
	}
	return missing
}
