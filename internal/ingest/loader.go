package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/config"
	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/textnorm"
)

// Loading errors.
var (
	ErrEmptyFile     = errors.New("file has no header")
	ErrMissingColumn = errors.New("missing required column")
)

// inactiveStatuses are the folded status values of suspended or disabled accounts.
var inactiveStatuses = map[string]struct{}{
	"1": {}, "oui": {}, "true": {}, "vrai": {},
	"suspendu": {}, "desactive": {}, "inactive": {}, "locked": {},
	"supprime": {}, "deleted": {}, "archive": {},
}

// ExtractionRow is one line of the application extraction.
type ExtractionRow struct {
	LastLogin      *time.Time
	ExtractionDate *time.Time
	ID             string
	Name           string
	Profile        string
	Department     string
	Status         string
}

// ReferenceRow is one line of the HR reference.
type ReferenceRow struct {
	ID         string
	Name       string
	Profile    string
	Department string
}

// Summary counts what happened to the input rows.
type Summary struct {
	ExtractionRows int
	Duplicates     int
	Suspended      int
	ReferenceRows  int
	Unmatched      int
	Accounts       int
}

// Loader reads extraction and reference files.
type Loader struct {
	mapper *ColumnMapper
}

// NewLoader creates a loader. A nil mapper uses DefaultColumnMapper.
func NewLoader(mapper *ColumnMapper) *Loader {
	if mapper == nil {
		mapper = DefaultColumnMapper()
	}
	return &Loader{mapper: mapper}
}

// Load reads the extraction and every reference file and joins them.
func (l *Loader) Load(extractionPath string, referencePaths []string) ([]model.AccountRecord, Summary, error) {
	var summary Summary

	extraction, err := l.LoadExtraction(extractionPath)
	if err != nil {
		return nil, summary, err
	}
	summary.ExtractionRows = len(extraction)

	extraction, summary.Duplicates = DeduplicateExtraction(extraction)
	extraction, summary.Suspended = FilterSuspended(extraction)

	reference, err := l.LoadReference(referencePaths...)
	if err != nil {
		return nil, summary, err
	}
	summary.ReferenceRows = len(reference)

	records := Join(extraction, reference)
	summary.Accounts = len(records)
	for i := range records {
		if records[i].HasNoReferenceMatch {
			summary.Unmatched++
		}
	}

	common.LogInfo("Loaded accounts", common.Fields{
		"extraction_rows": summary.ExtractionRows,
		"duplicates":      summary.Duplicates,
		"suspended":       summary.Suspended,
		"reference_rows":  summary.ReferenceRows,
		"unmatched":       summary.Unmatched,
	})

	return records, summary, nil
}

// LoadExtraction reads an extraction file.
func (l *Loader) LoadExtraction(path string) ([]ExtractionRow, error) {
	f, err := os.Open(config.ExpandPath(path)) //nolint:gosec // user-provided input file
	if err != nil {
		return nil, fmt.Errorf("failed to open extraction: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := l.ReadExtraction(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadExtraction parses an extraction document.
func (l *Loader) ReadExtraction(r io.Reader) ([]ExtractionRow, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	cols := l.mapper.Map(t.header)
	if _, ok := cols[ColumnID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnID)
	}
	if _, ok := cols[ColumnStatus]; !ok {
		slog.Warn("Extraction has no status column, suspended accounts are not filtered")
	}

	rows := make([]ExtractionRow, 0, len(t.rows))
	for _, rec := range t.rows {
		id := cell(rec, cols, ColumnID)
		if id == "" {
			continue
		}
		rows = append(rows, ExtractionRow{
			ID:             id,
			Name:           fullName(rec, cols),
			Profile:        cell(rec, cols, ColumnProfile),
			Department:     cell(rec, cols, ColumnDepartment),
			Status:         cell(rec, cols, ColumnStatus),
			LastLogin:      ParseDate(cell(rec, cols, ColumnLastLogin)),
			ExtractionDate: ParseDate(cell(rec, cols, ColumnExtractionDate)),
		})
	}
	return rows, nil
}

// LoadReference reads and concatenates reference files, keeping the first
// row seen for each account.
func (l *Loader) LoadReference(paths ...string) ([]ReferenceRow, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no reference file given", ErrEmptyFile)
	}

	var all []ReferenceRow
	for _, path := range paths {
		f, err := os.Open(config.ExpandPath(path)) //nolint:gosec // user-provided input file
		if err != nil {
			return nil, fmt.Errorf("failed to open reference: %w", err)
		}
		rows, err := l.ReadReference(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, rows...)
	}
	return DeduplicateReference(all), nil
}

// ReadReference parses a reference document.
func (l *Loader) ReadReference(r io.Reader) ([]ReferenceRow, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	cols := l.mapper.Map(t.header)
	if _, ok := cols[ColumnID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnID)
	}

	rows := make([]ReferenceRow, 0, len(t.rows))
	for _, rec := range t.rows {
		id := cell(rec, cols, ColumnID)
		if id == "" {
			continue
		}
		rows = append(rows, ReferenceRow{
			ID:         id,
			Name:       fullName(rec, cols),
			Profile:    cell(rec, cols, ColumnProfile),
			Department: cell(rec, cols, ColumnDepartment),
		})
	}
	return rows, nil
}

// fullName prefers the full name column and falls back to first and last names.
func fullName(rec []string, cols map[string]int) string {
	if name := cell(rec, cols, ColumnName); name != "" {
		return name
	}
	return strings.TrimSpace(cell(rec, cols, ColumnFirstName) + " " + cell(rec, cols, ColumnLastName))
}

// DeduplicateExtraction keeps, for each account, the row with the most recent
// last login. Rows keep the order in which accounts first appear.
func DeduplicateExtraction(rows []ExtractionRow) ([]ExtractionRow, int) {
	index := make(map[string]int, len(rows))
	out := make([]ExtractionRow, 0, len(rows))
	for _, row := range rows {
		i, seen := index[row.ID]
		if !seen {
			index[row.ID] = len(out)
			out = append(out, row)
			continue
		}
		if loginAfter(row.LastLogin, out[i].LastLogin) {
			out[i] = row
		}
	}
	return out, len(rows) - len(out)
}

func loginAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	return b == nil || a.After(*b)
}

// FilterSuspended drops accounts whose status marks them suspended or disabled.
func FilterSuspended(rows []ExtractionRow) ([]ExtractionRow, int) {
	out := make([]ExtractionRow, 0, len(rows))
	for _, row := range rows {
		if IsSuspendedStatus(row.Status) {
			continue
		}
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}

// IsSuspendedStatus reports whether a status cell denotes a disabled account.
func IsSuspendedStatus(status string) bool {
	_, ok := inactiveStatuses[textnorm.Key(status)]
	return ok
}

// DeduplicateReference keeps the first row of each account.
func DeduplicateReference(rows []ReferenceRow) []ReferenceRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]ReferenceRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.ID]; ok {
			continue
		}
		seen[row.ID] = struct{}{}
		out = append(out, row)
	}
	return out
}

// Join attaches the reference labels to every extraction row. Accounts
// without a reference row are flagged and keep empty reference labels.
func Join(extraction []ExtractionRow, reference []ReferenceRow) []model.AccountRecord {
	byID := make(map[string]ReferenceRow, len(reference))
	for _, r := range reference {
		byID[r.ID] = r
	}

	records := make([]model.AccountRecord, 0, len(extraction))
	for _, row := range extraction {
		rec := model.AccountRecord{
			ID:                  row.ID,
			Name:                row.Name,
			ExtractedProfile:    row.Profile,
			ExtractedDepartment: row.Department,
			LastLoginDate:       row.LastLogin,
			ExtractionDate:      row.ExtractionDate,
		}
		ref, ok := byID[row.ID]
		if !ok {
			rec.HasNoReferenceMatch = true
		} else {
			rec.ReferenceProfile = ref.Profile
			rec.ReferenceDepartment = ref.Department
			if rec.Name == "" {
				rec.Name = ref.Name
			}
		}
		records = append(records, rec)
	}
	return records
}

func trimCell(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "null", "none", "n/a":
		return ""
	}
	return s
}
