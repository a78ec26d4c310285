// Package report writes classified account records for the certification
// campaign, as CSV for spreadsheets or as JSON/YAML for other tools.
package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/recertify/internal/model"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DateLayout is used for every date in a report.
const DateLayout = "2006-01-02"

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat maps a name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatForPath picks the format from a file extension, defaulting to CSV.
func FormatForPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatCSV
}

// labels holds the "to do" and "done" wording of a decision.
type labels struct {
	decision  string
	execution string
}

var decisionLabels = map[model.Decision]labels{
	model.DecisionKeep:    {decision: "To keep", execution: "Kept"},
	model.DecisionModify:  {decision: "To modify", execution: "Modified"},
	model.DecisionDisable: {decision: "To disable", execution: "Disabled"},
}

// DecisionLabel returns the campaign wording of a decision, or "" for none.
func DecisionLabel(d model.Decision) string {
	return decisionLabels[d].decision
}

// ExecutionLabel returns the wording once a decision has been carried out.
func ExecutionLabel(d model.Decision) string {
	return decisionLabels[d].execution
}

// Row is one account as it appears in a report.
type Row struct {
	AccountID           string `json:"account_id" yaml:"account_id"`
	Name                string `json:"name" yaml:"name"`
	ExtractedProfile    string `json:"extracted_profile" yaml:"extracted_profile"`
	ReferenceProfile    string `json:"reference_profile" yaml:"reference_profile"`
	ExtractedDepartment string `json:"extracted_department" yaml:"extracted_department"`
	ReferenceDepartment string `json:"reference_department" yaml:"reference_department"`
	LastLoginDate       string `json:"last_login_date,omitempty" yaml:"last_login_date,omitempty"`
	ExtractionDate      string `json:"extraction_date,omitempty" yaml:"extraction_date,omitempty"`
	AnomalyTags         string `json:"anomaly_tags" yaml:"anomaly_tags"`
	Decision            string `json:"decision" yaml:"decision"`
	DecisionLabel       string `json:"decision_label" yaml:"decision_label"`
	ExecutionLabel      string `json:"execution_label" yaml:"execution_label"`
	Certifier           string `json:"certifier" yaml:"certifier"`
	CertifiedOn         string `json:"certified_on" yaml:"certified_on"`
	DaysInactive        *int   `json:"days_inactive" yaml:"days_inactive"`
	HasNoReferenceMatch bool   `json:"has_no_reference_match" yaml:"has_no_reference_match"`
	IsAutomaticDecision bool   `json:"is_automatic_decision" yaml:"is_automatic_decision"`
}

// Options describe the certification campaign a report belongs to.
type Options struct {
	CertifiedOn time.Time
	Certifier   string
	Format      Format
}

// Rows converts records to report rows.
func Rows(records []model.AccountRecord, opts Options) []Row {
	certifiedOn := ""
	if !opts.CertifiedOn.IsZero() {
		certifiedOn = opts.CertifiedOn.Format(DateLayout)
	}

	rows := make([]Row, 0, len(records))
	for i := range records {
		rec := &records[i]
		rows = append(rows, Row{
			AccountID:           rec.ID,
			Name:                rec.Name,
			ExtractedProfile:    rec.ExtractedProfile,
			ReferenceProfile:    rec.ReferenceProfile,
			ExtractedDepartment: rec.ExtractedDepartment,
			ReferenceDepartment: rec.ReferenceDepartment,
			HasNoReferenceMatch: rec.HasNoReferenceMatch,
			LastLoginDate:       formatDate(rec.LastLoginDate),
			ExtractionDate:      formatDate(rec.ExtractionDate),
			DaysInactive:        rec.DaysInactive,
			AnomalyTags:         rec.TagsString(),
			Decision:            string(rec.Decision),
			IsAutomaticDecision: rec.IsAutomaticDecision,
			DecisionLabel:       DecisionLabel(rec.Decision),
			ExecutionLabel:      ExecutionLabel(rec.Decision),
			Certifier:           opts.Certifier,
			CertifiedOn:         certifiedOn,
		})
	}
	return rows
}

// Write encodes records in the requested format.
func Write(w io.Writer, records []model.AccountRecord, opts Options) error {
	rows := Rows(records, opts)
	switch opts.Format {
	case FormatCSV, "":
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatDays(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}
