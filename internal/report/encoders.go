package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Header is the column order of CSV reports.
var Header = []string{
	"account_id",
	"name",
	"extracted_profile",
	"reference_profile",
	"extracted_department",
	"reference_department",
	"has_no_reference_match",
	"last_login_date",
	"extraction_date",
	"days_inactive",
	"anomaly_tags",
	"decision",
	"is_automatic_decision",
	"decision_label",
	"execution_label",
	"certifier",
	"certified_on",
}

func writeCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.AccountID,
			r.Name,
			r.ExtractedProfile,
			r.ReferenceProfile,
			r.ExtractedDepartment,
			r.ReferenceDepartment,
			strconv.FormatBool(r.HasNoReferenceMatch),
			r.LastLoginDate,
			r.ExtractionDate,
			formatDays(r.DaysInactive),
			r.AnomalyTags,
			r.Decision,
			strconv.FormatBool(r.IsAutomaticDecision),
			r.DecisionLabel,
			r.ExecutionLabel,
			r.Certifier,
			r.CertifiedOn,
		}); err != nil {
			return fmt.Errorf("failed to write account %s: %w", r.AccountID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, rows []Row) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
