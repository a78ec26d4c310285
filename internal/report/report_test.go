package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/recertify/internal/model"
)

func sampleRecords() []model.AccountRecord {
	login := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	extraction := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	days := 179
	return []model.AccountRecord{
		{
			ID:                  "u1",
			Name:                "Alice, Martin",
			ExtractedProfile:    "Développeur",
			ReferenceProfile:    "Chef de projet",
			LastLoginDate:       &login,
			ExtractionDate:      &extraction,
			DaysInactive:        &days,
			AnomalyTags:         []string{model.TagInactive, model.TagProfileChange},
			Decision:            model.DecisionDisable,
			IsAutomaticDecision: true,
		},
		{
			ID:                  "u2",
			HasNoReferenceMatch: false,
		},
	}
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, sampleRecords(), Options{
		Certifier:   "alice",
		CertifiedOn: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, Header, lines[0])

	row := make(map[string]string, len(Header))
	for i, h := range Header {
		row[h] = lines[1][i]
	}
	assert.Equal(t, "Alice, Martin", row["name"])
	assert.Equal(t, "2024-01-02", row["last_login_date"])
	assert.Equal(t, "179", row["days_inactive"])
	assert.Equal(t, "Potentially inactive account, Profile change to review", row["anomaly_tags"])
	assert.Equal(t, "Disable", row["decision"])
	assert.Equal(t, "To disable", row["decision_label"])
	assert.Equal(t, "Disabled", row["execution_label"])
	assert.Equal(t, "true", row["is_automatic_decision"])
	assert.Equal(t, "alice", row["certifier"])
	assert.Equal(t, "2024-07-01", row["certified_on"])

	assert.Equal(t, "", lines[2][9])
	assert.Equal(t, "", lines[2][11])
}

func TestWrite_JSONAndYAML(t *testing.T) {
	var jsonBuf bytes.Buffer
	require.NoError(t, Write(&jsonBuf, sampleRecords(), Options{Format: FormatJSON, Certifier: "bob"}))

	var fromJSON []Row
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 2)
	assert.Equal(t, "To disable", fromJSON[0].DecisionLabel)
	assert.Nil(t, fromJSON[1].DaysInactive)

	var yamlBuf bytes.Buffer
	require.NoError(t, Write(&yamlBuf, sampleRecords(), Options{Format: FormatYAML, Certifier: "bob"}))

	var fromYAML []Row
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, nil, Options{Format: "xlsx"})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"out/report.csv": FormatCSV,
		"report.JSON":    FormatJSON,
		"report.yml":     FormatYAML,
		"report.yaml":    FormatYAML,
		"report.xlsx":    FormatCSV,
		"no-extension":   FormatCSV,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatForPath(path), path)
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "To keep", DecisionLabel(model.DecisionKeep))
	assert.Equal(t, "Modified", ExecutionLabel(model.DecisionModify))
	assert.Empty(t, DecisionLabel(model.DecisionNone))
	assert.Empty(t, ExecutionLabel(model.DecisionNone))
}
