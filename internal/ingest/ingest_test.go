package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnMapper_Map(t *testing.T) {
	mapper := DefaultColumnMapper()

	tests := []struct {
		want   map[string]int
		name   string
		header []string
	}{
		{
			name:   "exact aliases ignore case and accents",
			header: []string{"CODE_UTILISATEUR", "Nom et Prénom", "Profil utilisateur", "LBSER"},
			want: map[string]int{
				ColumnID: 0, ColumnName: 1, ColumnProfile: 2, ColumnDepartment: 3,
			},
		},
		{
			name:   "canonical names map to themselves",
			header: []string{"user_id", "profile", "department"},
			want:   map[string]int{ColumnID: 0, ColumnProfile: 1, ColumnDepartment: 2},
		},
		{
			name:   "close header is matched fuzzily",
			header: []string{"Identifiant", "Date de derniere connexion (UTC)"},
			want:   map[string]int{ColumnID: 0, ColumnLastLogin: 1},
		},
		{
			name:   "unknown columns are ignored",
			header: []string{"Identifiant", "Commentaire", "SS"},
			want:   map[string]int{ColumnID: 0, ColumnStatus: 2},
		},
		{
			name:   "leftmost duplicate wins",
			header: []string{"CUTI", "UTICOD"},
			want:   map[string]int{ColumnID: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapper.Map(tt.header))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		want  *time.Time
		name  string
		value string
	}{
		{name: "iso date", value: "2024-03-05", want: date(2024, 3, 5)},
		{name: "iso datetime", value: "2024-03-05 10:30:00", want: datetime(2024, 3, 5, 10, 30)},
		{name: "day first", value: "05/03/2024", want: date(2024, 3, 5)},
		{name: "day first with time", value: "05/03/2024 10:30", want: datetime(2024, 3, 5, 10, 30)},
		{name: "dotted day first", value: "05.03.2024", want: date(2024, 3, 5)},
		{name: "spreadsheet serial", value: "45356", want: date(2024, 3, 5)},
		{name: "blank", value: "  "},
		{name: "garbage", value: "last tuesday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.value)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}
}

func TestReadExtraction(t *testing.T) {
	doc := "\ufeffCUTI;NOMU;PROFIL;LBSER;DATE DE DERNIERE CONNEXION;SUSPENDU\n" +
		"u1;Alice Martin;Développeur;Finance;2024-05-01;0\n" +
		"u2;Bob Durand;Assistant;RH;15/01/2024;oui\n" +
		";Nobody;x;y;;\n"

	rows, err := NewLoader(nil).ReadExtraction(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "u1", rows[0].ID)
	assert.Equal(t, "Alice Martin", rows[0].Name)
	assert.Equal(t, "Développeur", rows[0].Profile)
	assert.Equal(t, "Finance", rows[0].Department)
	require.NotNil(t, rows[0].LastLogin)
	assert.True(t, date(2024, 5, 1).Equal(*rows[0].LastLogin))
	assert.Nil(t, rows[0].ExtractionDate)

	assert.Equal(t, "oui", rows[1].Status)
	require.NotNil(t, rows[1].LastLogin)
	assert.True(t, date(2024, 1, 15).Equal(*rows[1].LastLogin))
}

func TestReadExtraction_MissingID(t *testing.T) {
	_, err := NewLoader(nil).ReadExtraction(strings.NewReader("PROFIL,LBSER\na,b\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = NewLoader(nil).ReadExtraction(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadReference_FirstAndLastName(t *testing.T) {
	doc := "Identifiant,Prénom,Nom,Intitulé du poste,Direction\n" +
		"u1,Alice,Martin,Chef de projet,Finance\n"

	rows, err := NewLoader(nil).ReadReference(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ReferenceRow{ID: "u1", Name: "Alice Martin", Profile: "Chef de projet", Department: "Finance"}, rows[0])
}

func TestDeduplicateExtraction(t *testing.T) {
	rows := []ExtractionRow{
		{ID: "u1", Profile: "old", LastLogin: date(2024, 1, 1)},
		{ID: "u2", Profile: "only"},
		{ID: "u1", Profile: "new", LastLogin: date(2024, 2, 1)},
		{ID: "u1", Profile: "undated"},
	}

	got, dups := DeduplicateExtraction(rows)
	assert.Equal(t, 2, dups)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].Profile)
	assert.Equal(t, "only", got[1].Profile)
}

func TestIsSuspendedStatus(t *testing.T) {
	for _, s := range []string{"1", "OUI", "True", "Désactivé", "suspendu ", "Supprimé", "locked"} {
		assert.True(t, IsSuspendedStatus(s), s)
	}
	for _, s := range []string{"", "0", "non", "actif", "false"} {
		assert.False(t, IsSuspendedStatus(s), s)
	}
}

func TestJoin(t *testing.T) {
	extraction := []ExtractionRow{
		{ID: "u1", Profile: "dev", Department: "it"},
		{ID: "u2", Name: "", Profile: "asst"},
	}
	reference := []ReferenceRow{
		{ID: "u1", Name: "Alice", Profile: "Développeur", Department: "Informatique"},
	}

	records := Join(extraction, reference)
	require.Len(t, records, 2)

	assert.False(t, records[0].HasNoReferenceMatch)
	assert.Equal(t, "Alice", records[0].Name)
	assert.Equal(t, "Développeur", records[0].ReferenceProfile)
	assert.Equal(t, "Informatique", records[0].ReferenceDepartment)

	assert.True(t, records[1].HasNoReferenceMatch)
	assert.Empty(t, records[1].ReferenceProfile)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	extraction := filepath.Join(dir, "extraction.csv")
	ref1 := filepath.Join(dir, "hr1.csv")
	ref2 := filepath.Join(dir, "hr2.csv")

	require.NoError(t, os.WriteFile(extraction, []byte(
		"Identifiant,Profil utilisateur,Direction,Last login,Statut du compte Suspendu\n"+
			"u1,Développeur,Finance,2024-05-01,non\n"+
			"u1,Développeur,Finance,2024-06-01,non\n"+
			"u2,Assistant,RH,2024-06-01,oui\n"+
			"u3,Comptable,Finance,2024-06-01,non\n"), 0600))
	require.NoError(t, os.WriteFile(ref1, []byte(
		"Identifiant,Intitulé du poste,Direction\nu1,Developpeur,Finance\n"), 0600))
	require.NoError(t, os.WriteFile(ref2, []byte(
		"Identifiant,Intitulé du poste,Direction\nu1,Chef de projet,Finance\nu2,Assistant,RH\n"), 0600))

	records, summary, err := NewLoader(nil).Load(extraction, []string{ref1, ref2})
	require.NoError(t, err)

	assert.Equal(t, Summary{
		ExtractionRows: 4,
		Duplicates:     1,
		Suspended:      1,
		ReferenceRows:  2,
		Unmatched:      1,
		Accounts:       2,
	}, summary)

	require.Len(t, records, 2)
	assert.Equal(t, "u1", records[0].ID)
	assert.Equal(t, "Developpeur", records[0].ReferenceProfile)
	assert.True(t, date(2024, 6, 1).Equal(*records[0].LastLoginDate))
	assert.Equal(t, "u3", records[1].ID)
	assert.True(t, records[1].HasNoReferenceMatch)
}

func TestLoader_LoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, _, err := NewLoader(nil).Load(filepath.Join(dir, "nope.csv"), []string{"x.csv"})
	require.Error(t, err)

	extraction := filepath.Join(dir, "extraction.csv")
	require.NoError(t, os.WriteFile(extraction, []byte("Identifiant\nu1\n"), 0600))
	_, _, err = NewLoader(nil).Load(extraction, nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func datetime(y int, m time.Month, d, hh, mm int) *time.Time {
	t := time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
	return &t
}
