package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recertify/internal/common"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("USER", "tester")

	s, err := LoadSettings(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultThresholds(), s.Thresholds)
	assert.Equal(t, BackendSQLite, s.Backend)
	assert.Equal(t, "/home/tester/.local/share/recertify/recertify.db", s.DatabasePath)
	assert.Equal(t, s.DatabasePath, s.WhitelistPath)
	assert.Equal(t, "tester", s.Certifier)
	assert.Equal(t, DefaultVocabulary(), s.Vocabulary)
}

func TestLoadSettings_Overrides(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	v := viper.New()
	v.Set("thresholds.similarity", 90.0)
	v.Set("thresholds.inactivity_days", 0)
	v.Set("similarity.metric", "Levenshtein")
	v.Set("whitelist.backend", "CSV")
	v.Set("certifier", "alice")

	s, err := LoadSettings(v)
	require.NoError(t, err)

	assert.InDelta(t, 90.0, s.Thresholds.Similarity, 0)
	assert.Equal(t, 0, s.Thresholds.InactivityDays)
	assert.Equal(t, "levenshtein", s.Thresholds.Metric)
	assert.Equal(t, BackendCSV, s.Backend)
	assert.Equal(t, "/home/tester/.local/share/recertify/whitelist", s.WhitelistPath)
	assert.Equal(t, "alice", s.Certifier)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"zero similarity", "thresholds.similarity", 0.0},
		{"similarity above 100", "thresholds.similarity", 101.0},
		{"negative inactivity", "thresholds.inactivity_days", -1},
		{"unknown metric", "similarity.metric", "cosine"},
		{"unknown backend", "whitelist.backend", "postgres"},
		{"missing vocabulary file", "vocabulary.file", "/nonexistent/vocabulary.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set("database.path", filepath.Join(t.TempDir(), "db.sqlite"))
			v.Set(tt.key, tt.value)

			_, err := LoadSettings(v)
			require.Error(t, err)
		})
	}
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path keeps defaults", func(t *testing.T) {
		v, err := LoadVocabulary("")
		require.NoError(t, err)
		assert.Equal(t, DefaultVocabulary(), v)
	})

	t.Run("sections override independently", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stop_words: [of, the]\nabbreviations:\n  mgr: manager\n"), 0600))

		v, err := LoadVocabulary(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"of", "the"}, v.StopWords)
		assert.Equal(t, map[string]string{"mgr": "manager"}, v.Abbreviations)
		assert.Equal(t, DefaultVocabulary().RoleKeywords, v.RoleKeywords)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stop_words: [of\n"), 0600))

		_, err := LoadVocabulary(path)
		require.Error(t, err)
	})

	t.Run("invalid entries", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("role_keywords: [Chef]\n"), 0600))

		_, err := LoadVocabulary(path)
		require.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestVocabulary_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vocab   Vocabulary
		wantErr string
	}{
		{
			name:  "default is valid",
			vocab: DefaultVocabulary(),
		},
		{
			name:    "accented stop word",
			vocab:   Vocabulary{StopWords: []string{"à"}},
			wantErr: `stop word "à"`,
		},
		{
			name:    "empty expansion",
			vocab:   Vocabulary{Abbreviations: map[string]string{"x": " "}},
			wantErr: `empty expansion for "x"`,
		},
		{
			name:    "expansion reintroduces abbreviation",
			vocab:   Vocabulary{Abbreviations: map[string]string{"dg": "dir general", "dir": "directeur"}},
			wantErr: `expansion of "dg" contains abbreviation "dir"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.vocab.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("RECERTIFY_DATA", "/srv/data")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/whitelist", "/home/tester/whitelist"},
		{"$RECERTIFY_DATA/db.sqlite", "/srv/data/db.sqlite"},
		{"/abs/path", "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
