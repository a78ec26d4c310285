// Package config resolves the recertify configuration: tunables, storage
// locations and the vocabulary used to compare labels.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/recertify/internal/common"
)

// Default tunables.
const (
	DefaultSimilarityThreshold = 85.0
	DefaultInactivityDays      = 120
	DefaultDatabasePath        = "$HOME/.local/share/recertify/recertify.db"
	DefaultCSVDirectory        = "$HOME/.local/share/recertify/whitelist"
)

// Whitelist backends.
const (
	BackendSQLite = "sqlite"
	BackendCSV    = "csv"
)

// Thresholds are the tunable parameters of the classifier.
type Thresholds struct {
	Metric         string
	Similarity     float64
	InactivityDays int
}

// DefaultThresholds returns the default tunables.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Similarity:     DefaultSimilarityThreshold,
		InactivityDays: DefaultInactivityDays,
		Metric:         "indel",
	}
}

// Validate checks the ranges of the tunables.
func (t Thresholds) Validate() error {
	if t.Similarity <= 0 || t.Similarity > 100 {
		return fmt.Errorf("%w: similarity threshold %.1f must be in (0, 100]", common.ErrInvalidConfig, t.Similarity)
	}
	if t.InactivityDays < 0 {
		return fmt.Errorf("%w: inactivity threshold %d must not be negative", common.ErrInvalidConfig, t.InactivityDays)
	}
	switch t.Metric {
	case "indel", "levenshtein":
	default:
		return fmt.Errorf("%w: unknown similarity metric %q", common.ErrInvalidConfig, t.Metric)
	}
	return nil
}

// Settings is the resolved application configuration.
type Settings struct {
	Backend        string
	WhitelistPath  string
	DatabasePath   string
	VocabularyFile string
	Certifier      string
	Vocabulary     Vocabulary
	Thresholds     Thresholds
}

// LoadSettings resolves settings from viper. It follows this precedence:
// 1. Viper configuration (from config file or RECERTIFY_ env vars)
// 2. Direct environment variables (RECERTIFY_CERTIFIER, USER)
// 3. Default values
func LoadSettings(v *viper.Viper) (*Settings, error) {
	if v == nil {
		v = viper.GetViper()
	}

	s := Settings{
		Thresholds: DefaultThresholds(),
		Backend:    BackendSQLite,
	}

	if v.IsSet("thresholds.similarity") {
		s.Thresholds.Similarity = v.GetFloat64("thresholds.similarity")
	}
	if v.IsSet("thresholds.inactivity_days") {
		s.Thresholds.InactivityDays = v.GetInt("thresholds.inactivity_days")
	}
	if m := v.GetString("similarity.metric"); m != "" {
		s.Thresholds.Metric = strings.ToLower(m)
	}
	if b := v.GetString("whitelist.backend"); b != "" {
		s.Backend = strings.ToLower(b)
	}

	s.DatabasePath = v.GetString("database.path")
	if s.DatabasePath == "" {
		s.DatabasePath = DefaultDatabasePath
	}
	s.DatabasePath = ExpandPath(s.DatabasePath)

	s.WhitelistPath = v.GetString("whitelist.path")
	if s.WhitelistPath == "" {
		if s.Backend == BackendCSV {
			s.WhitelistPath = DefaultCSVDirectory
		} else {
			s.WhitelistPath = s.DatabasePath
		}
	}
	s.WhitelistPath = ExpandPath(s.WhitelistPath)

	s.Certifier = v.GetString("certifier")
	if s.Certifier == "" {
		s.Certifier = os.Getenv("USER")
	}

	s.VocabularyFile = v.GetString("vocabulary.file")
	vocab, err := LoadVocabulary(s.VocabularyFile)
	if err != nil {
		return nil, err
	}
	s.Vocabulary = vocab

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the resolved settings.
func (s Settings) Validate() error {
	if err := s.Thresholds.Validate(); err != nil {
		return err
	}
	switch s.Backend {
	case BackendSQLite, BackendCSV:
	default:
		return fmt.Errorf("%w: unknown whitelist backend %q", common.ErrInvalidConfig, s.Backend)
	}
	if strings.TrimSpace(s.WhitelistPath) == "" {
		return fmt.Errorf("%w: whitelist path", common.ErrMissingConfig)
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables in a path.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~", strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
