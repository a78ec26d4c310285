package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/recertify/internal/config"
	"github.com/Veraticus/recertify/internal/similarity"
	"github.com/Veraticus/recertify/internal/storage"
	"github.com/Veraticus/recertify/internal/textnorm"
	"github.com/Veraticus/recertify/internal/whitelist"
	"github.com/Veraticus/recertify/internal/whitelist/csvstore"
)

// services holds what the commands need, opened from the settings.
type services struct {
	settings   *config.Settings
	db         *storage.SQLiteStorage
	repository whitelist.Repository
	whitelist  *whitelist.Store
	normalizer *textnorm.Normalizer
	semantic   *similarity.KeywordOverlap
	scorer     *similarity.Scorer
	closers    []func() error
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

// newComparison builds the normalizer, semantic detector and scorer.
func newComparison(settings *config.Settings) (*textnorm.Normalizer, *similarity.KeywordOverlap, *similarity.Scorer, error) {
	metric, err := similarity.MetricByName(settings.Thresholds.Metric)
	if err != nil {
		return nil, nil, nil, err
	}
	n := textnorm.New(settings.Vocabulary)
	semantic := similarity.NewKeywordOverlap(n, settings.Vocabulary.RoleKeywords)
	scorer := similarity.NewScorer(n, semantic,
		similarity.WithMetric(metric),
		similarity.WithThreshold(settings.Thresholds.Similarity))
	return n, semantic, scorer, nil
}

// initStorage opens the run history database and the whitelist repository,
// then loads the whitelist.
func initStorage(ctx context.Context) (*services, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	svc := &services{settings: settings}
	svc.normalizer, svc.semantic, svc.scorer, err = newComparison(settings)
	if err != nil {
		return nil, err
	}

	svc.db, err = openDatabase(ctx, settings.DatabasePath)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, svc.db.Close)

	switch settings.Backend {
	case config.BackendCSV:
		store, err := csvstore.New(settings.WhitelistPath)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.repository = store
	default:
		if settings.WhitelistPath == settings.DatabasePath {
			svc.repository = svc.db
			break
		}
		wl, err := openDatabase(ctx, settings.WhitelistPath)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, wl.Close)
		svc.repository = wl
	}

	svc.whitelist = whitelist.NewStore(svc.repository)
	if err := svc.whitelist.Load(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func openDatabase(ctx context.Context, path string) (*storage.SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// Close releases every opened store.
func (s *services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
