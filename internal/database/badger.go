package database

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/stemsi/formbuilder/internal/config"
)

// badgerLogger routes badger's internal messages through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(format, args...)
}

// NewBadgerDB opens the embedded store, on disk at cfg.BadgerPath or purely
// in memory when cfg.BadgerInMemory is set.
func NewBadgerDB(cfg *config.Config, log zerolog.Logger) (*badger.DB, error) {
	var opts badger.Options
	if cfg.BadgerInMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.BadgerPath == "" {
			return nil, fmt.Errorf("badger path is required for a persistent store")
		}
		if err := os.MkdirAll(cfg.BadgerPath, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.BadgerPath, err)
		}
		opts = badger.DefaultOptions(cfg.BadgerPath).WithSyncWrites(true)
	}
	opts = opts.
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log: log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	log.Info().
		Str("path", cfg.BadgerPath).
		Bool("in_memory", cfg.BadgerInMemory).
		Msg("Badger opened")

	return db, nil
}
