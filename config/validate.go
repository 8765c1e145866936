package config

import (
	"github.com/percona/percona-dbcopy-mongodb/errors"
)

// ValidateBatchSize validates the upsert batch threshold.
func ValidateBatchSize(size int) error {
	if size < 1 {
		return errors.New("batch size must be at least 1")
	}

	if size > MaxBatchSize {
		return errors.Errorf("batch size must be at most %d, got %d", MaxBatchSize, size)
	}

	return nil
}

// ValidateClone validates the Config for a direct clone.
func ValidateClone(cfg *Config) error {
	switch {
	case cfg.Source == "" && cfg.Target == "":
		return errors.New("source URI and target URI are empty")
	case cfg.Source == "":
		return errors.New("source URI is empty")
	case cfg.Target == "":
		return errors.New("target URI is empty")
	case cfg.SourceDB == "":
		return errors.New("source database name is empty")
	}

	if cfg.Source == cfg.Target && cfg.SourceDB == cfg.ResolvedTargetDB() {
		return errors.New("source and target refer to the same database")
	}

	return ValidateBatchSize(cfg.BatchSize)
}

// ValidateDump validates the Config for a dump.
func ValidateDump(cfg *Config) error {
	switch {
	case cfg.Source == "":
		return errors.New("source URI is empty")
	case cfg.DB == "":
		return errors.New("database name is empty")
	case cfg.Dir == "":
		return errors.New("output directory is empty")
	}

	return nil
}

// ValidateRestore validates the Config for a restore.
func ValidateRestore(cfg *Config) error {
	switch {
	case cfg.Target == "":
		return errors.New("target URI is empty")
	case cfg.DB == "":
		return errors.New("database name is empty")
	case cfg.Dir == "":
		return errors.New("input directory is empty")
	}

	return ValidateBatchSize(cfg.BatchSize)
}
