package api

import (
	"context"
	"fmt"
	"log/slog"

	"coursepilot/internal/config"
	"coursepilot/internal/store"
)

// DatabaseRequest carries the shared fields of database maintenance
// operations.
type DatabaseRequest struct {
	Config *config.Config
	Logger *slog.Logger
}

// DatabaseStatus reports the schema version together with validation results
// and size metrics.
type DatabaseStatus struct {
	SchemaVersion int
	Report        *store.ValidationReport
	Metrics       *store.DatabaseMetrics
}

// GetDatabaseStatus validates the database and collects its metrics.
func GetDatabaseStatus(ctx context.Context, req DatabaseRequest) (*DatabaseStatus, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	report, err := db.ValidateDatabase(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := db.PerformanceMetrics(ctx)
	if err != nil {
		return nil, err
	}
	return &DatabaseStatus{SchemaVersion: version, Report: report, Metrics: metrics}, nil
}

// OptimizeDatabase runs the routine maintenance pass.
func OptimizeDatabase(ctx context.Context, req DatabaseRequest) error {
	if req.Config == nil {
		return fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Optimize(ctx)
}

// RollbackSchemaRequest targets a schema version to roll back to.
type RollbackSchemaRequest struct {
	Config *config.Config
	Logger *slog.Logger

	TargetVersion int
}

// RollbackSchema reverts the schema to the target version. Opening the store
// afterwards re-applies the rolled-back migrations, so this is primarily a
// recovery tool for a schema left broken by a failed upgrade.
func RollbackSchema(ctx context.Context, req RollbackSchemaRequest) error {
	if req.Config == nil {
		return fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.RollbackTo(ctx, req.TargetVersion)
}
