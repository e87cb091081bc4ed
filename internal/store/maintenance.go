package store

import (
	"context"
	"fmt"

	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// reindexPageThreshold gates REINDEX; small databases do not benefit.
const reindexPageThreshold = 1000

// DatabaseMetrics reports storage-level health numbers.
type DatabaseMetrics struct {
	PageCount     int64            `json:"page_count"`
	PageSize      int64            `json:"page_size"`
	FreelistCount int64            `json:"freelist_count"`
	SizeBytes     int64            `json:"size_bytes"`
	TableRows     map[string]int64 `json:"table_rows"`
	Fragmentation float64          `json:"fragmentation"`
}

// Optimize runs routine maintenance: statistics refresh, an index rebuild
// for larger databases, the query-planner optimize pass, and a final
// integrity check.
func (s *Store) Optimize(ctx context.Context) error {
	if _, err := s.exec(ctx, "ANALYZE"); err != nil {
		return services.Wrap(services.ErrDatabase, "store", "optimize", "analyze", err)
	}

	var pageCount int64
	if err := s.queryRow(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return services.Wrap(services.ErrDatabase, "store", "optimize", "read page count", err)
	}
	if pageCount > reindexPageThreshold {
		if _, err := s.exec(ctx, "REINDEX"); err != nil {
			return services.Wrap(services.ErrDatabase, "store", "optimize", "reindex", err)
		}
		s.logger.Info("rebuilt indexes", logging.Int64("page_count", pageCount))
	}

	if _, err := s.exec(ctx, "PRAGMA optimize"); err != nil {
		return services.Wrap(services.ErrDatabase, "store", "optimize", "pragma optimize", err)
	}

	var result string
	if err := s.queryRow(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return services.Wrap(services.ErrDatabase, "store", "optimize", "integrity check", err)
	}
	if result != "ok" {
		return services.Wrap(services.ErrDatabase, "store", "optimize",
			fmt.Sprintf("integrity check failed: %s", result), nil)
	}
	return nil
}

// PerformanceMetrics gathers page counts, per-table row counts, and a
// fragmentation estimate (freelist pages over total pages).
func (s *Store) PerformanceMetrics(ctx context.Context) (*DatabaseMetrics, error) {
	metrics := &DatabaseMetrics{TableRows: make(map[string]int64)}

	for pragma, dest := range map[string]*int64{
		"PRAGMA page_count":     &metrics.PageCount,
		"PRAGMA page_size":      &metrics.PageSize,
		"PRAGMA freelist_count": &metrics.FreelistCount,
	} {
		if err := s.queryRow(ctx, pragma).Scan(dest); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "metrics", pragma, err)
		}
	}
	metrics.SizeBytes = metrics.PageCount * metrics.PageSize
	if metrics.PageCount > 0 {
		metrics.Fragmentation = float64(metrics.FreelistCount) / float64(metrics.PageCount)
	}

	rows, err := s.query(ctx, `
SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "metrics", "list tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "metrics", "scan table name", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "metrics", "iterate tables", err)
	}

	for _, table := range tables {
		var count int64
		// Table names come from sqlite_master, not user input.
		if err := s.queryRow(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %q", table)).Scan(&count); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "metrics",
				fmt.Sprintf("count rows in %s", table), err)
		}
		metrics.TableRows[table] = count
	}
	return metrics, nil
}
