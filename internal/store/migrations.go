package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// CurrentSchemaVersion is the version a freshly migrated database reports.
const CurrentSchemaVersion = 4

// migration is one schema version step. Rollback is nil for versions that
// cannot be reversed.
type migration struct {
	version  int
	name     string
	apply    string
	verify   func(ctx context.Context, conn *sql.Conn) error
	rollback string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		apply: `
CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	raw_titles TEXT NOT NULL,
	videos TEXT NOT NULL,
	structure TEXT
);
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	settings TEXT NOT NULL,
	items TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	course_id TEXT NOT NULL,
	video_id INTEGER,
	content TEXT NOT NULL,
	timestamp INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_plans_course_id ON plans(course_id);
CREATE INDEX IF NOT EXISTS idx_notes_course_id ON notes(course_id);
CREATE INDEX IF NOT EXISTS idx_notes_video_id ON notes(course_id, video_id);`,
		verify: verifyTables("courses", "plans", "notes"),
	},
	{
		version: 2,
		name:    "enhance_video_metadata",
		// Older rows predate playlist_id and original_index in the videos
		// JSON. Decoding defaults them, so the schema step only needs to
		// exist as a version marker that forces a rewrite on next save.
		apply: `
CREATE TABLE IF NOT EXISTS metadata_backfill (
	course_id TEXT PRIMARY KEY,
	backfilled_at INTEGER NOT NULL
);`,
		verify: verifyTables("metadata_backfill"),
	},
	{
		version: 3,
		name:    "performance_indexes",
		apply: `
CREATE INDEX IF NOT EXISTS idx_courses_name_search ON courses(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_notes_content_search_improved ON notes(course_id, content) WHERE length(content) > 3;
CREATE INDEX IF NOT EXISTS idx_plans_course_created_covering ON plans(course_id, created_at DESC, id);`,
		verify: verifyIndexes("idx_courses_name_search", "idx_notes_content_search_improved", "idx_plans_course_created_covering"),
		rollback: `
DROP INDEX IF EXISTS idx_courses_name_search;
DROP INDEX IF EXISTS idx_notes_content_search_improved;
DROP INDEX IF EXISTS idx_plans_course_created_covering;`,
	},
	{
		version: 4,
		name:    "video_progress",
		apply: `
CREATE TABLE IF NOT EXISTS video_progress (
	plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	session_index INTEGER NOT NULL,
	video_index INTEGER NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	UNIQUE(plan_id, session_index, video_index)
);
CREATE INDEX IF NOT EXISTS idx_video_progress_plan ON video_progress(plan_id);`,
		verify:   verifyTables("video_progress"),
		rollback: `DROP TABLE IF EXISTS video_progress;`,
	},
}

func verifyTables(names ...string) func(ctx context.Context, conn *sql.Conn) error {
	return func(ctx context.Context, conn *sql.Conn) error {
		for _, name := range names {
			var count int
			err := conn.QueryRowContext(ctx,
				"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
			if err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("table %s missing after migration", name)
			}
		}
		return nil
	}
}

func verifyIndexes(names ...string) func(ctx context.Context, conn *sql.Conn) error {
	return func(ctx context.Context, conn *sql.Conn) error {
		for _, name := range names {
			var count int
			err := conn.QueryRowContext(ctx,
				"SELECT COUNT(1) FROM sqlite_master WHERE type='index' AND name=?", name).Scan(&count)
			if err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("index %s missing after migration", name)
			}
		}
		return nil
	}
}

// checksum fingerprints a migration. The hash chains version, name, and the
// apply text so reordering or editing history is detectable.
func (m *migration) checksum() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%s", m.version, m.name, m.apply)
	return fmt.Sprintf("%016x", h.Sum64())
}

// SchemaVersion reports the highest applied migration version, zero for a
// fresh database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='migration_history'").Scan(&exists)
	if err != nil {
		return 0, services.Wrap(services.ErrDatabase, "store", "schema", "check history table", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	err = s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM migration_history").Scan(&version)
	if err != nil {
		return 0, services.Wrap(services.ErrDatabase, "store", "schema", "read schema version", err)
	}
	return int(version.Int64), nil
}

// Migrate applies every pending migration in order. Each version runs inside
// a named savepoint: a failed apply or verify rolls that version back and
// aborts with the failing version attached.
func (s *Store) Migrate(ctx context.Context) error {
	ctx = ensureContext(ctx)
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS migration_history (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at INTEGER NOT NULL,
	checksum TEXT NOT NULL
);`); err != nil {
		return services.Wrap(services.ErrDatabase, "store", "migrate", "ensure history table", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "migrate", "acquire connection", err)
	}
	defer conn.Close()

	for _, m := range migrations {
		if m.version <= current {
			if err := s.verifyChecksum(ctx, &m); err != nil {
				return err
			}
			continue
		}
		if err := s.applyOne(ctx, conn, &m); err != nil {
			return err
		}
		s.logger.Info("migration applied",
			logging.Int("version", m.version),
			logging.String("name", m.name))
	}
	return nil
}

func (s *Store) applyOne(ctx context.Context, conn *sql.Conn, m *migration) error {
	savepoint := fmt.Sprintf("migration_v%d", m.version)
	if _, err := conn.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return &services.MigrationFailure{Version: m.version, Cause: err}
	}
	fail := func(cause error) error {
		_, _ = conn.ExecContext(ctx, "ROLLBACK TO "+savepoint)
		_, _ = conn.ExecContext(ctx, "RELEASE "+savepoint)
		return &services.MigrationFailure{Version: m.version, Cause: cause}
	}

	if _, err := conn.ExecContext(ctx, m.apply); err != nil {
		return fail(err)
	}
	if m.verify != nil {
		if err := m.verify(ctx, conn); err != nil {
			return fail(err)
		}
	}
	if _, err := conn.ExecContext(ctx,
		"INSERT INTO migration_history (version, name, applied_at, checksum) VALUES (?, ?, ?, ?)",
		m.version, m.name, time.Now().Unix(), m.checksum()); err != nil {
		return fail(err)
	}
	if _, err := conn.ExecContext(ctx, "RELEASE "+savepoint); err != nil {
		return &services.MigrationFailure{Version: m.version, Cause: err}
	}
	return nil
}

// verifyChecksum guards against history rewrites: an applied migration whose
// recorded checksum no longer matches the code is a hard error.
func (s *Store) verifyChecksum(ctx context.Context, m *migration) error {
	var recorded string
	err := s.db.QueryRowContext(ctx,
		"SELECT checksum FROM migration_history WHERE version = ?", m.version).Scan(&recorded)
	if err == sql.ErrNoRows {
		// Version counted as applied but unrecorded; tolerate legacy
		// databases by backfilling the record.
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO migration_history (version, name, applied_at, checksum) VALUES (?, ?, ?, ?)",
			m.version, m.name, time.Now().Unix(), m.checksum())
		if err != nil {
			return &services.MigrationFailure{Version: m.version, Cause: err}
		}
		return nil
	}
	if err != nil {
		return &services.MigrationFailure{Version: m.version, Cause: err}
	}
	if recorded != m.checksum() {
		return &services.MigrationFailure{Version: m.version,
			Cause: fmt.Errorf("checksum mismatch: recorded %s, code %s", recorded, m.checksum())}
	}
	return nil
}

// RollbackTo unwinds migrations down to target, newest first. It refuses the
// whole request when any step in the range lacks a rollback.
func (s *Store) RollbackTo(ctx context.Context, target int) error {
	ctx = ensureContext(ctx)
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if target < 0 || target > current {
		return services.Wrap(services.ErrInvalidSettings, "store", "rollback",
			fmt.Sprintf("target version %d outside 0..%d", target, current), nil)
	}

	var steps []*migration
	for i := len(migrations) - 1; i >= 0; i-- {
		m := &migrations[i]
		if m.version > current || m.version <= target {
			continue
		}
		if m.rollback == "" {
			return &services.MigrationFailure{Version: m.version,
				Cause: fmt.Errorf("migration %s cannot be rolled back", m.name)}
		}
		steps = append(steps, m)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "rollback", "acquire connection", err)
	}
	defer conn.Close()

	for _, m := range steps {
		savepoint := fmt.Sprintf("rollback_v%d", m.version)
		if _, err := conn.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
			return &services.MigrationFailure{Version: m.version, Cause: err}
		}
		if _, err := conn.ExecContext(ctx, m.rollback); err != nil {
			_, _ = conn.ExecContext(ctx, "ROLLBACK TO "+savepoint)
			_, _ = conn.ExecContext(ctx, "RELEASE "+savepoint)
			return &services.MigrationFailure{Version: m.version, Cause: err}
		}
		if _, err := conn.ExecContext(ctx, "DELETE FROM migration_history WHERE version = ?", m.version); err != nil {
			_, _ = conn.ExecContext(ctx, "ROLLBACK TO "+savepoint)
			_, _ = conn.ExecContext(ctx, "RELEASE "+savepoint)
			return &services.MigrationFailure{Version: m.version, Cause: err}
		}
		if _, err := conn.ExecContext(ctx, "RELEASE "+savepoint); err != nil {
			return &services.MigrationFailure{Version: m.version, Cause: err}
		}
		s.logger.Info("migration rolled back", logging.Int("version", m.version))
	}
	return nil
}

// ValidationReport is the outcome of a database health check.
type ValidationReport struct {
	Ok       bool
	Errors   []string
	Warnings []string
}

// ValidateDatabase runs integrity and foreign key checks and adds heuristic
// warnings about missing indexes and stale planner statistics.
func (s *Store) ValidateDatabase(ctx context.Context) (*ValidationReport, error) {
	ctx = ensureContext(ctx)
	report := &ValidationReport{Ok: true}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "validate", "integrity check", err)
	}
	if integrity != "ok" {
		report.Ok = false
		report.Errors = append(report.Errors, "integrity check: "+integrity)
	}

	rows, err := s.db.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "validate", "foreign key check", err)
	}
	defer rows.Close()
	for rows.Next() {
		var table string
		var rowid sql.NullInt64
		var parent string
		var fkid int
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "validate", "scan fk violation", err)
		}
		report.Ok = false
		report.Errors = append(report.Errors, fmt.Sprintf("foreign key violation: %s -> %s", table, parent))
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "validate", "iterate fk violations", err)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version >= 3 {
		for _, idx := range []string{"idx_courses_name_search", "idx_plans_course_created_covering"} {
			var count int
			if err := s.db.QueryRowContext(ctx,
				"SELECT COUNT(1) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count); err != nil {
				return nil, services.Wrap(services.ErrDatabase, "store", "validate", "check index", err)
			}
			if count == 0 {
				report.Warnings = append(report.Warnings, "expected index missing: "+idx)
			}
		}
	}

	var statTables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='sqlite_stat1'").Scan(&statTables); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "validate", "check stats", err)
	}
	if statTables == 0 {
		report.Warnings = append(report.Warnings, "no planner statistics; run ANALYZE")
	}
	return report, nil
}
