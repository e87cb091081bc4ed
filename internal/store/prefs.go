package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"coursepilot/internal/learning"
	"coursepilot/internal/services"
)

// Preference tables live outside the versioned migrations; the learning
// subsystem manages its own schema and tolerates being created lazily.
const preferenceSchema = `
CREATE TABLE IF NOT EXISTS clustering_preferences (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS clustering_feedback (
	id TEXT PRIMARY KEY,
	course_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	rating REAL NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_course_created
	ON clustering_feedback (course_id, created_at);
CREATE TABLE IF NOT EXISTS ab_test_configs (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	active INTEGER NOT NULL,
	payload TEXT NOT NULL,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ab_test_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	test_id TEXT NOT NULL,
	course_id TEXT NOT NULL,
	variant TEXT NOT NULL,
	payload TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ab_results_test
	ON ab_test_results (test_id);
`

func (s *Store) ensurePreferenceTables(ctx context.Context) error {
	if _, err := s.exec(ctx, preferenceSchema); err != nil {
		return services.Wrap(services.ErrDatabase, "store", "prefs_schema", "create preference tables", err)
	}
	return nil
}

// SavePreferences persists the single preference record, replacing any
// previous one.
func (s *Store) SavePreferences(ctx context.Context, prefs learning.Preferences) error {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(prefs)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_prefs", "encode preferences", err)
	}
	_, err = s.exec(ctx, `
INSERT INTO clustering_preferences (id, payload, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_prefs", "upsert preferences", err)
	}
	return nil
}

// LoadPreferences returns the stored record, or the defaults when none has
// been saved yet. The second return reports whether a stored record existed.
func (s *Store) LoadPreferences(ctx context.Context) (learning.Preferences, bool, error) {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return learning.Preferences{}, false, err
	}
	var payload string
	err := s.queryRow(ctx, "SELECT payload FROM clustering_preferences WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return learning.DefaultPreferences(), false, nil
	}
	if err != nil {
		return learning.Preferences{}, false, services.Wrap(services.ErrDatabase, "store", "load_prefs", "query preferences", err)
	}
	var prefs learning.Preferences
	if err := json.Unmarshal([]byte(payload), &prefs); err != nil {
		return learning.Preferences{}, false, services.Wrap(services.ErrDatabase, "store", "load_prefs", "decode preferences", err)
	}
	prefs.Clamp()
	return prefs, true, nil
}

// SaveFeedback appends one feedback event to the history.
func (s *Store) SaveFeedback(ctx context.Context, fb learning.Feedback) error {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(fb)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_feedback", "encode feedback", err)
	}
	_, err = s.exec(ctx, `
INSERT INTO clustering_feedback (id, course_id, kind, rating, payload, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.CourseID, string(fb.Kind), fb.Rating, string(payload),
		fb.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_feedback", "insert feedback", err)
	}
	return nil
}

// FeedbackHistory returns every recorded feedback event, oldest first.
func (s *Store) FeedbackHistory(ctx context.Context) ([]learning.Feedback, error) {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, "SELECT payload FROM clustering_feedback ORDER BY created_at, id")
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "feedback_history", "query feedback", err)
	}
	defer rows.Close()

	var out []learning.Feedback
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "feedback_history", "scan feedback", err)
		}
		var fb learning.Feedback
		if err := json.Unmarshal([]byte(payload), &fb); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "feedback_history", "decode feedback", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "feedback_history", "iterate feedback", err)
	}
	return out, nil
}

// SaveABTest upserts an experiment's full state.
func (s *Store) SaveABTest(ctx context.Context, test learning.ABTest) error {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(test)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_ab_test", "encode test", err)
	}
	active := 0
	if test.Active {
		active = 1
	}
	_, err = s.exec(ctx, `
INSERT INTO ab_test_configs (id, name, active, payload, started_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, active = excluded.active, payload = excluded.payload`,
		test.ID, test.Name, active, string(payload), test.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_ab_test", "upsert test", err)
	}
	return nil
}

// ListABTests returns every stored experiment, oldest first.
func (s *Store) ListABTests(ctx context.Context) ([]learning.ABTest, error) {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, "SELECT payload FROM ab_test_configs ORDER BY started_at, id")
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "list_ab_tests", "query tests", err)
	}
	defer rows.Close()

	var out []learning.ABTest
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "list_ab_tests", "scan test", err)
		}
		var test learning.ABTest
		if err := json.Unmarshal([]byte(payload), &test); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "list_ab_tests", "decode test", err)
		}
		out = append(out, test)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "list_ab_tests", "iterate tests", err)
	}
	return out, nil
}

// SaveABResult appends one experiment result.
func (s *Store) SaveABResult(ctx context.Context, result learning.ABResult) error {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_ab_result", "encode result", err)
	}
	_, err = s.exec(ctx, `
INSERT INTO ab_test_results (test_id, course_id, variant, payload, recorded_at)
VALUES (?, ?, ?, ?, ?)`,
		result.TestID, result.CourseID, string(result.Variant), string(payload),
		result.RecordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_ab_result", "insert result", err)
	}
	return nil
}

// ABResults returns every stored result, oldest first.
func (s *Store) ABResults(ctx context.Context) ([]learning.ABResult, error) {
	if err := s.ensurePreferenceTables(ctx); err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, "SELECT payload FROM ab_test_results ORDER BY id")
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "ab_results", "query results", err)
	}
	defer rows.Close()

	var out []learning.ABResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "ab_results", "scan result", err)
		}
		var result learning.ABResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "ab_results", "decode result", err)
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "ab_results", "iterate results", err)
	}
	return out, nil
}

// LoadEngine rebuilds a learning engine from everything persisted: the
// preference record, the feedback history, and the A/B state.
func (s *Store) LoadEngine(ctx context.Context, logger *slog.Logger) (*learning.Engine, error) {
	prefs, _, err := s.LoadPreferences(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.FeedbackHistory(ctx)
	if err != nil {
		return nil, err
	}
	tests, err := s.ListABTests(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.ABResults(ctx)
	if err != nil {
		return nil, err
	}

	engine := learning.NewEngineWith(prefs, logger)
	engine.RestoreHistory(history)
	engine.RestoreABState(tests, results)
	return engine, nil
}

// SaveEngine persists the engine's full state back to the database.
func (s *Store) SaveEngine(ctx context.Context, engine *learning.Engine) error {
	if err := s.SavePreferences(ctx, engine.Preferences()); err != nil {
		return err
	}
	for _, test := range engine.ABTests() {
		if err := s.SaveABTest(ctx, test); err != nil {
			return err
		}
	}
	return nil
}
