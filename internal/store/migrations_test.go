package store

import (
	"context"
	"errors"
	"testing"

	"coursepilot/internal/services"
)

func TestFreshDatabaseMigratesToLatest(t *testing.T) {
	s := openTestStore(t)

	version, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("Migrate pass %d: %v", i, err)
		}
	}
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestRollbackToV2AndRemigrate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RollbackTo(ctx, 2); err != nil {
		t.Fatalf("RollbackTo(2): %v", err)
	}
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 2 {
		t.Fatalf("SchemaVersion after rollback = %d, want 2", version)
	}

	// The v4 table must be gone and the v3 indexes dropped.
	var count int
	if err := s.db.QueryRow(
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='video_progress'").Scan(&count); err != nil {
		t.Fatalf("check video_progress: %v", err)
	}
	if count != 0 {
		t.Fatal("video_progress table should be dropped by rollback")
	}
	if err := s.db.QueryRow(
		"SELECT COUNT(1) FROM sqlite_master WHERE type='index' AND name='idx_courses_name_search'").Scan(&count); err != nil {
		t.Fatalf("check index: %v", err)
	}
	if count != 0 {
		t.Fatal("idx_courses_name_search should be dropped by rollback")
	}

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	version, err = s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion after re-migrate = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestRollbackRefusesIrreversibleVersions(t *testing.T) {
	s := openTestStore(t)

	err := s.RollbackTo(context.Background(), 0)
	if err == nil {
		t.Fatal("rollback past version 2 should fail: the early migrations are irreversible")
	}
	var failure *services.MigrationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("error = %v, want MigrationFailure", err)
	}
	if failure.Version != 2 {
		t.Fatalf("failing version = %d, want 2", failure.Version)
	}

	// A refused rollback must leave the schema untouched.
	version, verErr := s.SchemaVersion(context.Background())
	if verErr != nil {
		t.Fatalf("SchemaVersion: %v", verErr)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion = %d, want %d after refused rollback", version, CurrentSchemaVersion)
	}
}

func TestRollbackRejectsTargetOutOfRange(t *testing.T) {
	s := openTestStore(t)

	for _, target := range []int{-1, CurrentSchemaVersion + 1} {
		if err := s.RollbackTo(context.Background(), target); !errors.Is(err, services.ErrInvalidSettings) {
			t.Fatalf("RollbackTo(%d) = %v, want ErrInvalidSettings", target, err)
		}
	}
}

func TestMigrateDetectsChecksumTampering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.db.Exec("UPDATE migration_history SET checksum = 'bogus' WHERE version = 1"); err != nil {
		t.Fatalf("tamper with history: %v", err)
	}

	err := s.Migrate(ctx)
	if err == nil {
		t.Fatal("Migrate should reject a rewritten migration history")
	}
	var failure *services.MigrationFailure
	if !errors.As(err, &failure) || failure.Version != 1 {
		t.Fatalf("error = %v, want MigrationFailure for version 1", err)
	}
}

func TestChecksumDependsOnContent(t *testing.T) {
	a := migration{version: 1, name: "x", apply: "CREATE TABLE a (id)"}
	b := migration{version: 1, name: "x", apply: "CREATE TABLE b (id)"}
	c := migration{version: 2, name: "x", apply: "CREATE TABLE a (id)"}

	if a.checksum() == b.checksum() {
		t.Fatal("different apply text should change the checksum")
	}
	if a.checksum() == c.checksum() {
		t.Fatal("different version should change the checksum")
	}
	if a.checksum() != a.checksum() {
		t.Fatal("checksum should be stable")
	}
	if len(a.checksum()) != 16 {
		t.Fatalf("checksum length = %d, want 16 hex digits", len(a.checksum()))
	}
}

func TestValidateDatabaseHealthy(t *testing.T) {
	s := openTestStore(t)

	report, err := s.ValidateDatabase(context.Background())
	if err != nil {
		t.Fatalf("ValidateDatabase: %v", err)
	}
	if !report.Ok {
		t.Fatalf("fresh database should validate cleanly, errors: %v", report.Errors)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("errors = %v, want none", report.Errors)
	}
}

func TestValidateDatabaseWarnsAboutStatistics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	report, err := s.ValidateDatabase(ctx)
	if err != nil {
		t.Fatalf("ValidateDatabase: %v", err)
	}
	found := false
	for _, w := range report.Warnings {
		if w == "no planner statistics; run ANALYZE" {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want missing-ANALYZE warning before first Optimize", report.Warnings)
	}

	if err := s.Optimize(ctx); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	report, err = s.ValidateDatabase(ctx)
	if err != nil {
		t.Fatalf("ValidateDatabase after optimize: %v", err)
	}
	for _, w := range report.Warnings {
		if w == "no planner statistics; run ANALYZE" {
			t.Fatal("ANALYZE warning should clear after Optimize")
		}
	}
}

func TestPerformanceMetrics(t *testing.T) {
	s := openTestStore(t)
	mustSaveCourse(t, s, testCourse(t, "Metrics Course", 3))

	metrics, err := s.PerformanceMetrics(context.Background())
	if err != nil {
		t.Fatalf("PerformanceMetrics: %v", err)
	}
	if metrics.PageCount <= 0 || metrics.PageSize <= 0 {
		t.Fatalf("page counts = %d/%d, want positive", metrics.PageCount, metrics.PageSize)
	}
	if metrics.SizeBytes != metrics.PageCount*metrics.PageSize {
		t.Fatal("SizeBytes should be page_count * page_size")
	}
	if got := metrics.TableRows["courses"]; got != 1 {
		t.Fatalf("courses rows = %d, want 1", got)
	}
	if metrics.Fragmentation < 0 || metrics.Fragmentation > 1 {
		t.Fatalf("fragmentation = %v, want within [0,1]", metrics.Fragmentation)
	}
}
