package db

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(filepath.Join(t.TempDir(), "cronograma-test.db"), quietLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}

func TestOpenSQLiteCreatesEnrollmentsSchema(t *testing.T) {
	database := openTestDatabase(t)

	if !database.Migrator().HasTable("enrollments") {
		t.Fatal("expected enrollments table")
	}
	for _, column := range []string{"name", "email", "cpf", "password_hash", "whatsapp", "instagram", "enrollment_date"} {
		if !database.Migrator().HasColumn("enrollments", column) {
			t.Fatalf("expected enrollments.%s", column)
		}
	}
	for _, index := range []string{"idx_enrollments_email", "idx_enrollments_cpf"} {
		if !database.Migrator().HasIndex("enrollments", index) {
			t.Fatalf("expected index %s", index)
		}
	}

	var versions []int
	if err := database.Table("schema_migrations").Pluck("version", &versions).Error; err != nil {
		t.Fatalf("load versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != 1 {
		t.Fatalf("expected migration 1 recorded, got %v", versions)
	}
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	for attempt := 0; attempt < 2; attempt++ {
		database, err := OpenSQLite(path, quietLogger())
		if err != nil {
			t.Fatalf("open attempt %d: %v", attempt, err)
		}
		sqlDB, err := database.DB()
		if err != nil {
			t.Fatalf("sql db: %v", err)
		}
		_ = sqlDB.Close()
	}
}

func TestApplyMigrationsSkipsExistingColumns(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "raw.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	source := fstest.MapFS{
		"001_add_body.sql":   {Data: []byte("ALTER TABLE notes ADD COLUMN body TEXT;")},
		"002_add_author.sql": {Data: []byte("ALTER TABLE notes ADD COLUMN author TEXT;")},
		"README.md":          {Data: []byte("ignored")},
	}
	if err := applyMigrations(database, source); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !database.Migrator().HasColumn("notes", "author") {
		t.Fatal("expected author column")
	}

	var count int64
	if err := database.Table("schema_migrations").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", count)
	}
}

func TestReadMigrationsRejectsDuplicateVersions(t *testing.T) {
	source := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"1_b.sql":   {Data: []byte("SELECT 1;")},
	}
	if _, err := readMigrations(source); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (id INT);\n\n ; CREATE INDEX i ON a(id);  ")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
}
