package store

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Migrate runs all .sql files in migrationsDir in lexical order.
func (s *Store) Migrate(migrationsDir string) error {
	return s.MigrateFS(context.Background(), os.DirFS(migrationsDir))
}

// MigrateFS applies every not-yet-recorded .sql file found at the root of fsys.
func (s *Store) MigrateFS(ctx context.Context, fsys fs.FS) error {
	_, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files) // 001, 002, ...

	for _, file := range files {
		if isApplied(ctx, s.DB, file) {
			slog.Debug("Skipping already applied migration", "file", file)
			continue
		}

		slog.Info("Applying migration", "file", file)
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		tx, err := s.DB.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			// ALTER ... ADD COLUMN on a column that exists: record and move on
			if !strings.Contains(err.Error(), "duplicate column name") {
				return fmt.Errorf("failed to execute migration %s: %w", file, err)
			}
			slog.Warn("Column likely already exists, marking as applied", "file", file)
		} else if err := tx.Commit(); err != nil {
			return err
		}

		if _, err := s.DB.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, file); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}
	}

	return nil
}

func isApplied(ctx context.Context, db *sqlx.DB, version string) bool {
	var exists int
	err := db.GetContext(ctx, &exists, `SELECT 1 FROM schema_migrations WHERE version = ?`, version)
	return err == nil
}
