package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// Schema Overview:
//
// Each driver ships a single LATEST.sql under migration/{driver}/.
// Migrate applies it when the driver reports the database is not initialized.
// Every statement is written with IF NOT EXISTS, so re-applying is harmless.

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the full schema for new installations.
const LatestSchemaFileName = "LATEST.sql"

// Migrate applies the embedded schema if the database has not been initialized yet.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	slog.Info("database initialized successfully", slog.String("driver", s.driverName()))
	return nil
}

func (s *Store) driverName() string {
	if s.profile == nil || s.profile.Driver == "" {
		return "sqlite"
	}
	return s.profile.Driver
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.driverName())
}

// execute runs every statement of a schema file in order.
// lib/pq rejects several statements in one extended-protocol call, so they are sent one by one.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a schema script on statement-terminating semicolons.
// Comment lines are dropped. Quoted semicolons are not supported.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
