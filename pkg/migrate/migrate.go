// Package migrate applies the postgres schema with goose. The SQL files are
// embedded, so every binary carries the schema it was built against.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

// SourceDir is where new migrations are written, relative to the repo root.
const SourceDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Runner executes goose commands against one database.
type Runner struct {
	provider *goose.Provider
	logg     *logger.Logger
}

func NewRunner(db *sql.DB, migrations fs.FS, logg *logger.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if err := Validate(migrations); err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider, logg: logg}, nil
}

// Command runs one of up, down, redo, status or version. version needs a
// target and moves up or down to it.
func (r *Runner) Command(ctx context.Context, command, target string) error {
	switch command {
	case "up":
		results, err := r.provider.Up(ctx)
		r.report(ctx, results)
		return wrap(command, err)
	case "down":
		result, err := r.provider.Down(ctx)
		r.report(ctx, []*goose.MigrationResult{result})
		return wrap(command, err)
	case "redo":
		down, err := r.provider.Down(ctx)
		r.report(ctx, []*goose.MigrationResult{down})
		if err != nil {
			return wrap(command, err)
		}
		up, err := r.provider.UpByOne(ctx)
		r.report(ctx, []*goose.MigrationResult{up})
		return wrap(command, err)
	case "status":
		return r.status(ctx)
	case "version":
		return r.migrateTo(ctx, target)
	}
	return fmt.Errorf("unknown migrate command %q", command)
}

func (r *Runner) migrateTo(ctx context.Context, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("current version: %w", err)
	}
	var results []*goose.MigrationResult
	switch {
	case current < version:
		results, err = r.provider.UpTo(ctx, version)
	case current > version:
		results, err = r.provider.DownTo(ctx, version)
	}
	r.report(ctx, results)
	return wrap("version", err)
}

func (r *Runner) status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return wrap("status", err)
	}
	for _, s := range statuses {
		fields := map[string]any{
			"version": s.Source.Version,
			"file":    s.Source.Path,
			"state":   string(s.State),
		}
		if !s.AppliedAt.IsZero() {
			fields["applied_at"] = s.AppliedAt
		}
		r.logg.Info(r.logg.WithFields(ctx, fields), "migrate.status")
	}
	return nil
}

func (r *Runner) report(ctx context.Context, results []*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"file":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migrate.applied")
	}
}

func wrap(command string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", command, err)
}
