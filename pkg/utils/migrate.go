package utils

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// RunMigrations applies embedded goose migrations from dir inside fsys.
// The schema (holds, jobs, calls, turns) carries uniqueness constraints the
// concurrency discipline depends on, so the API process refuses to start if
// migrations fail.
func RunMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}
