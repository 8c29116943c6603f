// Package repomanager vends the template and letter repositories for the
// configured backend and runs its schema setup.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/letterdesk/internal/dbx"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/letters"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/templates"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Templates() templates.Repository
	Letters() letters.Repository
	Close(ctx context.Context) error
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the backend named by driver: postgres, mysql, sqlite or
// mongo. For mongo the dsn is a connection URI.
func Open(ctx context.Context, driver, dsn string) (RepositoryManager, error) {
	if driver == "mongo" || driver == "mongodb" {
		return NewMongoRepositoryManager(ctx, dsn)
	}

	d, err := dbx.ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlOpen(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if d == dbx.SQLite {
		db.SetMaxOpenConns(1)
	}
	return NewSQLRepositoryManager(db, d), nil
}
