package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/letterdesk/internal/dbx"
	"github.com/dmitrijs2005/letterdesk/internal/server/migrations"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/letters"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/templates"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends database/sql backed repositories and exposes a
// schema migration hook.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// NewSQLRepositoryManager constructs a manager over an open database.
func NewSQLRepositoryManager(db *sql.DB, d dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, dialect: d}
}

// Templates returns a templates.Repository bound to the database.
func (m *SQLRepositoryManager) Templates() templates.Repository {
	return templates.NewSQLRepository(m.db, m.dialect)
}

// Letters returns a letters.Repository bound to the database.
func (m *SQLRepositoryManager) Letters() letters.Repository {
	return letters.NewSQLRepository(m.db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the database.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

// Close closes the database.
func (m *SQLRepositoryManager) Close(context.Context) error {
	return m.db.Close()
}
