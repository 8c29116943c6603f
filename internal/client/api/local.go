package api

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/letterdesk/internal/dbx"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/templates"
)

// Local is the offline backend: the server's SQL template repository over a
// SQLite file.
type Local struct {
	templates.Repository
	manager repomanager.RepositoryManager
}

// OpenLocal opens (or creates) the SQLite file at path and migrates it.
func OpenLocal(ctx context.Context, path string) (*Local, error) {
	m, err := repomanager.Open(ctx, string(dbx.SQLite), path)
	if err != nil {
		return nil, err
	}
	if err := m.RunMigrations(ctx); err != nil {
		m.Close(ctx)
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Local{Repository: m.Templates(), manager: m}, nil
}

func (l *Local) Close() error {
	return l.manager.Close(context.Background())
}
