package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"

	"github.com/dmitrijs2005/letterdesk/internal/client/api"
	"github.com/dmitrijs2005/letterdesk/internal/client/config"
	"github.com/dmitrijs2005/letterdesk/internal/editor"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/preview"
	"github.com/dmitrijs2005/letterdesk/internal/wire"
	"github.com/dmitrijs2005/letterdesk/internal/zonestore"
)

// remoteAPI is the part of the server surface that has no offline
// counterpart.
type remoteAPI interface {
	ExportLetter(ctx context.Context, letterID, templateID string) (*wire.ExportResponse, error)
	Preview(ctx context.Context, templateID string, selected layout.ElementID) ([]byte, error)
}

// templateCreator is implemented by the offline backend.
type templateCreator interface {
	CreateTemplate(ctx context.Context, t layout.Template) error
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	backend  zonestore.Persistence
	remote   remoteAPI
	creator  templateCreator
	closer   io.Closer
	store    *zonestore.Store
	engine   *editor.Engine
	renderer *preview.Renderer
	out      io.Writer
}

func editorName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "editor"
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewText(os.Stderr, level)

	var backend zonestore.Persistence
	var closer io.Closer
	switch c.Mode {
	case config.ModeSQLite:
		l, err := api.OpenLocal(ctx, c.LocalDBPath)
		if err != nil {
			return nil, fmt.Errorf("error opening local database: %w", err)
		}
		backend, closer = l, l
	default:
		g, err := api.NewGRPCClient(c.ServerEndpointAddr, c.SecretKey, editorName())
		if err != nil {
			return nil, err
		}
		backend, closer = g, g
	}

	a, err := newApp(c, backend, logger, os.Stdout)
	if err != nil {
		closer.Close()
		return nil, err
	}
	a.closer = closer
	return a, nil
}

// newApp wires the editor over backend. Export and server preview are
// available when backend implements them.
func newApp(c *config.Config, backend zonestore.Persistence, logger logging.Logger, out io.Writer) (*App, error) {
	r, err := preview.New(layout.A4, c.Zoom)
	if err != nil {
		return nil, err
	}
	store := zonestore.New(backend, layout.A4, logger)
	engine := editor.NewEngine(store, layout.A4)
	engine.SetViewport(editor.Viewport{Zoom: c.Zoom})

	a := &App{
		config:   c,
		logger:   logger.With("module", "cli"),
		backend:  backend,
		store:    store,
		engine:   engine,
		renderer: r,
		out:      out,
	}
	a.remote, _ = backend.(remoteAPI)
	a.creator, _ = backend.(templateCreator)

	store.OnSaved(func(id string) {
		a.logger.Info(context.Background(), "template saved", "template", id)
	})
	return a, nil
}

// withTimeout bounds one backend call.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) getStatus() string {
	snap, err := a.store.Snapshot()
	if err != nil {
		return "(no template)"
	}
	s := snap.ID
	if a.store.Dirty() {
		s += "*"
	}
	if st := a.engine.State(); st != editor.StateIdle {
		s += " " + st.String()
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.closer != nil {
			a.closer.Close()
		}
	}()

	if a.config.TemplateID != "" {
		if err := a.Load(ctx, []string{a.config.TemplateID}); err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
	}

	var prompt func() string
	if isTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(a.out, "letterdesk editor (type 'help' for commands)")
		prompt = a.getStatus
	}
	runREPL(ctx, a, prompt, bufio.NewScanner(os.Stdin))
}
