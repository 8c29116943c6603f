// Package server wires the template service: storage backends, the
// compositing pipeline, the gRPC endpoint and the scheduled zone audit.
// It handles graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/compose"
	"github.com/dmitrijs2005/letterdesk/internal/export"
	"github.com/dmitrijs2005/letterdesk/internal/fonts"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/preview"
	"github.com/dmitrijs2005/letterdesk/internal/server/config"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/letterdesk/internal/server/services"
	"github.com/dmitrijs2005/letterdesk/internal/symbol"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	gs "github.com/dmitrijs2005/letterdesk/internal/server/grpc"
)

// symbolMemoryCacheSize bounds the in-process symbol cache used without Redis.
const symbolMemoryCacheSize = 512

type App struct {
	config    *config.Config
	logger    logging.Logger
	repos     repomanager.RepositoryManager
	redis     *redis.Client
	fonts     *fonts.Registry
	templates *services.TemplateService
	exports   *services.ExportService
	auditor   *services.Auditor
}

// newStorage picks the asset store and the delivery target.
func newStorage(c *config.Config) (services.AssetStore, services.Deliverer, error) {
	if c.ExportDir != "" {
		ls, err := services.NewLocalStorage(c.ExportDir)
		if err != nil {
			return nil, nil, fmt.Errorf("export dir: %w", err)
		}
		return ls, ls, nil
	}
	s3 := services.NewS3Storage(c)
	return s3, s3, nil
}

// newSymbolCache keeps symbols in Redis when an address is configured.
func newSymbolCache(c *config.Config) (symbol.Cache, *redis.Client) {
	if c.RedisAddr == "" {
		return symbol.NewMemoryCache(symbolMemoryCacheSize), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
	return symbol.NewRedisCache(rdb, c.SymbolCacheTTL), rdb
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewJSON(os.Stdout, level)

	repos, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		repos.Close(ctx)
		return nil, fmt.Errorf("migrations: %w", err)
	}

	assets, deliverer, err := newStorage(c)
	if err != nil {
		repos.Close(ctx)
		return nil, err
	}

	reg, err := fonts.NewRegistry(c.FontDir, logger)
	if err != nil {
		repos.Close(ctx)
		return nil, fmt.Errorf("fonts: %w", err)
	}

	gen, err := symbol.NewHTTPGenerator(c.SymbolEndpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		repos.Close(ctx)
		return nil, fmt.Errorf("symbol endpoint: %w", err)
	}
	cache, rdb := newSymbolCache(c)

	format, err := export.ParseFormat(c.ExportFormat)
	if err != nil {
		repos.Close(ctx)
		return nil, err
	}

	renderer, err := preview.New(layout.A4, c.PreviewZoom)
	if err != nil {
		repos.Close(ctx)
		return nil, fmt.Errorf("preview: %w", err)
	}

	busy := &services.InFlight{}
	ts := services.NewTemplateService(repos.Templates(), assets, renderer, layout.A4, busy, logger)
	es := services.NewExportService(services.ExportDeps{
		Templates: repos.Templates(),
		Letters:   repos.Letters(),
		Assets:    assets,
		Symbols:   symbol.NewCached(gen, cache, logger),
		Composer:  compose.New(reg, compose.Options{
			Page: layout.A4, Scale: c.OutputScale, FontTimeout: c.FontTimeout, BodyFamily: c.BodyFont,
		}, logger),
		Exporter:  export.New(export.Options{Page: layout.A4, Format: format}, logger),
		Deliverer: deliverer,
		Busy:      busy,
	}, logger)

	return &App{
		config:    c,
		logger:    logger,
		repos:     repos,
		redis:     rdb,
		fonts:     reg,
		templates: ts,
		exports:   es,
		auditor:   services.NewAuditor(repos.Templates(), layout.A4, c.StrayZoneAge, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.templates, app.exports,
		app.config.SecretKey, app.config.MaxMessageSize)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) watchFonts(ctx context.Context) {
	if err := app.fonts.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Warn(ctx, "font watcher stopped", "error", err)
	}
}

// runAudit schedules the stray zone audit until ctx is done.
func (app *App) runAudit(ctx context.Context) {
	if app.config.AuditSchedule == "" {
		return
	}
	c := cron.New()
	if err := app.auditor.Schedule(ctx, c, app.config.AuditSchedule); err != nil {
		app.logger.Error(ctx, "audit not scheduled", "schedule", app.config.AuditSchedule, "error", err)
		return
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.watchFonts(ctx)
	}()
	go func() {
		defer wg.Done()
		app.runAudit(ctx)
	}()

	wg.Wait()

	app.close()
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.repos.Close(ctx); err != nil {
		app.logger.Error(ctx, "closing repositories", "error", err)
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "closing redis", "error", err)
		}
	}
	app.logger.Info(ctx, "Stopped")
}
