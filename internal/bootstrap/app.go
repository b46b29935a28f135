package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"aboutpage-backend/internal/aboutpage"
	"aboutpage-backend/internal/components"
	"aboutpage-backend/internal/pageconfig"
	"aboutpage-backend/internal/recommended"
	"aboutpage-backend/internal/services/health"
	"aboutpage-backend/internal/shared/config"
	"aboutpage-backend/internal/shared/server"
	"aboutpage-backend/internal/shared/server/middleware"
	"aboutpage-backend/internal/shared/storage/db"
	"aboutpage-backend/internal/shared/telemetry"
)

// DismissPath is where the admin script posts dismissals.
const DismissPath = "/api/v1/about/recommended-actions/dismiss"

// App holds shared dependencies.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              recommended.Store
	Probe              components.Probe
	RecommendedHandler *recommended.Handler
	AboutHandler       *aboutpage.Handler
	Health             *health.Service

	current  atomic.Pointer[pageState]
	reloadMu sync.Mutex
	closeMu  sync.Mutex
	closers  []func() error
}

// pageState is everything derived from one page configuration document.
// It is replaced as a whole on reload, never mutated.
type pageState struct {
	page       pageconfig.Document
	engine     *recommended.Engine
	controller *aboutpage.Controller
}

// Page returns the page configuration currently served.
func (a *App) Page() pageconfig.Document { return a.current.Load().page }

// Engine returns the engine built from the current page configuration.
func (a *App) Engine() *recommended.Engine { return a.current.Load().engine }

// Controller returns the about page controller for the current configuration.
func (a *App) Controller() *aboutpage.Controller { return a.current.Load().controller }

// Build wires config, persistence, the engine and the router. The
// visibility record is seeded before Build returns.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	telemetry.SetLevel(cfg.LogLevel)

	page, err := pageconfig.Load(cfg.PageConfigPath)
	if err != nil {
		return nil, err
	}
	page.Theme = mergeTheme(page.Theme, cfg)

	app := &App{Config: cfg}

	if needsDB(cfg) {
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.DB = sqlDB
		if sqlDB != nil {
			app.addCloser(sqlDB.Close)
		}
	}

	store, err := buildStore(app, page.Theme.Slug)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	app.Probe = components.WithTimeout(buildProbe(app), cfg.ProbeTimeout)

	state, err := app.buildState(ctx, page)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.current.Store(state)
	app.RecommendedHandler = recommended.NewHandler(state.engine)
	app.AboutHandler = aboutpage.NewHandler(state.controller)

	app.Health = buildHealth(app)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Handlers: []server.RouteRegistrar{app.AboutHandler, app.RecommendedHandler},
		Limiter:  middleware.NewRateLimiter(nil),
		Health:   app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":               cfg.Env,
		"visibility_store":  cfg.VisibilityStore,
		"component_probe":   cfg.ComponentProbe,
		"recommended_items": len(state.engine.Items()),
		"theme_slug":        page.Theme.Slug,
	})
	return app, nil
}

func (a *App) buildState(ctx context.Context, page pageconfig.Document) (*pageState, error) {
	items := pageconfig.ExtractRecommendedItems(page.Blocks)
	engine := recommended.NewEngine(items, a.Store, a.Probe)
	if err := engine.Initialize(ctx); err != nil {
		return nil, err
	}
	ctrl := aboutpage.NewController(page.Theme, page.Blocks, engine, aboutpage.Options{
		AjaxURL:           DismissPath,
		TemplateDirectory: a.Config.TemplateDirectoryURL,
	})
	return &pageState{page: page, engine: engine, controller: ctrl}, nil
}

// Reload rebuilds the engine and controller from doc and installs them for
// new requests. The theme slug names the visibility record, so a changed
// slug is ignored until restart.
func (a *App) Reload(ctx context.Context, doc pageconfig.Document) error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	prev := a.current.Load()
	doc.Theme = mergeTheme(doc.Theme, a.Config)
	if doc.Theme.Slug != prev.page.Theme.Slug {
		telemetry.Error("bootstrap.reload_slug_ignored", map[string]any{
			"current": prev.page.Theme.Slug,
			"ignored": doc.Theme.Slug,
		})
		doc.Theme.Slug = prev.page.Theme.Slug
	}

	state, err := a.buildState(ctx, doc)
	if err != nil {
		return err
	}
	a.current.Store(state)
	a.RecommendedHandler.Swap(state.engine)
	a.AboutHandler.Swap(state.controller)
	telemetry.Info("bootstrap.reloaded", map[string]any{"recommended_items": len(state.engine.Items())})
	return nil
}

// WatchPageConfig reloads the app whenever the page configuration file
// changes. It is a no-op without a configured path.
func (a *App) WatchPageConfig(ctx context.Context) error {
	if strings.TrimSpace(a.Config.PageConfigPath) == "" {
		return nil
	}
	w, err := pageconfig.NewWatcher(a.Config.PageConfigPath, a.Config.PageConfigDebounce, func(doc pageconfig.Document) {
		if err := a.Reload(ctx, doc); err != nil {
			telemetry.Error("bootstrap.reload_failed", map[string]any{"error": err})
		}
	})
	if err != nil {
		return err
	}
	go w.Run(ctx)
	a.addCloser(func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return w.Close(closeCtx)
	})
	return nil
}

func (a *App) addCloser(fn func() error) {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	a.closers = append(a.closers, fn)
}

// Close releases the watcher and database handles.
func (a *App) Close() error {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// mergeTheme lets THEME_* env vars override the page document.
func mergeTheme(theme pageconfig.ThemeArgs, cfg config.Config) pageconfig.ThemeArgs {
	if cfg.ThemeName != "" {
		theme.Name = cfg.ThemeName
	}
	if cfg.ThemeVersion != "" {
		theme.Version = cfg.ThemeVersion
	}
	if cfg.ThemeDescription != "" {
		theme.Description = cfg.ThemeDescription
	}
	if cfg.ThemeSlug != "" {
		theme.Slug = cfg.ThemeSlug
	}
	return theme
}

func needsDB(cfg config.Config) bool {
	return cfg.VisibilityStore == "postgres" || cfg.ComponentProbe == "postgres"
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.db_skipped", map[string]any{"reason": "DATABASE_URL empty; using in-memory store"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Error("bootstrap.db_connect_failed", map[string]any{"error": err, "fallback": "memory"})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(app *App, namespace string) (recommended.Store, error) {
	switch app.Config.VisibilityStore {
	case "postgres":
		if app.DB != nil {
			return recommended.NewPGStore(app.DB, namespace), nil
		}
	case "sqlite":
		s, err := recommended.OpenSQLiteStore(app.Config.SQLitePath, namespace)
		if err != nil {
			return nil, err
		}
		app.addCloser(s.Close)
		return s, nil
	}
	return recommended.NewMemoryStore(), nil
}

func buildProbe(app *App) components.Probe {
	if app.Config.ComponentProbe == "postgres" && app.DB != nil {
		return &components.PGProbe{DB: app.DB}
	}
	return components.NewStaticProbe(app.Config.ActiveComponents...)
}

func buildHealth(app *App) *health.Service {
	h := health.NewService(2 * time.Second)
	store := app.Store
	h.Add("visibility_store", func(ctx context.Context) error {
		_, _, err := store.Get(ctx)
		return err
	})
	if app.DB != nil {
		h.Add("database", app.DB.PingContext)
	}
	return h
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
