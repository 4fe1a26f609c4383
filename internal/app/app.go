// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wingedpig/ideaforge/internal/api"
	"github.com/wingedpig/ideaforge/internal/chat"
	"github.com/wingedpig/ideaforge/internal/config"
	"github.com/wingedpig/ideaforge/internal/events"
	"github.com/wingedpig/ideaforge/internal/gateway"
	"github.com/wingedpig/ideaforge/internal/ideation"
	"github.com/wingedpig/ideaforge/internal/logging"
	"github.com/wingedpig/ideaforge/internal/prompts"
	"github.com/wingedpig/ideaforge/internal/store"
	"github.com/wingedpig/ideaforge/internal/telemetry"
	"github.com/wingedpig/ideaforge/internal/watcher"
)

// promptReloadDelay coalesces the burst of writes editors make on save.
const promptReloadDelay = 200 * time.Millisecond

// sweepInterval is how often idle workspaces and chat limiters are dropped.
const sweepInterval = time.Minute

// App is the main application container.
type App struct {
	mu sync.RWMutex

	version   string
	config    *config.Config
	logger    *zap.Logger
	provider  gateway.Provider // set by Options.Provider or Initialize
	telemetry *telemetry.Telemetry
	store     *store.Store
	eventBus  *events.MemoryBus
	prompts   *prompts.Store
	watcher   *watcher.FileWatcher
	gateway   *gateway.Gateway
	manager   *ideation.Manager
	assistant *chat.Assistant
	apiServer *api.Server

	idleTimeout time.Duration

	errCh    chan error
	done     chan struct{}
	stopOnce sync.Once
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	Debug      bool
	Version    string // Application version string

	// Config is used instead of loading ConfigPath when set. Defaults are
	// applied to it.
	Config *config.Config

	// Provider replaces the configured completion provider.
	Provider gateway.Provider

	// Logger replaces the logger built from the logging config.
	Logger *zap.Logger
}

// New loads and validates the configuration and builds the logger.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.NewLoader().LoadWithDefaults(context.Background(), opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		config.ApplyDefaults(cfg)
	}

	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging, opts.Debug)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		version:  opts.Version,
		config:   cfg,
		logger:   logger,
		provider: opts.Provider,
		errCh:    make(chan error, 1),
		done:     make(chan struct{}),
	}, nil
}

// Config returns the effective configuration.
func (app *App) Config() *config.Config {
	return app.config
}

// Initialize opens the database and builds every component.
func (app *App) Initialize(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	cfg := app.config

	var recorder gateway.Recorder
	if cfg.Telemetry.Enabled {
		tel, err := telemetry.Setup(app.logger)
		if err != nil {
			return fmt.Errorf("failed to set up telemetry: %w", err)
		}
		app.telemetry = tel
		recorder = tel.Recorder()
	}

	st, err := store.Open(ctx, store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}, store.WithLogger(app.logger))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	app.store = st

	app.eventBus = events.NewMemoryBus(events.MemoryBusConfig{
		History: events.HistoryConfig{
			MaxEvents: cfg.Events.History.MaxEvents,
			MaxAge:    config.ParseDuration(cfg.Events.History.MaxAge, time.Hour),
		},
		Logger: app.logger,
	})

	app.prompts, err = prompts.New(cfg.Prompts.File, app.logger)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	if cfg.Prompts.File != "" && cfg.Prompts.IsWatching() {
		app.watcher, err = watcher.NewFileWatcher(cfg.Prompts.File, promptReloadDelay, app.reloadPrompts, app.logger)
		if err != nil {
			return fmt.Errorf("failed to watch prompts: %w", err)
		}
	}

	if app.provider == nil {
		app.provider, err = newProvider(ctx, cfg.Gateway)
		if err != nil {
			return err
		}
	}
	app.gateway = gateway.New(app.provider, gateway.Config{
		Model: cfg.Gateway.Model,
		Retry: gateway.RetryConfig{
			MaxAttempts: cfg.Gateway.MaxAttempts,
			Backoff:     config.ParseDuration(cfg.Gateway.Backoff, 0),
		},
		Logger:   app.logger,
		Recorder: recorder,
	})

	app.manager = ideation.NewManager(ideation.ManagerConfig{
		Generator:     ideation.NewGenerator(app.gateway, app.prompts, app.logger),
		Store:         app.store,
		Events:        app.eventBus,
		Logger:        app.logger,
		AutosaveDelay: config.ParseDuration(cfg.Canvas.AutosaveDebounce, 500*time.Millisecond),
	})

	app.idleTimeout = config.ParseDuration(cfg.Canvas.IdleTimeout, 30*time.Minute)

	app.assistant = chat.New(chat.Config{
		Completer:  app.gateway,
		Prompts:    app.prompts,
		History:    app.store,
		Events:     app.eventBus,
		Logger:     app.logger,
		Debounce:   config.ParseDuration(cfg.Chat.Debounce, chat.DefaultDebounce),
		MaxHistory: cfg.Chat.MaxHistory,
	})

	deps := api.Dependencies{
		Workspaces:   app.manager,
		Assistant:    app.assistant,
		EventBus:     app.eventBus,
		DefaultModel: cfg.Gateway.Model,
		Logger:       app.logger,
		Version:      app.version,
	}
	// A function-backed instance would call itself.
	if cfg.Gateway.Provider != "function" {
		deps.FunctionProvider = app.provider
	}
	if app.telemetry != nil {
		deps.Metrics = app.telemetry.Collect
	}

	app.apiServer = api.NewServer(api.ServerConfig{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		TLSCert: cfg.Server.TLSCert,
		TLSKey:  cfg.Server.TLSKey,
	}, deps)

	return nil
}

// newProvider builds the completion provider named by the gateway config.
func newProvider(ctx context.Context, cfg config.GatewayConfig) (gateway.Provider, error) {
	timeout := config.ParseDuration(cfg.Timeout, 60*time.Second)

	switch cfg.Provider {
	case "", "openai":
		return gateway.NewOpenAIProvider(gateway.OpenAIConfig{
			APIKey:  cfg.Key(),
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		}), nil
	case "gemini":
		p, err := gateway.NewGeminiProvider(ctx, gateway.GeminiConfig{
			APIKey:  cfg.Key(),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini provider: %w", err)
		}
		return p, nil
	case "function":
		return gateway.NewFunctionProvider(gateway.FunctionConfig{
			URL:     cfg.FunctionURL,
			Token:   cfg.Key(),
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.Provider)
	}
}

func (app *App) reloadPrompts(path string) {
	if err := app.prompts.Reload(); err != nil {
		app.logger.Warn("prompt reload failed, keeping previous templates", zap.String("path", path), zap.Error(err))
		return
	}
	app.eventBus.Publish(context.Background(), events.Event{
		Type:    events.PromptsReloaded,
		Payload: map[string]any{"path": path, "templates": app.prompts.Names()},
	})
}

// Server returns the API server. It is nil before Initialize.
func (app *App) Server() *api.Server {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.apiServer
}

// Start starts the API server in the background. A listen failure stops
// the app and is returned from Run.
func (app *App) Start(ctx context.Context) error {
	app.mu.RLock()
	server := app.apiServer
	app.mu.RUnlock()
	if server == nil {
		return errors.New("app not initialized")
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			app.logger.Error("API server error", zap.Error(err))
			app.errCh <- err
			app.Stop()
		}
	}()

	go app.sweepLoop(sweepInterval)

	return nil
}

// sweepLoop runs sweep every interval until the app stops.
func (app *App) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-app.done:
			return
		case <-ticker.C:
			app.sweep()
		}
	}
}

// sweep drops idle workspaces, which reload from the store on next use, and
// the chat limiters of users who have gone quiet.
func (app *App) sweep() (evicted, pruned int) {
	app.mu.RLock()
	manager, assistant, idle := app.manager, app.assistant, app.idleTimeout
	app.mu.RUnlock()

	if manager != nil {
		evicted = manager.EvictIdle(idle)
	}
	if assistant != nil {
		pruned = assistant.Prune()
	}
	if evicted > 0 || pruned > 0 {
		app.logger.Debug("idle sweep", zap.Int("workspaces", evicted), zap.Int("limiters", pruned))
	}
	return evicted, pruned
}

// Run starts the app and blocks until shutdown.
func (app *App) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		app.Shutdown(context.Background())
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		app.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		app.logger.Info("context cancelled, shutting down")
	case <-app.done:
		app.logger.Info("shutdown requested")
	}

	shutdownErr := app.Shutdown(context.Background())
	select {
	case err := <-app.errCh:
		return err
	default:
		return shutdownErr
	}
}

// Shutdown gracefully shuts down all components. Components that were
// never created are skipped.
func (app *App) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.logger.Info("shutting down")
	app.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var errs []error

	// Stop accepting requests before flushing state
	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api server: %w", err))
		}
	}

	if app.watcher != nil {
		app.watcher.Close()
	}

	// Pending canvas snapshots are written before the store closes
	if app.manager != nil {
		app.manager.Close()
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if app.eventBus != nil {
		app.eventBus.Close()
	}

	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: %w", err))
		}
	}

	app.logger.Info("shutdown complete")
	app.logger.Sync()
	return errors.Join(errs...)
}

// Stop signals the app to shut down. Safe to call multiple times.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}
