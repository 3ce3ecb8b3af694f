// Package wire provides dependency injection for freelo-sync.
// It creates singleton services with lazy initialization from the
// configuration handed to Configure.
package wire

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	cliadapter "github.com/example/freelosync/internal/adapters/cli"
	"github.com/example/freelosync/internal/adapters/freelo"
	"github.com/example/freelosync/internal/adapters/github"
	"github.com/example/freelosync/internal/app"
	"github.com/example/freelosync/internal/config"
	"github.com/example/freelosync/internal/core/identity"
	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/ctxutil"
	"github.com/example/freelosync/internal/ports/primary"
	"github.com/example/freelosync/internal/version"
)

var (
	cfg         *config.Config
	logOutput   io.Writer = os.Stderr
	runID       string
	logger      *slog.Logger
	syncService primary.SyncService
	initErr     error
	once        sync.Once
)

// Configure sets the configuration used by the lazily built services. It
// must be called before any other function in this package.
func Configure(c *config.Config, logs io.Writer) {
	cfg = c
	if logs != nil {
		logOutput = logs
	}
	runID = ctxutil.NewRunID()
	logger = NewLogger(c, logOutput)
}

// Logger returns the run logger.
func Logger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// RunContext returns ctx carrying this run's id. Services add it to their
// log lines.
func RunContext(ctx context.Context) context.Context {
	return ctxutil.WithRunID(ctx, runID)
}

// SyncService returns the singleton SyncService instance.
func SyncService() (primary.SyncService, error) {
	once.Do(initServices)
	return syncService, initErr
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	log := Logger()

	// Secondary adapters
	issues, err := github.NewClient(github.Config{
		Token:      cfg.GitHubToken,
		Repository: cfg.Repository,
		BaseURL:    cfg.GitHubAPIURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     log,
	})
	if err != nil {
		initErr = err
		return
	}
	tasks, err := freelo.NewClient(freelo.Config{
		BaseURL:           cfg.FreeloAPIURL,
		Email:             cfg.Email,
		APIKey:            cfg.APIKey,
		UserAgent:         version.UserAgent(),
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RateLimit,
		Logger:            log,
	})
	if err != nil {
		initErr = err
		return
	}

	ctx, cancel := context.WithTimeout(RunContext(context.Background()), cfg.Timeout)
	defer cancel()
	botLogin, err := app.ResolveBotLogin(ctx, issues, cfg.BotLogin, log)
	if err != nil {
		initErr = err
		return
	}

	identities := identity.Load(cfg.UserMap, log)
	codec := marker.NewCodec(cfg.FreeloAppURL, botLogin)

	// Effect executor with injected trackers
	executor := app.NewEffectExecutor(issues, tasks, codec, log, cfg.DryRun)

	syncService = app.NewSyncService(issues, tasks, executor, identities, codec, app.SyncServiceConfig{
		Parent:      cfg.Parent(),
		Concurrency: cfg.Concurrency,
		DryRun:      cfg.DryRun,
	}, log)
}

// Identities loads the identity mapping without building any remote client.
func Identities() []primary.Identity {
	entries := identity.Load(cfg.UserMap, Logger()).Entries()
	out := make([]primary.Identity, len(entries))
	for i, e := range entries {
		out[i] = primary.Identity{Login: e.Login, UserID: e.UserID}
	}
	return out
}

// SyncAdapter returns a new SyncAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func SyncAdapter() (*cliadapter.SyncAdapter, error) {
	return SyncAdapterWithOutput(os.Stdout)
}

// SyncAdapterWithOutput returns a new SyncAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func SyncAdapterWithOutput(out io.Writer) (*cliadapter.SyncAdapter, error) {
	service, err := SyncService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewSyncAdapter(service, out), nil
}

// NewLogger builds the slog logger for c. Invalid levels were rejected by
// Validate; here they fall back to info.
func NewLogger(c *config.Config, out io.Writer) *slog.Logger {
	level, _ := c.Level()
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}
