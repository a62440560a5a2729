package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonathan/hiring-signal/internal/classify"
	"github.com/jonathan/hiring-signal/internal/config"
	"github.com/jonathan/hiring-signal/internal/crawling"
	"github.com/jonathan/hiring-signal/internal/db"
	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/llm"
	"github.com/jonathan/hiring-signal/internal/pipeline"
	"github.com/jonathan/hiring-signal/internal/ratelimit"
	"github.com/jonathan/hiring-signal/internal/resolve"
	"github.com/jonathan/hiring-signal/internal/snapshot"
)

// loadRunConfig reads the optional config file, fills defaults and applies
// the environment. Validation is left to the caller so flags can be applied first.
func loadRunConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	merged := cfg.MergeWithDefaults(config.Defaults())
	merged.ApplyEnv()
	return &merged, nil
}

// stack holds the components of a scan and the resources to release.
type stack struct {
	coordinator *pipeline.Coordinator
	resolver    *resolve.Resolver
	database    *db.DB
	closers     []io.Closer
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	if s.database != nil {
		s.database.Close()
	}
}

func needsDatabase(cfg *config.Config) bool {
	return cfg.Resolver.UseDatabase || cfg.Snapshots.Backend == "postgres"
}

// connectDatabase opens PostgreSQL when a URL is configured. A failed
// connection is fatal only when a component depends on it.
func connectDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		if needsDatabase(cfg) {
			return nil, err
		}
		log.Warn("database unavailable, continuing without persistence", "error", err)
		return nil, nil
	}
	if _, err := database.Migrate(ctx); err != nil {
		database.Close()
		if needsDatabase(cfg) {
			return nil, err
		}
		log.Warn("database migration failed, continuing without persistence", "error", err)
		return nil, nil
	}
	return database, nil
}

// buildSearcher chains the configured website lookups. It returns nil when
// none is configured.
func buildSearcher(cfg *config.Config, database *db.DB) (resolve.Searcher, error) {
	var chain resolve.ChainSearcher
	if cfg.Resolver.DomainMap != "" {
		m, err := resolve.LoadDomainMap(cfg.Resolver.DomainMap)
		if err != nil {
			return nil, err
		}
		chain = append(chain, m)
	}
	if cfg.Resolver.UseDatabase && database != nil {
		chain = append(chain, database)
	}
	switch len(chain) {
	case 0:
		return nil, nil
	case 1:
		return chain[0], nil
	default:
		return chain, nil
	}
}

// openSnapshots returns the configured snapshot store, or nil for backend none.
func openSnapshots(ctx context.Context, cfg *config.Config, database *db.DB) (pipeline.SnapshotStore, io.Closer, error) {
	s := cfg.Snapshots
	switch s.Backend {
	case "", "none":
		return nil, nil, nil
	case "file":
		store, err := snapshot.NewFileStore(s.Dir)
		return store, nil, err
	case "postgres":
		if database == nil {
			return nil, nil, fmt.Errorf("snapshot backend postgres requires a database connection")
		}
		return database, nil, nil
	case "mongo":
		store, err := snapshot.NewMongoStore(ctx, snapshot.MongoConfig{
			URI:        s.MongoURI,
			Database:   s.Database,
			Collection: s.Collection,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", s.Backend)
	}
}

// buildInferer creates the fallback model client. When inference is enabled
// but not required, a setup failure disables the fallback instead of the run.
func buildInferer(ctx context.Context, cfg *config.Config, log *slog.Logger) (classify.Inferer, io.Closer, error) {
	llmCfg := cfg.LLMConfig()
	if llmCfg == nil {
		return nil, nil, nil
	}
	inferer, closer, err := llm.NewInferer(ctx, llmCfg, cfg.Inference.APIKey)
	if err != nil {
		if cfg.Inference.Required {
			return nil, nil, fmt.Errorf("failed to set up required inference: %w", err)
		}
		log.Warn("inference disabled", "provider", cfg.Inference.Provider, "error", err)
		return nil, nil, nil
	}
	return inferer, closer, nil
}

// buildResolver creates the resolver. The returned database is nil unless
// the resolver needs it and it was reachable.
func buildResolver(ctx context.Context, cfg *config.Config, log *slog.Logger) (*resolve.Resolver, *db.DB, error) {
	var database *db.DB
	if cfg.Resolver.UseDatabase {
		var err error
		if database, err = connectDatabase(ctx, cfg, log); err != nil {
			return nil, nil, err
		}
	}
	searcher, err := buildSearcher(cfg, database)
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, nil, err
	}
	return resolve.New(cfg.ResolveConfig(), searcher, log), database, nil
}

// buildStack wires every component of a scan from a validated config.
func buildStack(ctx context.Context, cfg *config.Config, log *slog.Logger, onProgress pipeline.ProgressCallback) (*stack, error) {
	st := &stack{}

	database, err := connectDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	st.database = database

	searcher, err := buildSearcher(cfg, database)
	if err != nil {
		st.Close()
		return nil, err
	}
	st.resolver = resolve.New(cfg.ResolveConfig(), searcher, log)

	snapshots, closer, err := openSnapshots(ctx, cfg, database)
	if err != nil {
		st.Close()
		return nil, err
	}
	if closer != nil {
		st.closers = append(st.closers, closer)
	}

	inferer, closer, err := buildInferer(ctx, cfg, log)
	if err != nil {
		st.Close()
		return nil, err
	}
	if closer != nil {
		st.closers = append(st.closers, closer)
	}

	limiter := ratelimit.NewHostLimiter(cfg.Fetch.MinDelay.D(), ratelimit.RealClock())
	budget := ratelimit.NewBudget(cfg.Budgets.MaxDomains, cfg.Budgets.MaxPagesPerDomain)
	client := fetch.NewClient(cfg.FetchOptions())
	robots := fetch.NewRobotsCache(cfg.RobotsConfig(), client, limiter, log)

	crawler := crawling.New(cfg.CrawlConfig(), client, robots, limiter, budget, log)
	if cfg.Crawl.UseBrowser {
		crawler.WithRenderer(fetch.BrowserRenderer(cfg.Crawl.BrowserTimeout.D(), client.UserAgent()))
	}

	classifier := classify.New(cfg.ClassifyConfig(), inferer, log)

	st.coordinator = pipeline.New(pipeline.Options{
		Workers:      cfg.Workers,
		MaxCompanies: cfg.MaxCompanies,
		RunDeadline:  cfg.RunDeadline.D(),
		OutputFormat: cfg.Output.Format,
		ToolVersion:  pipeline.ToolVersion,
		GitSHA:       pipeline.Revision(),
		OnProgress:   onProgress,
	}, st.resolver, crawler, classifier, budget, log)

	if snapshots != nil {
		st.coordinator.WithSnapshots(snapshots)
	}
	if database != nil {
		st.coordinator.WithResults(database)
	}
	return st, nil
}
