// cmd/storefront-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"storefront-workers/internal/api"
	"storefront-workers/internal/assistant"
	"storefront-workers/internal/catalog"
	"storefront-workers/internal/common/aws"
	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/config"
	"storefront-workers/internal/common/database"
	commonhttp "storefront-workers/internal/common/http"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/observability"
	"storefront-workers/internal/contact"
	"storefront-workers/internal/notification"
	"storefront-workers/internal/search"
	"storefront-workers/internal/storage"

	ar "storefront-workers/internal/workers/assistant/assistant-reply"
	scf "storefront-workers/internal/workers/communication/submit-contact-form"
	mn "storefront-workers/internal/workers/notification/manage-notifications"
	msh "storefront-workers/internal/workers/search/manage-search-history"
	sp "storefront-workers/internal/workers/search/suggest-products"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// closers run in reverse order on shutdown.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting storefront manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cleanup closers
	clock := clockwork.NewRealClock()

	sqlite := database.NewSharedSQLite(cfg.Database.SQLite.Path)
	cleanup.add(func() { sqlite.Close() })

	// --- Storage ---
	kv, err := openStorage(ctx, cfg, sqlite, zapLog, &cleanup)
	if err != nil {
		zapLog.Fatal("storage init failed", zap.Error(err))
	}

	// --- Catalog ---
	provider, err := openCatalog(ctx, cfg, sqlite, zapLog, &cleanup)
	if err != nil {
		zapLog.Fatal("catalog init failed", zap.Error(err))
	}
	snapshot := catalog.NewSnapshot(provider, log)
	if err := snapshot.Refresh(ctx); err != nil {
		zapLog.Warn("Initial catalog load failed; serving CATALOG_UNAVAILABLE until refresh succeeds", zap.Error(err))
	}
	if interval := config.GetDuration(cfg.Catalog.RefreshInterval); interval > 0 {
		go refreshCatalog(ctx, snapshot, clock, interval)
	}

	// --- Search ---
	engine := search.NewEngine(cfg.Search.MaxSuggestions)
	history := search.NewHistory(kv, cfg.Search.HistoryLimit, log)

	// --- Notifications ---
	store := notification.NewStore(kv, clock, log,
		notification.WithHighlight(config.GetDuration(cfg.Notifications.HighlightMs)))
	if err := store.Load(ctx); err != nil {
		zapLog.Fatal("notification store load failed", zap.Error(err))
	}
	cleanup.add(store.Close)

	var simulator *notification.Simulator
	if cfg.Notifications.SimulationEnabled {
		simulator = notification.NewSimulator(store, clock, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			notification.SimulatorConfig{
				Interval:    config.GetDuration(cfg.Notifications.SimulationIntervalMs),
				Probability: cfg.Notifications.Probability,
			}, log)
		simulator.Start(ctx)
		cleanup.add(simulator.Stop)
	}

	// --- Contact ---
	var contactForms *contact.Forms
	if cfg.Contact.Endpoint != "" {
		var opts []contact.Option
		if cfg.Contact.AWS.SES.Enabled {
			sesClient, err := aws.NewSESClient(ctx, cfg.Contact.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client init failed", zap.Error(err))
			}
			opts = append(opts, contact.WithMailer(
				contact.NewSESMailer(sesClient, cfg.Contact.AWS.SES.FromEmail, cfg.Contact.AWS.SES.ToEmail)))
		}
		contactForms = contact.NewForms(contact.NewClient(
			commonhttp.NewClient(config.GetDuration(cfg.Contact.Timeout)),
			cfg.Contact.Endpoint, log, opts...))
	} else {
		zapLog.Warn("contact.endpoint not set; contact form disabled")
	}

	assistantBot := assistant.New(cfg.Assistant.MaxSuggestions)

	// --- Zeebe Workers ---
	if cfg.Camunda.Enabled {
		startWorkers(cfg, zapLog, log, obs, &cleanup, workerDeps{
			catalog:   snapshot,
			history:   history,
			store:     store,
			contact:   contactForms,
			assistant: cfg.Assistant.MaxSuggestions,
		})
	}

	// --- HTTP API ---
	router := api.NewRouter(api.Dependencies{
		Catalog:       snapshot,
		Engine:        engine,
		History:       history,
		PopularCount:  cfg.Search.PopularCount,
		Notifications: store,
		Contact:       contactForms,
		Assistant:     assistantBot,
		Clock:         clock,
		Debounce:      time.Duration(cfg.Search.DebounceMs) * time.Millisecond,
		ReplyDelay:    config.GetDuration(cfg.Assistant.ReplyDelayMs),
		Ready: func(context.Context) error {
			if !snapshot.Loaded() {
				return errors.New("catalog not loaded")
			}
			return nil
		},
		Logger: log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutting down storefront manager...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown failed", zap.Error(err))
	}
	cleanup.run()
	obs.Shutdown(shutdownCtx)

	zapLog.Info("Storefront manager stopped")
}

func openStorage(ctx context.Context, cfg *config.Config, sqlite *database.SharedSQLite, zapLog *zap.Logger, cleanup *closers) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "redis":
		rdb := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		cleanup.add(func() { rdb.Close() })
		zapLog.Info("Redis connected successfully")
		return storage.NewRedis(rdb.Client, cfg.Storage.KeyPrefix), nil

	case "sqlite":
		db, err := sqlite.Open(ctx)
		if err != nil {
			return nil, err
		}
		zapLog.Info("SQLite opened", zap.String("path", cfg.Database.SQLite.Path))
		return storage.NewSQL(db.DB, clockwork.NewRealClock()), nil

	default:
		zapLog.Warn("Using in-memory storage; notifications and history are lost on restart")
		return storage.NewMemory(), nil
	}
}

func openCatalog(ctx context.Context, cfg *config.Config, sqlite *database.SharedSQLite, zapLog *zap.Logger, cleanup *closers) (catalog.Provider, error) {
	switch cfg.Catalog.Source {
	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		cleanup.add(func() { pg.Close() })
		zapLog.Info("PostgreSQL connected successfully")
		return catalog.NewSQL(pg.DB, "postgres", cfg.Catalog.MaxProducts), nil

	case "sqlite":
		db, err := sqlite.Open(ctx)
		if err != nil {
			return nil, err
		}
		return catalog.NewSQL(db.DB, "sqlite", cfg.Catalog.MaxProducts), nil

	case "elasticsearch":
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully")
		return catalog.NewElasticsearch(es.Client, cfg.Database.Elasticsearch.Index, cfg.Catalog.MaxProducts), nil

	case "http":
		return catalog.NewHTTP(commonhttp.NewClient(config.GetDuration(cfg.Catalog.Timeout)), cfg.Catalog.URL), nil

	default:
		return catalog.NewStatic(catalog.DemoProducts()), nil
	}
}

func refreshCatalog(ctx context.Context, snapshot *catalog.Snapshot, clock clockwork.Clock, interval time.Duration) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			_ = snapshot.Refresh(ctx)
		}
	}
}

type workerDeps struct {
	catalog   search.ProductSource
	history   *search.History
	store     *notification.Store
	contact   *contact.Forms
	assistant int
}

func startWorkers(cfg *config.Config, zapLog *zap.Logger, log logger.Logger, obs *observability.Observability, cleanup *closers, deps workerDeps) {
	var zeebe *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	cleanup.add(func() { zeebe.Close() })
	zapLog.Info("Zeebe client connected successfully")

	start := func(taskType string, handler camunda.JobHandler) {
		wc := config.GetWorkerConfig(cfg, taskType)
		w := camunda.NewWorker(zeebe.GetClient(), taskType, wc.MaxJobsActive,
			config.GetDuration(wc.Timeout), handler, obs, zapLog)
		w.Start()
		cleanup.add(w.Stop)
	}

	if config.IsWorkerEnabled(cfg, sp.TaskType) {
		c := sp.DefaultConfig()
		c.MaxSuggestions = cfg.Search.MaxSuggestions
		c.PopularCount = cfg.Search.PopularCount
		start(sp.TaskType, sp.NewHandler(c, deps.catalog, deps.history, log))
	}

	if config.IsWorkerEnabled(cfg, msh.TaskType) {
		start(msh.TaskType, msh.NewHandler(msh.DefaultConfig(), deps.history, log))
	}

	if config.IsWorkerEnabled(cfg, mn.TaskType) {
		start(mn.TaskType, mn.NewHandler(mn.DefaultConfig(), deps.store, log))
	}

	if config.IsWorkerEnabled(cfg, scf.TaskType) {
		if deps.contact == nil {
			zapLog.Warn("submit-contact-form worker skipped: contact.endpoint not set")
		} else {
			c := scf.DefaultConfig()
			c.Timeout = config.GetDuration(cfg.Contact.Timeout) + time.Second
			start(scf.TaskType, scf.NewHandler(c, deps.contact, log))
		}
	}

	if config.IsWorkerEnabled(cfg, ar.TaskType) {
		c := ar.DefaultConfig()
		c.MaxSuggestions = deps.assistant
		start(ar.TaskType, ar.NewHandler(c, deps.catalog, log))
	}

	zapLog.Info("Zeebe workers registered")
}
