package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"horse.fit/lingo/internal/cli"
	"horse.fit/lingo/internal/config"
	"horse.fit/lingo/internal/langdetect"
	"horse.fit/lingo/internal/logging"
	"horse.fit/lingo/internal/manager"
	"horse.fit/lingo/internal/settings"
	"horse.fit/lingo/internal/translation"
	"horse.fit/lingo/internal/translation/bing"
	"horse.fit/lingo/internal/translation/googleweb"
	"horse.fit/lingo/internal/translation/hybrid"
)

// runtime bundles everything a command needs to serve requests.
type runtime struct {
	cfg        *config.Config
	logger     zerolog.Logger
	dispatcher *manager.Dispatcher
	store      settings.Store
}

func (r *runtime) close() {
	if r.dispatcher != nil {
		r.dispatcher.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}

// buildRuntime wires engines, orchestrator, settings store and dispatcher
// from the configuration.
func buildRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*runtime, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	bingClient := bing.New(bing.Options{
		Host:       cfg.BingHost,
		HTTPClient: httpClient,
		CacheMax:   cfg.CacheMaxEntries,
		Logger:     logger,
	})
	googleClient := googleweb.New(googleweb.Options{
		Host:       cfg.GoogleHost,
		HTTPClient: httpClient,
		CacheMax:   cfg.CacheMaxEntries,
		Logger:     logger,
	})

	orchestrator, err := hybrid.New(hybrid.Options{
		Engines: []translation.Engine{bingClient, googleClient},
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build hybrid orchestrator: %w", err)
	}

	registry := translation.NewRegistry(cfg.DefaultTranslator)
	for _, engine := range []translation.Engine{bingClient, googleClient, orchestrator} {
		if err := registry.Register(engine); err != nil {
			return nil, fmt.Errorf("register engine %s: %w", engine.Name(), err)
		}
	}
	if _, err := registry.Engine(""); err != nil {
		return nil, fmt.Errorf("resolve default translator %q: %w", cfg.DefaultTranslator, err)
	}

	var store settings.Store
	if cfg.DatabaseURL != "" {
		store, err = settings.NewPostgresStore(ctx, settings.PostgresOptions{
			DatabaseURL:  cfg.DatabaseURL,
			PollInterval: cfg.SettingsPollEvery,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open settings store: %w", err)
		}
	} else {
		store = settings.NewMemoryStore()
	}

	dispatcher, err := manager.New(ctx, manager.Options{
		Registry:        registry,
		Hybrid:          orchestrator,
		Store:           store,
		OfflineDetect:   langdetect.Detect,
		Logger:          logger,
		SourceLanguage:  cfg.SourceLanguage,
		TargetLanguage:  cfg.TargetLanguage,
		MutualTranslate: cfg.MutualTranslate,
		CacheMax:        cfg.CacheMaxEntries,
		DetectTTL:       cfg.DetectCacheTTL,
		TranslateTTL:    cfg.TranslateCacheTTL,
		DebounceWindow:  cfg.DebounceWindow,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
		store:      store,
	}, nil
}

// bootstrapCommand parses common flags, loads env + config + logger and
// builds the runtime. Returns a non-nil runtime on success.
func bootstrapCommand(fs *flag.FlagSet, args []string) (*runtime, int) {
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0
		}
		return nil, 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, 1
	}

	rt, err := buildRuntime(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("bootstrap failed")
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return nil, 1
	}
	return rt, 0
}
