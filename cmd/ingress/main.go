package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jalsetu/scheme-ingress/pkg/aggregate"
	"github.com/jalsetu/scheme-ingress/pkg/config"
	"github.com/jalsetu/scheme-ingress/pkg/feed"
	"github.com/jalsetu/scheme-ingress/pkg/ingest"
	"github.com/jalsetu/scheme-ingress/pkg/mapping"
	"github.com/jalsetu/scheme-ingress/pkg/region"
	"github.com/jalsetu/scheme-ingress/pkg/store"
	"github.com/jalsetu/scheme-ingress/pkg/watch"
)

func main() {
	var (
		filePath  = flag.String("file", "", "import a single report file and exit")
		watchMode = flag.Bool("watch", false, "watch the inbox directory for uploaded reports")
		dryRun    = flag.Bool("dry-run", false, "run the pipeline against an in-memory store without committing")
		envFile   = flag.String("env", ".env", "path to a dotenv file (ignored if missing)")
	)
	flag.Parse()

	if *filePath == "" && !*watchMode {
		fmt.Fprintln(os.Stderr, "usage: ingress -file <report.xlsx> | -watch [-dry-run]")
		os.Exit(2)
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, *dryRun, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	importer, err := buildImporter(cfg, st, logger)
	if err != nil {
		logger.Fatal("Failed to build importer", zap.Error(err))
	}

	if *filePath != "" {
		report, err := importer.ImportFile(ctx, *filePath)
		if err != nil {
			logger.Fatal("Import failed",
				zap.String("file", *filePath),
				zap.Error(err))
		}
		printReport(report)
		return
	}

	if cfg.InboxDir == "" {
		logger.Fatal("INBOX_DIR must be set for watch mode")
	}
	watcher, err := watch.NewWatcher(cfg.InboxDir, importer, watch.Options{
		Debounce:        time.Duration(cfg.DebounceMillis) * time.Millisecond,
		MoveProcessed:   cfg.MoveProcessed && !*dryRun,
		ProcessedSubdir: cfg.ProcessedSubdir,
		FailedSubdir:    cfg.FailedSubdir,
	}, logger.Named("watch"))
	if err != nil {
		logger.Fatal("Failed to build watcher", zap.Error(err))
	}
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("Watcher stopped", zap.Error(err))
	}
	logger.Info("Shutting down")
}

// loadConfig loads the full configuration; in dry-run mode a missing
// database configuration is tolerated since nothing is persisted.
func loadConfig(dryRun bool) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err == nil {
		return cfg, nil
	}
	if !dryRun {
		return nil, err
	}
	return &config.Config{
		CanonicalTable:  "schemes",
		HeaderScanDepth: 20,
		FeedCapacity:    feed.DefaultCapacity,
		InboxDir:        os.Getenv("INBOX_DIR"),
		DebounceMillis:  2000,
		LogLevel:        "info",
		LogFormat:       "console",
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, dryRun bool, logger *zap.Logger) (store.Store, error) {
	if dryRun {
		logger.Info("Dry run: using in-memory store, nothing will be committed")
		return store.NewMemStore(), nil
	}
	return store.NewPostgresStore(ctx, cfg.Postgres)
}

func buildImporter(cfg *config.Config, st store.Store, logger *zap.Logger) (*ingest.Importer, error) {
	dict := mapping.DefaultDictionary()
	if cfg.MappingFile != "" {
		loaded, err := mapping.LoadDictionary(cfg.MappingFile)
		if err != nil {
			return nil, err
		}
		dict = loaded
		logger.Info("Loaded mapping dictionary override", zap.String("file", cfg.MappingFile))
	}

	regions := region.DefaultRegions
	if cfg.RegionsFile != "" {
		loaded, err := region.LoadRegions(cfg.RegionsFile)
		if err != nil {
			return nil, err
		}
		regions = loaded
		logger.Info("Loaded region list override", zap.String("file", cfg.RegionsFile))
	}
	resolver := region.NewResolver(regions, logger.Named("region"))

	changeFeed := feed.NewChangeFeed(cfg.FeedCapacity)

	engine, err := aggregate.NewEngine(st, logger.Named("aggregate"))
	if err != nil {
		return nil, err
	}

	return ingest.NewImporter(
		st,
		changeFeed,
		dict,
		resolver,
		engine,
		cfg.HeaderScanDepth,
		cfg.CanonicalTable,
		logger.Named("ingest"),
	)
}

func buildLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zapCfg.Build()
}

func printReport(report *ingest.Report) {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Println(report.BatchID)
		return
	}
	fmt.Println(string(out))
}
