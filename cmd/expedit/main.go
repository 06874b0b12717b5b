package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/cli"
	"github.com/alexanderramin/expedit/internal/config"
	"github.com/alexanderramin/expedit/internal/db"
	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/history"
	"github.com/alexanderramin/expedit/internal/logging"
	"github.com/alexanderramin/expedit/internal/repository"
	"github.com/alexanderramin/expedit/internal/service"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("EXPEDIT_CONFIG"))
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logging.Sync() }()
	logger := logging.Get()

	database, err := db.OpenDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	tables, err := diff.NewRegistry()
	if err != nil {
		return fmt.Errorf("loading mapping tables: %w", err)
	}

	docRepo := repository.NewSQLiteDocumentRepo(database)
	journalRepo := repository.NewSQLiteJournalRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)
	client := api.NewClient(cfg.APIClientConfig(), api.NewLogObserver(logger.Named("api")))
	observer := service.NewLogUseCaseObserver(logger.Named("service"))

	app := &cli.App{
		Documents: service.NewDocumentService(docRepo, journalRepo, uow, client, tables, cache, observer),
		Items: service.NewItemService(docRepo, journalRepo, uow, client, tables,
			cfg.ResolverOptions(), cfg.Commit.Concurrency, observer),
		History: service.NewHistoryService(client, cache, observer),
		Tables:  tables,
	}

	// Forms and the history viewer need a terminal on both ends.
	app.IsInteractive = func() bool {
		in, out := os.Stdin.Fd(), os.Stdout.Fd()
		return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
			(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting", zap.String("db", cfg.DB.Path), zap.String("history_cache", cfg.History.Cache))
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

func openCache(cfg *config.Config) (history.Cache, error) {
	switch cfg.History.Cache {
	case config.CacheRedis:
		c, err := history.NewRedisCache(cfg.History.RedisURL, cfg.HistoryTTL())
		if err != nil {
			return nil, fmt.Errorf("connecting history cache: %w", err)
		}
		return c, nil
	default:
		c := history.NewMemoryCache(cfg.History.Shards, cfg.HistoryTTL())
		c.StartCleanupWorker()
		return c, nil
	}
}
