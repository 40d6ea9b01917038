package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/lepinkainen/openshelf/internal/config"
	"github.com/spf13/viper"
)

var (
	runEnrich       = enrichBooks
	runInvalidate   = invalidateCache
	runClearExpired = clearExpiredCache
)

// CLI represents the complete command structure for the openshelf application
type CLI struct {
	// Global flags
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Store   string `help:"Book store DSN: a SQLite file path or a postgres:// URL"`

	// Response cache flags
	HTTPCacheDB  string `name:"httpcache-db" help:"Path to the catalog response cache SQLite file (empty disables it)"`
	HTTPCacheTTL string `name:"httpcache-ttl" help:"Response cache time-to-live duration (e.g., 720h for 30 days)"`

	Enrich EnrichCmd `cmd:"" help:"Enrich books from a delimited file with OpenLibrary metadata"`
	Cache  CacheCmd  `cmd:"" help:"Maintain the catalog response cache"`
}

// EnrichCmd represents the enrich command
type EnrichCmd struct {
	Input           string `short:"f" help:"Path to the input file with title and author columns"`
	Delimiter       string `short:"d" help:"Input field delimiter (use 'tab' for TSV)"`
	CacheFile       string `short:"c" help:"Delimited file of previously enriched books to reuse"`
	Output          string `short:"o" help:"Append enriched books to this file (.parquet writes Parquet)"`
	Report          string `help:"Write a YAML run report to this path"`
	ContinueOnError bool   `help:"Skip books that fail instead of stopping the run"`
}

// CacheCmd groups the response cache maintenance commands
type CacheCmd struct {
	Invalidate   CacheInvalidateCmd   `cmd:"" help:"Delete every cached response of one endpoint"`
	ClearExpired CacheClearExpiredCmd `cmd:"" help:"Delete cached responses older than the TTL"`
}

// CacheInvalidateCmd represents the cache invalidate command
type CacheInvalidateCmd struct {
	Source string `arg:"" enum:"search,work,edition" help:"Endpoint whose cache to clear (search, work, edition)"`
}

// CacheClearExpiredCmd represents the cache clear-expired command
type CacheClearExpiredCmd struct{}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("openshelf"),
		kong.Description("Enrich a list of books with OpenLibrary metadata and store them in a database."),
		kong.UsageOnError(),
	)

	initLogging(cli.Verbose)

	if err := initConfig(); err != nil {
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}
	updateGlobalConfig(&cli)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	kctx.BindTo(ctx, (*context.Context)(nil))

	err := kctx.Run()
	stop()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() error {
	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix("OPENSHELF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("Config file not found, using defaults and environment")
			return nil
		}
		return err
	}
	slog.Debug("Loaded config file", "path", viper.ConfigFileUsed())
	return nil
}

// updateGlobalConfig lets flags that were given override config and environment.
func updateGlobalConfig(cli *CLI) {
	setIfNotEmpty("store.dsn", cli.Store)
	setIfNotEmpty("httpcache.dbfile", cli.HTTPCacheDB)
	setIfNotEmpty("httpcache.ttl", cli.HTTPCacheTTL)
}

func setIfNotEmpty(key, value string) {
	if value != "" {
		viper.Set(key, value)
	}
}

// Run methods for each command

func (e *EnrichCmd) Run(ctx context.Context) error {
	setIfNotEmpty("input.file", e.Input)
	setIfNotEmpty("input.delimiter", e.Delimiter)
	setIfNotEmpty("cachefile.path", e.CacheFile)
	setIfNotEmpty("output.file", e.Output)
	setIfNotEmpty("report.file", e.Report)
	if e.ContinueOnError {
		viper.Set("pipeline.continue_on_error", true)
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	return runEnrich(ctx, cfg)
}

func (c *CacheInvalidateCmd) Run() error {
	cfg, err := config.LoadHTTPCache(viper.GetViper())
	if err != nil {
		return err
	}
	return runInvalidate(cfg, c.Source)
}

func (c *CacheClearExpiredCmd) Run() error {
	cfg, err := config.LoadHTTPCache(viper.GetViper())
	if err != nil {
		return err
	}
	return runClearExpired(cfg)
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
