// Package config turns viper settings into the explicit configuration passed
// to the enrichment pipeline.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/openshelf/internal/csvutil"
	"github.com/spf13/viper"
)

// Defaults for the settings that have one.
const (
	DefaultInputDelimiter  = ","
	DefaultCacheDelimiter  = ";"
	DefaultOutputDelimiter = ";"
	DefaultStoreDSN        = "./books.db"
	DefaultCatalogBaseURL  = "https://openlibrary.org"
	DefaultCatalogTimeout  = 10 * time.Second
	DefaultUserAgent       = "openshelf/1.0 (+https://github.com/lepinkainen/openshelf)"
	DefaultHTTPCacheTTL    = 720 * time.Hour
)

// InputConfig describes the file of books to enrich.
type InputConfig struct {
	File         string
	Delimiter    rune
	TitleColumn  string
	AuthorColumn string
}

// CacheFileConfig describes the dedup cache file from earlier runs.
type CacheFileConfig struct {
	Path      string
	Delimiter rune
}

// OutputConfig describes the optional output sink.
type OutputConfig struct {
	File      string
	Delimiter rune
}

// CatalogConfig configures the OpenLibrary client.
type CatalogConfig struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
}

// HTTPCacheConfig configures the response cache. An empty DBFile disables it.
type HTTPCacheConfig struct {
	DBFile string
	TTL    time.Duration
}

// Config is the full configuration of an enrich run.
type Config struct {
	Input           InputConfig
	CacheFile       CacheFileConfig
	StoreDSN        string
	Output          OutputConfig
	ReportFile      string
	Catalog         CatalogConfig
	HTTPCache       HTTPCacheConfig
	ContinueOnError bool
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.file", "")
	v.SetDefault("input.delimiter", DefaultInputDelimiter)
	v.SetDefault("input.title_column", "title")
	v.SetDefault("input.author_column", "author")
	v.SetDefault("cachefile.path", "")
	v.SetDefault("cachefile.delimiter", DefaultCacheDelimiter)
	v.SetDefault("store.dsn", DefaultStoreDSN)
	v.SetDefault("output.file", "")
	v.SetDefault("output.delimiter", DefaultOutputDelimiter)
	v.SetDefault("report.file", "")
	v.SetDefault("catalog.base_url", DefaultCatalogBaseURL)
	v.SetDefault("catalog.timeout", DefaultCatalogTimeout.String())
	v.SetDefault("catalog.user_agent", DefaultUserAgent)
	v.SetDefault("catalog.requests_per_second", 0)
	v.SetDefault("httpcache.dbfile", "")
	v.SetDefault("httpcache.ttl", DefaultHTTPCacheTTL.String())
	v.SetDefault("pipeline.continue_on_error", false)
}

// Load reads and validates the enrich configuration from v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	var err error

	cfg.Input.File = strings.TrimSpace(v.GetString("input.file"))
	if cfg.Input.File == "" {
		return Config{}, fmt.Errorf("input.file is required")
	}
	if cfg.Input.Delimiter, err = delimiter(v, "input.delimiter"); err != nil {
		return Config{}, err
	}
	cfg.Input.TitleColumn = v.GetString("input.title_column")
	cfg.Input.AuthorColumn = v.GetString("input.author_column")
	if cfg.Input.TitleColumn == "" || cfg.Input.AuthorColumn == "" {
		return Config{}, fmt.Errorf("input.title_column and input.author_column must be set")
	}

	cfg.CacheFile.Path = v.GetString("cachefile.path")
	if cfg.CacheFile.Delimiter, err = delimiter(v, "cachefile.delimiter"); err != nil {
		return Config{}, err
	}

	cfg.StoreDSN = v.GetString("store.dsn")
	if cfg.StoreDSN == "" {
		return Config{}, fmt.Errorf("store.dsn is required")
	}

	cfg.Output.File = v.GetString("output.file")
	if cfg.Output.Delimiter, err = delimiter(v, "output.delimiter"); err != nil {
		return Config{}, err
	}
	cfg.ReportFile = v.GetString("report.file")

	cfg.Catalog.BaseURL = strings.TrimRight(v.GetString("catalog.base_url"), "/")
	if cfg.Catalog.BaseURL == "" {
		return Config{}, fmt.Errorf("catalog.base_url is required")
	}
	if cfg.Catalog.Timeout, err = duration(v, "catalog.timeout"); err != nil {
		return Config{}, err
	}
	cfg.Catalog.UserAgent = v.GetString("catalog.user_agent")
	cfg.Catalog.RequestsPerSecond = v.GetFloat64("catalog.requests_per_second")
	if cfg.Catalog.RequestsPerSecond < 0 {
		return Config{}, fmt.Errorf("catalog.requests_per_second must not be negative")
	}

	if cfg.HTTPCache, err = LoadHTTPCache(v); err != nil {
		return Config{}, err
	}

	cfg.ContinueOnError = v.GetBool("pipeline.continue_on_error")
	return cfg, nil
}

// LoadHTTPCache reads only the response cache settings. The cache maintenance
// commands use it since they have no input file.
func LoadHTTPCache(v *viper.Viper) (HTTPCacheConfig, error) {
	ttl, err := duration(v, "httpcache.ttl")
	if err != nil {
		return HTTPCacheConfig{}, err
	}
	return HTTPCacheConfig{DBFile: v.GetString("httpcache.dbfile"), TTL: ttl}, nil
}

func delimiter(v *viper.Viper, key string) (rune, error) {
	r, err := csvutil.ParseDelimiter(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return r, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	switch raw := v.Get(key).(type) {
	case time.Duration:
		return raw, nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		d, err := time.ParseDuration(strings.TrimSpace(fmt.Sprint(raw)))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%s must be positive", key)
		}
		return d, nil
	}
}
