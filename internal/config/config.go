// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// DefaultCatalogURL is the public product catalog.
const DefaultCatalogURL = "https://dummyjson.com"

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the API server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN is the connection string used by the postgres backend.
	DatabaseDSN string `json:"database_dsn"`

	// StorageBackend selects where local state lives: file, memory or postgres.
	StorageBackend string `json:"storage_backend"`

	// StoragePath is the document used by the file backend.
	StoragePath string `json:"storage_path"`

	// StorageQuota caps the local storage size in bytes; 0 disables the cap.
	StorageQuota int `json:"storage_quota"`

	// CatalogURL is the base URL of the product catalog.
	CatalogURL string `json:"catalog_url"`

	// CatalogCacheTTL is how long catalog responses are reused. The config
	// file spells it as a duration string, see fileOptions.
	CatalogCacheTTL time.Duration `json:"-"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `json:"cors_origins"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// fileOptions is the config file layout. Durations are written the way
// time.ParseDuration reads them, e.g. "90s".
type fileOptions struct {
	*Options
	CatalogCacheTTL string `json:"catalog_cache_ttl"`
}

func (o *Options) decodeFile(data []byte) error {
	f := fileOptions{Options: o}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.CatalogCacheTTL != "" {
		d, err := time.ParseDuration(f.CatalogCacheTTL)
		if err != nil {
			return fmt.Errorf("catalog_cache_ttl: %w", err)
		}
		o.CatalogCacheTTL = d
	}
	return nil
}

// Register binds the option flags to fs.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.StorageBackend, "storage", BackendFile, "storage backend: file | memory | postgres")
	fs.StringVar(&o.StoragePath, "storage-path", "storage.json", "path to local storage file")
	fs.IntVar(&o.StorageQuota, "storage-quota", 5<<20, "local storage quota in bytes (0 = unlimited)")
	fs.StringVar(&o.CatalogURL, "catalog", DefaultCatalogURL, "product catalog base URL")
	fs.DurationVar(&o.CatalogCacheTTL, "catalog-ttl", 5*time.Minute, "catalog response cache TTL")
	fs.Func("cors-origins", "comma-separated origins allowed to call the API", func(v string) error {
		o.CORSOrigins = splitList(v)
		return nil
	})
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
}

// Load parses args into a fresh Options. Values from the config file
// override flags, and environment variables override both.
func Load(fs *flag.FlagSet, args []string) (*Options, error) {
	o := &Options{}
	o.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			data, err := os.ReadFile(o.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := o.decodeFile(data); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		o.Port = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		o.StorageBackend = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		o.StoragePath = v
	}
	if v := os.Getenv("STORAGE_QUOTA"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("STORAGE_QUOTA: %w", err)
		}
		o.StorageQuota = n
	}
	if v := os.Getenv("CATALOG_URL"); v != "" {
		o.CatalogURL = v
	}
	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CATALOG_CACHE_TTL: %w", err)
		}
		o.CatalogCacheTTL = d
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		o.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}

	switch o.StorageBackend {
	case BackendFile, BackendMemory, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", o.StorageBackend)
	}
	if o.StorageBackend == BackendPostgres && o.DatabaseDSN == "" {
		return nil, fmt.Errorf("storage backend %q needs a database DSN", BackendPostgres)
	}
	return o, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Parse loads options from the process flags and environment. It returns a
// pointer to the Options struct containing the parsed configuration values.
func Parse() (*Options, error) {
	return Load(flag.CommandLine, os.Args[1:])
}
