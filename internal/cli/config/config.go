package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/naming"
	"github.com/conduit-lang/filterkit/internal/logging"
	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// EnvPrefix prefixes environment overrides, e.g. FILTERKIT_DATABASE_URL
const EnvPrefix = "FILTERKIT"

// Filter kinds
const (
	KindNumeric = "numeric"
	KindOrder   = "order"
	KindRange   = "range"
)

// Backends a filter can be registered for. An empty backend registers both.
const (
	BackendORM = "orm"
	BackendODM = "odm"
)

// Config represents the filterkit configuration
type Config struct {
	Logging       logging.Config      `mapstructure:"logging"`
	NameConverter string              `mapstructure:"name_converter"`
	Metadata      MetadataConfig      `mapstructure:"metadata"`
	Database      DatabaseConfig      `mapstructure:"database"`
	MongoDB       MongoDBConfig       `mapstructure:"mongodb"`
	Server        ServerConfig        `mapstructure:"server"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Resources     []schema.Definition `mapstructure:"resources"`
	Filters       []FilterConfig      `mapstructure:"filters"`
}

// MetadataConfig configures the metadata cache
type MetadataConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// MongoDBConfig represents MongoDB configuration
type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// ServerConfig represents explain server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
}

// Cache drivers
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig configures the response cache of the explain server
type CacheConfig struct {
	Driver     string        `mapstructure:"driver"`
	TTL        time.Duration `mapstructure:"ttl"`
	Prefix     string        `mapstructure:"prefix"`
	MaxEntries int           `mapstructure:"max_entries"`
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FilterConfig declares one filter. Properties lists either property names
// or maps with a property key plus the options of filter.PropertyOptions:
//
//	properties:
//	  - price
//	  - property: relatedDummy.name
//	    default_direction: asc
//	    nulls_comparison: nulls_largest
//
// A missing properties list enables every non-nested property.
type FilterConfig struct {
	Name          string        `mapstructure:"name"`
	Kind          string        `mapstructure:"kind"`
	Backend       string        `mapstructure:"backend"`
	Resource      string        `mapstructure:"resource"`
	ParameterName string        `mapstructure:"parameter_name"`
	Properties    []interface{} `mapstructure:"properties"`
}

// PropertyConfig is the map form of a properties entry
type PropertyConfig struct {
	Property         string `mapstructure:"property"`
	DefaultDirection string `mapstructure:"default_direction"`
	NullsComparison  string `mapstructure:"nulls_comparison"`
}

// FilterProperties converts the properties list into filter.Properties
func (f FilterConfig) FilterProperties() (filter.Properties, error) {
	if f.Properties == nil {
		return nil, nil
	}

	raw := make(map[string]interface{}, len(f.Properties))
	for i, entry := range f.Properties {
		switch v := entry.(type) {
		case string:
			raw[v] = nil
		default:
			var pc PropertyConfig
			if err := mapstructure.Decode(v, &pc); err != nil {
				return nil, fmt.Errorf("filter %s: property %d: %w", f.Name, i, err)
			}
			if pc.Property == "" {
				return nil, fmt.Errorf("filter %s: property %d has no name", f.Name, i)
			}
			raw[pc.Property] = map[string]interface{}{
				"default_direction": pc.DefaultDirection,
				"nulls_comparison":  pc.NullsComparison,
			}
		}
	}

	props, err := filter.ParseProperties(raw)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Name, err)
	}
	if err := props.Validate(); err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.Name, err)
	}
	return props, nil
}

// UsesBackend reports whether the filter is registered for backend
func (f FilterConfig) UsesBackend(backend string) bool {
	return f.Backend == "" || f.Backend == backend
}

// Load loads the configuration from path, or from filterkit.yml or
// filterkit.yaml in the working directory when path is empty
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logging.FormatJSON)
	v.SetDefault("logging.development", false)
	v.SetDefault("name_converter", "")
	v.SetDefault("metadata.cache_size", schema.DefaultCacheSize)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "filterkit")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.default_limit", 30)
	v.SetDefault("server.max_limit", 100)
	v.SetDefault("cache.driver", CacheNone)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.prefix", "filterkit:")
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("cache.addr", "localhost:6379")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("filterkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func Validate(cfg *Config) error {
	if err := cfg.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if _, ok := naming.ConverterByName(cfg.NameConverter); !ok {
		return fmt.Errorf("unknown name_converter %q", cfg.NameConverter)
	}

	switch cfg.Database.Driver {
	case "", "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q (expected postgres, pgx or sqlite3)", cfg.Database.Driver)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}

	if cfg.Server.MaxLimit < cfg.Server.DefaultLimit {
		return fmt.Errorf("server.max_limit (%d) is lower than server.default_limit (%d)",
			cfg.Server.MaxLimit, cfg.Server.DefaultLimit)
	}

	switch cfg.Cache.Driver {
	case "", CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unsupported cache driver %q (expected none, memory or redis)", cfg.Cache.Driver)
	}

	if cfg.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got: %d", cfg.Cache.MaxEntries)
	}

	names := make(map[string]bool, len(cfg.Filters))
	for i, f := range cfg.Filters {
		if f.Name == "" {
			return fmt.Errorf("filters[%d]: name is required", i)
		}
		if names[f.Name] {
			return fmt.Errorf("filters[%d]: duplicate filter name %s", i, f.Name)
		}
		names[f.Name] = true

		switch f.Kind {
		case KindNumeric, KindOrder, KindRange:
		default:
			return fmt.Errorf("filter %s: unknown kind %q", f.Name, f.Kind)
		}

		switch f.Backend {
		case "", BackendORM, BackendODM:
		default:
			return fmt.Errorf("filter %s: unknown backend %q", f.Name, f.Backend)
		}

		if f.Resource == "" {
			return fmt.Errorf("filter %s: resource is required", f.Name)
		}

		if _, err := f.FilterProperties(); err != nil {
			return err
		}
	}

	return nil
}
