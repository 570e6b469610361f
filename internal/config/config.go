package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/foodielens/dishbook/internal/domain"
)

type Config struct {
	Server     Server                  `yaml:"server"`
	Database   Database                `yaml:"database"`
	Table      Table                   `yaml:"table"`
	Assets     Assets                  `yaml:"assets"`
	Lock       Lock                    `yaml:"lock"`
	Cache      Cache                   `yaml:"cache"`
	Trace      Trace                   `yaml:"trace"`
	Submission domain.SubmissionPolicy `yaml:"submission"`
}

type Server struct {
	Addr          string `yaml:"addr"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
}

type Database struct {
	Driver string `yaml:"driver"` // postgres, sqlite
	Dsn    string `yaml:"dsn"`
}

type Table struct {
	Backend string `yaml:"backend"` // database, csv
	Name    string `yaml:"name"`
}

type Assets struct {
	Root string `yaml:"root"`
}

type Lock struct {
	Backend string `yaml:"backend"` // local, redis
	TTL     string `yaml:"ttl"`
	Retry   string `yaml:"retry"`
}

type Cache struct {
	MemcachedAddr string `yaml:"memcachedAddr"`
	TTL           string `yaml:"ttl"`
}

type Trace struct {
	Enable      bool   `yaml:"enable"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"serviceName"`
}

// Default is a single-node setup: sqlite, records in the database, assets
// on local disk.
func Default() Config {
	return Config{
		Server: Server{
			Addr: ":8000",
		},
		Database: Database{
			Driver: "sqlite",
			Dsn:    "data/dishbook.db",
		},
		Table: Table{
			Backend: "database",
			Name:    "food_data.csv",
		},
		Assets: Assets{
			Root: "data",
		},
		Lock: Lock{
			Backend: "local",
			TTL:     "30s",
			Retry:   "50ms",
		},
		Cache: Cache{
			TTL: "10m",
		},
		Trace: Trace{
			ServiceName: "dishbook",
		},
		Submission: domain.DefaultSubmissionPolicy(),
	}
}

// Load reads the YAML file at path over the defaults, then applies
// DISHBOOK_* environment overrides. An empty path loads defaults only.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DISHBOOK_SERVER_ADDR":    &c.Server.Addr,
		"DISHBOOK_DATABASE_DSN":   &c.Database.Dsn,
		"DISHBOOK_REDIS_ADDR":     &c.Server.RedisAddr,
		"DISHBOOK_REDIS_PASSWORD": &c.Server.RedisPassword,
		"DISHBOOK_MEMCACHED_ADDR": &c.Cache.MemcachedAddr,
		"DISHBOOK_TRACE_ENDPOINT": &c.Trace.Endpoint,
		"DISHBOOK_ASSETS_ROOT":    &c.Assets.Root,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("DISHBOOK_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DISHBOOK_REDIS_DB: %w", err)
		}
		c.Server.RedisDB = db
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Dsn == "" {
		return fmt.Errorf("database dsn is required")
	}

	switch c.Table.Backend {
	case "database":
	case "csv":
		if c.Table.Name == "" {
			return fmt.Errorf("table name is required for the csv backend")
		}
	default:
		return fmt.Errorf("unknown table backend %q", c.Table.Backend)
	}

	if c.Assets.Root == "" {
		return fmt.Errorf("assets root is required")
	}

	switch c.Lock.Backend {
	case "local":
	case "redis":
		if c.Server.RedisAddr == "" {
			return fmt.Errorf("redis lock requires server.redisAddr")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}

	for name, value := range map[string]string{
		"lock.ttl":   c.Lock.TTL,
		"lock.retry": c.Lock.Retry,
		"cache.ttl":  c.Cache.TTL,
	} {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Trace.Enable && c.Trace.Endpoint == "" {
		return fmt.Errorf("trace.endpoint is required when tracing is enabled")
	}

	if c.Submission.MaxImageBytes <= 0 {
		return fmt.Errorf("submission.maxImageBytes must be positive")
	}
	if len(c.Submission.AllowedTypes) == 0 {
		return fmt.Errorf("submission.allowedTypes must not be empty")
	}

	return nil
}

// parseDuration treats an empty value as zero, which callers read as "use the default".
func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}

func (l Lock) TTLDuration() time.Duration {
	d, _ := parseDuration(l.TTL)
	return d
}

func (l Lock) RetryDuration() time.Duration {
	d, _ := parseDuration(l.Retry)
	return d
}

func (c Cache) TTLDuration() time.Duration {
	d, _ := parseDuration(c.TTL)
	return d
}
