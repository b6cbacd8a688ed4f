package mongo

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	ConnectionString string `mapstructure:"connection-string"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	ReplicaSet       string `mapstructure:"replica-set"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Database         string `mapstructure:"database"`
	DirectConnection bool   `mapstructure:"direct-connection"`

	MaxPoolSize     uint64        `mapstructure:"max-pool-size"`
	MinPoolSize     uint64        `mapstructure:"min-pool-size"`
	MaxConnIdleTime time.Duration `mapstructure:"max-conn-idle-time"`
	ConnectTimeout  time.Duration `mapstructure:"connect-timeout"`

	// QueryTimeout bounds every collection call made through Collection.
	QueryTimeout time.Duration `mapstructure:"query-timeout"`
	// MaxConcurrentQueries caps in-flight collection calls; 0 disables the limit.
	MaxConcurrentQueries int `mapstructure:"max-concurrent-queries"`

	Migrations MigrationsConfig `mapstructure:"migrations"`
}

type MigrationsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	CollectionName string `mapstructure:"collection-name"`
}

func newConfig(v *viper.Viper, app coreconfig.AppConfig, log *zap.Logger) (Config, error) {
	cfg := Config{Migrations: MigrationsConfig{Enabled: true}}
	if err := coreconfig.Section(v, "mongo").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load mongo config: %w", err)
	}

	applyDefaults(&cfg, app.ServiceName)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	log.Info("loaded mongo config",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Bool("connectionString", cfg.ConnectionString != ""),
		zap.Bool("migrations", cfg.Migrations.Enabled),
	)
	return cfg, nil
}

func applyDefaults(cfg *Config, serviceName string) {
	if cfg.ConnectionString == "" {
		if cfg.Host == "" {
			cfg.Host = "localhost"
		}
		if cfg.Port == 0 {
			cfg.Port = 27017
		}
	}
	if cfg.Database == "" {
		cfg.Database = databaseFromURI(cfg.ConnectionString)
	}
	if cfg.Database == "" {
		cfg.Database = serviceName
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 100
	}
	if cfg.MinPoolSize == 0 {
		cfg.MinPoolSize = 5
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if cfg.Migrations.CollectionName == "" {
		cfg.Migrations.CollectionName = "schema_migrations"
	}
}

// Validate checks that the config can address a database.
func (c Config) Validate() error {
	if c.ConnectionString == "" && (c.Host == "" || c.Port <= 0) {
		return fmt.Errorf("invalid mongo config: host and port are required without a connection string")
	}
	if c.Database == "" {
		return fmt.Errorf("invalid mongo config: database is required")
	}
	if c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("invalid mongo config: min-pool-size %d exceeds max-pool-size %d", c.MinPoolSize, c.MaxPoolSize)
	}
	if c.MaxConcurrentQueries < 0 {
		return fmt.Errorf("invalid mongo config: max-concurrent-queries must not be negative")
	}
	return nil
}

// URI returns the client connection string.
func (c Config) URI() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}

	q := url.Values{}
	if c.ReplicaSet != "" {
		q.Set("replicaSet", c.ReplicaSet)
	}
	if c.DirectConnection {
		q.Set("directConnection", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// MigrationsURI returns the URI for the migrate mongodb driver, which reads the
// database from the path.
func (c Config) MigrationsURI() (string, error) {
	u, err := url.Parse(c.URI())
	if err != nil {
		return "", fmt.Errorf("failed to parse mongo uri: %w", err)
	}
	u.Path = "/" + c.Database
	q := u.Query()
	q.Set("x-migrations-collection", c.Migrations.CollectionName)
	q.Set("x-advisory-locking", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func databaseFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}
