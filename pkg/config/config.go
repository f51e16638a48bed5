package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Import       ImportConfig
	Pricing      PricingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PINPRICE_APP_ENV" required:"true"`
	Port         string `envconfig:"PINPRICE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PINPRICE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PINPRICE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PINPRICE_DB_DSN"`
	Driver string `envconfig:"PINPRICE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PINPRICE_DB_HOST"`
	LegacyPort     int    `envconfig:"PINPRICE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PINPRICE_DB_USER"`
	LegacyPassword string `envconfig:"PINPRICE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PINPRICE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PINPRICE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PINPRICE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PINPRICE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PINPRICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PINPRICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PINPRICE_REDIS_URL"`
	Password     string        `envconfig:"PINPRICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PINPRICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PINPRICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PINPRICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PINPRICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PINPRICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PINPRICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a cache connection should be attempted at all.
// The resolver works without Redis; the serviceability cache is optional.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type ImportConfig struct {
	MaxUploadMB     int `envconfig:"PINPRICE_IMPORT_MAX_UPLOAD_MB" default:"10"`
	MaxReportErrors int `envconfig:"PINPRICE_IMPORT_MAX_REPORT_ERRORS" default:"50"`
	UpsertRetries   int `envconfig:"PINPRICE_IMPORT_UPSERT_RETRIES" default:"3"`
}

type PricingConfig struct {
	ServiceabilityCacheTTL time.Duration `envconfig:"PINPRICE_SERVICEABILITY_CACHE_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PINPRICE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PINPRICE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
