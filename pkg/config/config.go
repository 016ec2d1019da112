package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "agrimandi"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "AGRIMANDI_DB_DSN"
	EnvDBHost = "AGRIMANDI_DB_HOST"
	EnvDBUser = "AGRIMANDI_DB_USER"
	EnvDBName = "AGRIMANDI_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Worker       WorkerConfig
	Gateway      GatewayConfig
	Credit       CreditConfig
	Commission   CommissionConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGRIMANDI_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRIMANDI_APP_PORT" default:"9090"`
	LogLevel     string `envconfig:"AGRIMANDI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRIMANDI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGRIMANDI_SERVICE_KIND" default:"credit-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGRIMANDI_DB_DSN"`
	Driver string `envconfig:"AGRIMANDI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRIMANDI_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRIMANDI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRIMANDI_DB_USER"`
	LegacyPassword string `envconfig:"AGRIMANDI_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRIMANDI_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRIMANDI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRIMANDI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRIMANDI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRIMANDI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRIMANDI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRIMANDI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRIMANDI_REDIS_ADDR"`
	Password     string        `envconfig:"AGRIMANDI_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRIMANDI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRIMANDI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRIMANDI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRIMANDI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRIMANDI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRIMANDI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type WorkerConfig struct {
	SweepInterval         time.Duration `envconfig:"AGRIMANDI_WORKER_SWEEP_INTERVAL" default:"5m"`
	DeliveryBatchSize     int           `envconfig:"AGRIMANDI_WORKER_DELIVERY_BATCH_SIZE" default:"100"`
	NotificationBatchSize int           `envconfig:"AGRIMANDI_WORKER_NOTIFICATION_BATCH_SIZE" default:"50"`
	LockTTL               time.Duration `envconfig:"AGRIMANDI_WORKER_LOCK_TTL" default:"10m"`
}

type GatewayConfig struct {
	Timeout    time.Duration `envconfig:"AGRIMANDI_GATEWAY_TIMEOUT" default:"30s"`
	MaxRetries int           `envconfig:"AGRIMANDI_GATEWAY_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"AGRIMANDI_GATEWAY_RETRY_DELAY" default:"2s"`
	PendingTTL time.Duration `envconfig:"AGRIMANDI_GATEWAY_PENDING_TTL" default:"30m"`
}

type CreditConfig struct {
	DueDays int `envconfig:"AGRIMANDI_CREDIT_DUE_DAYS" default:"30"`
}

// CommissionConfig carries fallback commission policy used to seed the
// settings store; the live policy is read from the tier configuration snapshot.
type CommissionConfig struct {
	ThresholdPaise int64   `envconfig:"AGRIMANDI_COMMISSION_THRESHOLD_PAISE" default:"5000000"`
	LowRate        float64 `envconfig:"AGRIMANDI_COMMISSION_RATE_LOW" default:"2"`
	HighRate       float64 `envconfig:"AGRIMANDI_COMMISSION_RATE_HIGH" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGRIMANDI_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGRIMANDI_AUTO_MIGRATE" default:"false"`
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
