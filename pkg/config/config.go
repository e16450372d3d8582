package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Paystack PaystackConfig
	Billing  BillingConfig
	Cron     CronConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Eventing EventingConfig

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
	Env          string `envconfig:"RENTPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"RENTPILOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RENTPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RENTPILOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RENTPILOT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RENTPILOT_DB_DSN"`
	Driver string `envconfig:"RENTPILOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RENTPILOT_DB_HOST"`
	LegacyPort     int    `envconfig:"RENTPILOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RENTPILOT_DB_USER"`
	LegacyPassword string `envconfig:"RENTPILOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"RENTPILOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"RENTPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENTPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENTPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENTPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENTPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENTPILOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RENTPILOT_REDIS_ADDR"`
	Password     string        `envconfig:"RENTPILOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENTPILOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENTPILOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENTPILOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENTPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENTPILOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENTPILOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PaystackConfig struct {
	SecretKey     string        `envconfig:"RENTPILOT_PAYSTACK_SECRET_KEY"`
	WebhookSecret string        `envconfig:"RENTPILOT_PAYSTACK_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"RENTPILOT_PAYSTACK_BASE_URL"`
	Timeout       time.Duration `envconfig:"RENTPILOT_PAYSTACK_TIMEOUT" default:"15s"`
	BillingURL    string        `envconfig:"RENTPILOT_PAYSTACK_BILLING_URL" default:"https://billing.rentpilot.co.za"`
}

type BillingConfig struct {
	LookaheadDays   int           `envconfig:"RENTPILOT_BILLING_LOOKAHEAD_DAYS" default:"30"`
	BatchSize       int           `envconfig:"RENTPILOT_BILLING_BATCH_SIZE" default:"5"`
	CallDelay       time.Duration `envconfig:"RENTPILOT_BILLING_CALL_DELAY" default:"250ms"`
	MaxAttempts     int           `envconfig:"RENTPILOT_BILLING_MAX_ATTEMPTS" default:"5"`
	EvalConcurrency int           `envconfig:"RENTPILOT_BILLING_EVAL_CONCURRENCY" default:"8"`
	DefaultCurrency string        `envconfig:"RENTPILOT_BILLING_DEFAULT_CURRENCY" default:"ZAR"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"RENTPILOT_CRON_INTERVAL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RENTPILOT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"RENTPILOT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RENTPILOT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"RENTPILOT_PUBSUB_NOTIFICATION_TOPIC" default:"rp-notification-events"`
	NotificationSubscription string `envconfig:"RENTPILOT_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"RENTPILOT_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RENTPILOT_AUTO_MIGRATE" default:"false"`
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
