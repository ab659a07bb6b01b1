package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GROCERLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GROCERLY_DB_DSN"
	EnvDBHost = "GROCERLY_DB_HOST"
	EnvDBUser = "GROCERLY_DB_USER"
	EnvDBName = "GROCERLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Pricing       PricingConfig
	Subscriptions SubscriptionsConfig
	Orders        OrdersConfig
	Eventing      EventingConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"GROCERLY_APP_ENV" required:"true"`
	Port         string `envconfig:"GROCERLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GROCERLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GROCERLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GROCERLY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GROCERLY_DB_DSN"`
	Driver string `envconfig:"GROCERLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GROCERLY_DB_HOST"`
	LegacyPort     int    `envconfig:"GROCERLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GROCERLY_DB_USER"`
	LegacyPassword string `envconfig:"GROCERLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"GROCERLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"GROCERLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GROCERLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GROCERLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GROCERLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GROCERLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GROCERLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GROCERLY_REDIS_ADDR"`
	Password     string        `envconfig:"GROCERLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GROCERLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GROCERLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROCERLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROCERLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROCERLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROCERLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GROCERLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GROCERLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GROCERLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig carries the order-level charges applied by the pricing engine.
type PricingConfig struct {
	TaxRatePercent  float64 `envconfig:"GROCERLY_PRICING_TAX_RATE_PERCENT" default:"5"`
	DeliveryCharge  float64 `envconfig:"GROCERLY_PRICING_DELIVERY_CHARGE" default:"30"`
	StoreCharge     float64 `envconfig:"GROCERLY_PRICING_STORE_CHARGE" default:"10"`
	TotalEpsilon    float64 `envconfig:"GROCERLY_PRICING_TOTAL_EPSILON" default:"0.01"`
	CurrencySymbol  string  `envconfig:"GROCERLY_PRICING_CURRENCY_SYMBOL" default:"₹"`
	CurrencyISOCode string  `envconfig:"GROCERLY_PRICING_CURRENCY_ISO" default:"INR"`
}

type SubscriptionsConfig struct {
	MinDurationDays    int `envconfig:"GROCERLY_SUBSCRIPTIONS_MIN_DURATION_DAYS" default:"7"`
	DefaultHorizonDays int `envconfig:"GROCERLY_SUBSCRIPTIONS_DEFAULT_HORIZON_DAYS" default:"30"`
}

type OrdersConfig struct {
	NumberAttempts int `envconfig:"GROCERLY_ORDERS_NUMBER_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"GROCERLY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GROCERLY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GROCERLY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GROCERLY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GROCERLY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"GROCERLY_PUBSUB_ORDERS_TOPIC" default:"gr-order-events"`
	OrdersSubscription       string `envconfig:"GROCERLY_PUBSUB_ORDERS_SUBSCRIPTION" default:"gr-order-events-worker"`
	NotificationTopic        string `envconfig:"GROCERLY_PUBSUB_NOTIFICATION_TOPIC" default:"gr-notification-events"`
	NotificationSubscription string `envconfig:"GROCERLY_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"gr-notification-events-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GROCERLY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GROCERLY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GROCERLY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
