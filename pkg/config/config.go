package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "MARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "MARKET_APP_ENV"
	EnvPort            = "MARKET_APP_PORT"
	EnvDBDSN           = "MARKET_DB_DSN"
	EnvDBHost          = "MARKET_DB_HOST"
	EnvDBUser          = "MARKET_DB_USER"
	EnvDBName          = "MARKET_DB_NAME"
	EnvRedisAddr       = "MARKET_REDIS_ADDR"
	EnvJWTSecret       = "MARKET_JWT_SECRET"
	EnvJWTIssuer       = "MARKET_JWT_ISSUER"
	EnvGatewayURL      = "MARKET_GATEWAY_BASE_URL"
	EnvGatewayKeyID    = "MARKET_GATEWAY_KEY_ID"
	EnvGatewaySecret   = "MARKET_GATEWAY_KEY_SECRET"
	EnvWebhookSecret   = "MARKET_GATEWAY_WEBHOOK_SECRET"
	EnvCourierURL      = "MARKET_COURIER_BASE_URL"
	EnvCourierToken    = "MARKET_COURIER_TOKEN"
	EnvFreeShipping    = "MARKET_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvGCPProjectID    = "MARKET_GCP_PROJECT_ID"
	EnvNotifyTopic     = "MARKET_PUBSUB_NOTIFICATION_TOPIC"
	EnvCronInterval    = "MARKET_CRON_SHIPMENT_SYNC_INTERVAL"
	EnvRetryMaxAttempt = "MARKET_RETRY_MAX_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Gateway       GatewayConfig
	Courier       CourierConfig
	Pricing       PricingConfig
	Retry         RetryConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Notifications NotificationsConfig
	Cron          CronConfig
	RateLimit     RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKET_APP_PORT" default:"8080"`
	Name         string `envconfig:"MARKET_APP_NAME" default:"marketplace-core"`
	LogLevel     string `envconfig:"MARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKET_LOG_WARN_STACK" default:"false"`
	Metrics      bool   `envconfig:"MARKET_METRICS_ENABLED" default:"true"`
	AutoMigrate  bool   `envconfig:"MARKET_AUTO_MIGRATE" default:"false"`

	CORSOrigins []string `envconfig:"MARKET_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MARKET_DB_DSN"`

	LegacyHost     string `envconfig:"MARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKET_DB_USER"`
	LegacyPassword string `envconfig:"MARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	Address        string        `envconfig:"MARKET_REDIS_ADDR" required:"true"`
	Password       string        `envconfig:"MARKET_REDIS_PASSWORD"`
	DB             int           `envconfig:"MARKET_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"MARKET_REDIS_POOL_SIZE" default:"10"`
	DialTimeout    time.Duration `envconfig:"MARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"MARKET_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout   time.Duration `envconfig:"MARKET_REDIS_WRITE_TIMEOUT" default:"3s"`
	IdempotencyTTL time.Duration `envconfig:"MARKET_REDIS_IDEMPOTENCY_TTL" default:"72h"`
}

type JWTConfig struct {
	Secret string `envconfig:"MARKET_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"MARKET_JWT_ISSUER" required:"true"`
}

// GatewayConfig holds the payment gateway credentials. WebhookSecret is only
// ever used to compute HMACs.
type GatewayConfig struct {
	BaseURL       string        `envconfig:"MARKET_GATEWAY_BASE_URL" required:"true"`
	KeyID         string        `envconfig:"MARKET_GATEWAY_KEY_ID" required:"true"`
	KeySecret     string        `envconfig:"MARKET_GATEWAY_KEY_SECRET" required:"true"`
	WebhookSecret string        `envconfig:"MARKET_GATEWAY_WEBHOOK_SECRET" required:"true"`
	Currency      string        `envconfig:"MARKET_GATEWAY_CURRENCY" default:"INR"`
	Timeout       time.Duration `envconfig:"MARKET_GATEWAY_TIMEOUT" default:"10s"`
}

type CourierConfig struct {
	BaseURL string        `envconfig:"MARKET_COURIER_BASE_URL" required:"true"`
	Token   string        `envconfig:"MARKET_COURIER_TOKEN" required:"true"`
	Timeout time.Duration `envconfig:"MARKET_COURIER_TIMEOUT" default:"10s"`
}

type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal `envconfig:"MARKET_PRICING_FREE_SHIPPING_THRESHOLD" default:"499"`
	FlatShipping          decimal.Decimal `envconfig:"MARKET_PRICING_FLAT_SHIPPING" default:"40"`
	PlatformFee           decimal.Decimal `envconfig:"MARKET_PRICING_PLATFORM_FEE" default:"15"`
}

func (p PricingConfig) validate() error {
	for name, v := range map[string]decimal.Decimal{
		"free shipping threshold": p.FreeShippingThreshold,
		"flat shipping":           p.FlatShipping,
		"platform fee":            p.PlatformFee,
	} {
		if v.IsNegative() {
			return fmt.Errorf("pricing %s must not be negative", name)
		}
	}
	return nil
}

type RetryConfig struct {
	MaxAttempts int           `envconfig:"MARKET_RETRY_MAX_ATTEMPTS" default:"3"`
	BaseBackoff time.Duration `envconfig:"MARKET_RETRY_BASE_BACKOFF" default:"50ms"`
	MaxBackoff  time.Duration `envconfig:"MARKET_RETRY_MAX_BACKOFF" default:"1s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MARKET_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"MARKET_PUBSUB_NOTIFICATION_TOPIC" default:"market-notifications"`
}

type NotificationsConfig struct {
	FromAddress string `envconfig:"MARKET_NOTIFICATIONS_FROM" default:"orders@marketplace.local"`
}

// RateLimitConfig throttles unauthenticated endpoints per client IP.
type RateLimitConfig struct {
	Window      time.Duration `envconfig:"MARKET_RATE_LIMIT_WINDOW" default:"1m"`
	PublicLimit int           `envconfig:"MARKET_RATE_LIMIT_PUBLIC" default:"60"`
}

type CronConfig struct {
	ShipmentSyncInterval time.Duration `envconfig:"MARKET_CRON_SHIPMENT_SYNC_INTERVAL" default:"15m"`
	LockTTL              time.Duration `envconfig:"MARKET_CRON_LOCK_TTL" default:"10m"`
	JobTimeout           time.Duration `envconfig:"MARKET_CRON_JOB_TIMEOUT" default:"5m"`
	BatchSize            int           `envconfig:"MARKET_CRON_BATCH_SIZE" default:"100"`
	UnpaidOrderTTL       time.Duration `envconfig:"MARKET_CRON_UNPAID_ORDER_TTL" default:"48h"`
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
