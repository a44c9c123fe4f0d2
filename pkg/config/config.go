package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Invoicing InvoicingConfig
	Checkout  CheckoutConfig
	Webhook   WebhookConfig
	RateLimit RateLimitConfig
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
	Env          string `envconfig:"MEMORIA_APP_ENV" required:"true"`
	Port         string `envconfig:"MEMORIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEMORIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEMORIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MEMORIA_DB_DSN"`
	Driver string `envconfig:"MEMORIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEMORIA_DB_HOST"`
	LegacyPort     int    `envconfig:"MEMORIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEMORIA_DB_USER"`
	LegacyPassword string `envconfig:"MEMORIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEMORIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEMORIA_DB_SSLMODE" default:"disable"`

	AutoMigrate bool `envconfig:"MEMORIA_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"MEMORIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEMORIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEMORIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEMORIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEMORIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEMORIA_REDIS_ADDR"`
	Password     string        `envconfig:"MEMORIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEMORIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEMORIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEMORIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEMORIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEMORIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEMORIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MEMORIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEMORIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEMORIA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// InvoicingConfig points at the hosted-invoice payment processor.
type InvoicingConfig struct {
	BaseURL        string        `envconfig:"MEMORIA_INVOICING_BASE_URL" required:"true"`
	APIKey         string        `envconfig:"MEMORIA_INVOICING_API_KEY" required:"true"`
	CallbackToken  string        `envconfig:"MEMORIA_INVOICING_CALLBACK_TOKEN" required:"true"`
	SuccessURL     string        `envconfig:"MEMORIA_INVOICING_SUCCESS_URL" required:"true"`
	FailureURL     string        `envconfig:"MEMORIA_INVOICING_FAILURE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"MEMORIA_INVOICING_TIMEOUT" default:"15s"`
	Currency       string        `envconfig:"MEMORIA_INVOICING_CURRENCY" default:"PHP"`
}

// CheckoutConfig carries named checkout policies.
type CheckoutConfig struct {
	// ClearCartOnSuccess clears the buyer's cart once the provisional order
	// has committed. Off by default so a failed payment keeps the cart usable.
	ClearCartOnSuccess bool `envconfig:"MEMORIA_CHECKOUT_CLEAR_CART" default:"false"`
}

type WebhookConfig struct {
	EventTTL time.Duration `envconfig:"MEMORIA_WEBHOOK_EVENT_TTL" default:"720h"`
}

type RateLimitConfig struct {
	WebhookWindow     time.Duration `envconfig:"MEMORIA_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	WebhookIPLimit    int           `envconfig:"MEMORIA_RATE_LIMIT_WEBHOOK_IP_LIMIT" default:"120"`
	CheckoutWindow    time.Duration `envconfig:"MEMORIA_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutUserLimit int           `envconfig:"MEMORIA_RATE_LIMIT_CHECKOUT_USER_LIMIT" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == "sqlite" {
		return fmt.Errorf("%s is required when MEMORIA_DB_DRIVER=sqlite", EnvDBDSN)
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
