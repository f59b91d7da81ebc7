package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Shipping ShippingConfig
	Checkout CheckoutConfig
	Flags    FeatureFlagsConfig
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
	Env          string `envconfig:"CADOOBAG_APP_ENV" default:"dev"`
	Port         string `envconfig:"CADOOBAG_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CADOOBAG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CADOOBAG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	DSN string `envconfig:"CADOOBAG_DB_DSN"`

	Host     string `envconfig:"CADOOBAG_DB_HOST"`
	Port     int    `envconfig:"CADOOBAG_DB_PORT" default:"5432"`
	User     string `envconfig:"CADOOBAG_DB_USER"`
	Password string `envconfig:"CADOOBAG_DB_PASSWORD"`
	Name     string `envconfig:"CADOOBAG_DB_NAME"`
	SSLMode  string `envconfig:"CADOOBAG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CADOOBAG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CADOOBAG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CADOOBAG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CADOOBAG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CADOOBAG_REDIS_URL"`
	Address      string        `envconfig:"CADOOBAG_REDIS_ADDR"`
	Password     string        `envconfig:"CADOOBAG_REDIS_PASSWORD"`
	DB           int           `envconfig:"CADOOBAG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CADOOBAG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CADOOBAG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CADOOBAG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CADOOBAG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CADOOBAG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig configures the payment gateway client.
type GatewayConfig struct {
	BaseURL      string        `envconfig:"CADOOBAG_GATEWAY_BASE_URL" required:"true"`
	APIKey       string        `envconfig:"CADOOBAG_GATEWAY_API_KEY" required:"true"`
	PrivateKey   string        `envconfig:"CADOOBAG_GATEWAY_PRIVATE_KEY" required:"true"`
	MerchantCode string        `envconfig:"CADOOBAG_GATEWAY_MERCHANT_CODE" required:"true"`
	Timeout      time.Duration `envconfig:"CADOOBAG_GATEWAY_TIMEOUT" default:"10s"`
	ReturnURL    string        `envconfig:"CADOOBAG_GATEWAY_RETURN_URL"`
}

// ShippingConfig configures the shipping-rate provider client.
type ShippingConfig struct {
	BaseURL      string        `envconfig:"CADOOBAG_SHIPPING_BASE_URL" required:"true"`
	APIKey       string        `envconfig:"CADOOBAG_SHIPPING_API_KEY" required:"true"`
	OriginCityID string        `envconfig:"CADOOBAG_SHIPPING_ORIGIN_CITY" required:"true"`
	Timeout      time.Duration `envconfig:"CADOOBAG_SHIPPING_TIMEOUT" default:"10s"`
	CacheTTL     time.Duration `envconfig:"CADOOBAG_SHIPPING_CACHE_TTL" default:"24h"`
}

// CheckoutConfig tunes the order creation flow.
type CheckoutConfig struct {
	GatewayTimeout      time.Duration `envconfig:"CADOOBAG_CHECKOUT_GATEWAY_TIMEOUT" default:"5s"`
	PaymentExpiry       time.Duration `envconfig:"CADOOBAG_CHECKOUT_PAYMENT_EXPIRY" default:"24h"`
	CompensationRetries int           `envconfig:"CADOOBAG_CHECKOUT_COMPENSATION_RETRIES" default:"3"`
	CallbackGuardTTL    time.Duration `envconfig:"CADOOBAG_CHECKOUT_CALLBACK_GUARD_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CADOOBAG_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for name, value := range map[string]string{
		"CADOOBAG_DB_HOST": db.Host,
		"CADOOBAG_DB_USER": db.User,
		"CADOOBAG_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either CADOOBAG_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
