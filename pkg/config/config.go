package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "DUKASTORE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "DUKASTORE_DB_DSN"
	EnvDBHost = "DUKASTORE_DB_HOST"
	EnvDBUser = "DUKASTORE_DB_USER"
	EnvDBName = "DUKASTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Session  SessionConfig
	Shipping ShippingConfig
	Payments PaymentsConfig
	Notify   NotifyConfig
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
	Env          string `envconfig:"DUKASTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"DUKASTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DUKASTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUKASTORE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"DUKASTORE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUKASTORE_DB_DSN"`
	Driver string `envconfig:"DUKASTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DUKASTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"DUKASTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DUKASTORE_DB_USER"`
	LegacyPassword string `envconfig:"DUKASTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"DUKASTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"DUKASTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKASTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKASTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKASTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKASTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKASTORE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"DUKASTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKASTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKASTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKASTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKASTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKASTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKASTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"DUKASTORE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"DUKASTORE_JWT_ISSUER" default:"dukastore"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"DUKASTORE_SESSION_COOKIE" default:"duka_session"`
	TTL        time.Duration `envconfig:"DUKASTORE_SESSION_TTL" default:"720h"`
	Secure     bool          `envconfig:"DUKASTORE_SESSION_SECURE" default:"true"`
}

// ShippingConfig carries the threshold rule the pricing aggregator applies.
// Amounts are in currency minor units.
type ShippingConfig struct {
	FreeThreshold  int64 `envconfig:"DUKASTORE_SHIPPING_FREE_THRESHOLD" default:"5000"`
	StandardFee    int64 `envconfig:"DUKASTORE_SHIPPING_STANDARD_FEE" default:"500"`
	ExpressFlatFee int64 `envconfig:"DUKASTORE_SHIPPING_EXPRESS_FEE" default:"1000"`
}

type PaymentsConfig struct {
	ChargeTimeout time.Duration `envconfig:"DUKASTORE_PAYMENT_CHARGE_TIMEOUT" default:"30s"`
	Square        SquareConfig
	Mpesa         MpesaConfig
	Paypal        PaypalConfig
}

type SquareConfig struct {
	AccessToken string `envconfig:"DUKASTORE_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"DUKASTORE_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"DUKASTORE_SQUARE_LOCATION_ID"`
	Currency    string `envconfig:"DUKASTORE_SQUARE_CURRENCY" default:"KES"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type MpesaConfig struct {
	BaseURL       string `envconfig:"DUKASTORE_MPESA_BASE_URL" default:"https://sandbox.safaricom.co.ke"`
	ConsumerKey   string `envconfig:"DUKASTORE_MPESA_CONSUMER_KEY"`
	ConsumerToken string `envconfig:"DUKASTORE_MPESA_CONSUMER_SECRET"`
	ShortCode     string `envconfig:"DUKASTORE_MPESA_SHORT_CODE"`
	Passkey       string `envconfig:"DUKASTORE_MPESA_PASSKEY"`
	CallbackURL   string `envconfig:"DUKASTORE_MPESA_CALLBACK_URL"`
}

type PaypalConfig struct {
	BaseURL      string `envconfig:"DUKASTORE_PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID     string `envconfig:"DUKASTORE_PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"DUKASTORE_PAYPAL_CLIENT_SECRET"`
	Currency     string `envconfig:"DUKASTORE_PAYPAL_CURRENCY" default:"USD"`
}

type NotifyConfig struct {
	WebhookURL  string        `envconfig:"DUKASTORE_NOTIFY_WEBHOOK_URL"`
	FromAddress string        `envconfig:"DUKASTORE_NOTIFY_FROM" default:"orders@dukastore.africa"`
	Timeout     time.Duration `envconfig:"DUKASTORE_NOTIFY_TIMEOUT" default:"10s"`
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
