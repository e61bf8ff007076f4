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
	JWT          JWTConfig
	Password     PasswordConfig
	Checkout     CheckoutConfig
	Payments     PaymentsConfig
	Square       SquareConfig
	FeatureFlags FeatureFlagsConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SMARTSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"SMARTSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SMARTSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SMARTSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SMARTSHOP_DB_DSN"`
	Driver string `envconfig:"SMARTSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SMARTSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"SMARTSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SMARTSHOP_DB_USER"`
	LegacyPassword string `envconfig:"SMARTSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"SMARTSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"SMARTSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SMARTSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SMARTSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SMARTSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMARTSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SMARTSHOP_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SMARTSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMARTSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMARTSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMARTSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMARTSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMARTSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMARTSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SMARTSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SMARTSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SMARTSHOP_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SMARTSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SMARTSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SMARTSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SMARTSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SMARTSHOP_ARGON_KEY_LEN" default:"32"`
}

// CheckoutConfig bounds each network call issued by the order workflow engine.
type CheckoutConfig struct {
	StepTimeout time.Duration `envconfig:"SMARTSHOP_CHECKOUT_STEP_TIMEOUT" default:"10s"`
}

const (
	PaymentModeInline = "inline"
	PaymentModeHosted = "hosted"
)

// PaymentsConfig selects the active payment strategy and its return URLs.
type PaymentsConfig struct {
	Mode           string `envconfig:"SMARTSHOP_PAYMENTS_MODE" default:"inline"`
	SuccessURL     string `envconfig:"SMARTSHOP_PAYMENTS_SUCCESS_URL"`
	CancelURL      string `envconfig:"SMARTSHOP_PAYMENTS_CANCEL_URL"`
	FeePercent     string `envconfig:"SMARTSHOP_PAYMENTS_FEE_PERCENT" default:"2.9"`
	FeeFixedAmount int64  `envconfig:"SMARTSHOP_PAYMENTS_FEE_FIXED" default:"2000"`
}

func (p PaymentsConfig) validate() error {
	switch p.NormalizedMode() {
	case PaymentModeInline:
		return nil
	case PaymentModeHosted:
		if strings.TrimSpace(p.SuccessURL) == "" || strings.TrimSpace(p.CancelURL) == "" {
			return fmt.Errorf("hosted payments require success and cancel URLs")
		}
		return nil
	default:
		return fmt.Errorf("payments mode must be %q or %q", PaymentModeInline, PaymentModeHosted)
	}
}

// NormalizedMode returns the lowercased payment mode.
func (p PaymentsConfig) NormalizedMode() string {
	return strings.ToLower(strings.TrimSpace(p.Mode))
}

type SquareConfig struct {
	AccessToken   string `envconfig:"SMARTSHOP_SQUARE_ACCESS_TOKEN"`
	Env           string `envconfig:"SMARTSHOP_SQUARE_ENV" default:"sandbox"`
	LocationID    string `envconfig:"SMARTSHOP_SQUARE_LOCATION_ID"`
	WebhookSecret string `envconfig:"SMARTSHOP_SQUARE_WEBHOOK_SECRET"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SMARTSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SMARTSHOP_AUTO_MIGRATE" default:"false"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"SMARTSHOP_GCP_PROJECT_ID"`
	OrdersTopic string `envconfig:"SMARTSHOP_PUBSUB_ORDERS_TOPIC" default:"smartshop-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SMARTSHOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SMARTSHOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SMARTSHOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
