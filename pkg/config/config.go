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
	Auth         AuthConfig
	LLM          LLMConfig
	Analysis     AnalysisConfig
	Trial        TrialConfig
	Stripe       StripeConfig
	Clerk        ClerkConfig
	Eventing     EventingConfig
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
	if err := cfg.Redis.ensureTarget(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string        `envconfig:"MOODJOURNAL_APP_ENV" required:"true"`
	Port         string        `envconfig:"MOODJOURNAL_APP_PORT" required:"true"`
	LogLevel     string        `envconfig:"MOODJOURNAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool          `envconfig:"MOODJOURNAL_LOG_WARN_STACK" default:"false"`
	LogFormat    string        `envconfig:"MOODJOURNAL_LOG_FORMAT" default:"json"`
	PublicURL    string        `envconfig:"MOODJOURNAL_PUBLIC_URL" default:"http://localhost:3000"`
	CORSOrigins  []string      `envconfig:"MOODJOURNAL_CORS_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout  time.Duration `envconfig:"MOODJOURNAL_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"MOODJOURNAL_HTTP_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `envconfig:"MOODJOURNAL_HTTP_IDLE_TIMEOUT" default:"120s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MOODJOURNAL_DB_DSN"`

	LegacyHost     string `envconfig:"MOODJOURNAL_DB_HOST"`
	LegacyPort     int    `envconfig:"MOODJOURNAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MOODJOURNAL_DB_USER"`
	LegacyPassword string `envconfig:"MOODJOURNAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"MOODJOURNAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"MOODJOURNAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOODJOURNAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOODJOURNAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOODJOURNAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOODJOURNAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig takes either a URL or a host:port address; the URL wins when
// both are set.
type RedisConfig struct {
	URL          string        `envconfig:"MOODJOURNAL_REDIS_URL"`
	Address      string        `envconfig:"MOODJOURNAL_REDIS_ADDR"`
	Password     string        `envconfig:"MOODJOURNAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOODJOURNAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOODJOURNAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOODJOURNAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOODJOURNAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOODJOURNAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOODJOURNAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig configures verification of identity provider session tokens.
type AuthConfig struct {
	JWTPublicKey      string        `envconfig:"MOODJOURNAL_CLERK_JWT_PUBLIC_KEY" required:"true"`
	Issuer            string        `envconfig:"MOODJOURNAL_CLERK_ISSUER"`
	AuthorizedParties []string      `envconfig:"MOODJOURNAL_CLERK_AUTHORIZED_PARTIES"`
	Leeway            time.Duration `envconfig:"MOODJOURNAL_CLERK_JWT_LEEWAY" default:"5s"`
}

type LLMConfig struct {
	APIKey                string        `envconfig:"MOODJOURNAL_LLM_API_KEY" required:"true"`
	Model                 string        `envconfig:"MOODJOURNAL_LLM_MODEL" default:"claude-3-5-haiku-latest"`
	BaseURL               string        `envconfig:"MOODJOURNAL_LLM_BASE_URL"`
	Timeout               time.Duration `envconfig:"MOODJOURNAL_LLM_TIMEOUT" default:"30s"`
	MaxTokens             int64         `envconfig:"MOODJOURNAL_LLM_MAX_TOKENS" default:"1024"`
	AnalysisTemperature   float64       `envconfig:"MOODJOURNAL_LLM_ANALYSIS_TEMPERATURE" default:"0.7"`
	ReflectionTemperature float64       `envconfig:"MOODJOURNAL_LLM_REFLECTION_TEMPERATURE" default:"0.6"`
}

type AnalysisConfig struct {
	MaxChars        int           `envconfig:"MOODJOURNAL_ANALYSIS_MAX_CHARS" default:"8000"`
	RateLimitWindow time.Duration `envconfig:"MOODJOURNAL_ANALYSIS_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimit       int           `envconfig:"MOODJOURNAL_ANALYSIS_RATE_LIMIT" default:"10"`
}

// TrialConfig controls the free trial stamped onto new profiles. A zero
// period disables the trial and puts profiles on the free plan.
type TrialConfig struct {
	Period time.Duration `envconfig:"MOODJOURNAL_TRIAL_PERIOD" default:"168h"`
}

type StripeConfig struct {
	APIKey              string `envconfig:"MOODJOURNAL_STRIPE_API_KEY"`
	Secret              string `envconfig:"MOODJOURNAL_STRIPE_SECRET"`
	Env                 string `envconfig:"MOODJOURNAL_STRIPE_ENV" default:"test"`
	SubscriptionPriceID string `envconfig:"MOODJOURNAL_STRIPE_SUBSCRIPTION_PRICE_ID"`
	SuccessPath         string `envconfig:"MOODJOURNAL_STRIPE_SUCCESS_PATH" default:"/success"`
	CancelPath          string `envconfig:"MOODJOURNAL_STRIPE_CANCEL_PATH" default:"/failed"`
	PortalReturnPath    string `envconfig:"MOODJOURNAL_STRIPE_PORTAL_RETURN_PATH" default:"/pricing"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ClerkConfig struct {
	WebhookSecret string `envconfig:"MOODJOURNAL_CLERK_WEBHOOK_SECRET" required:"true"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"MOODJOURNAL_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MOODJOURNAL_AUTO_MIGRATE" default:"false"`
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

func (r RedisConfig) ensureTarget() error {
	if strings.TrimSpace(r.URL) == "" && strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}
