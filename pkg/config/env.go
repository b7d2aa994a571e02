package config

// EnvPrefix is handed to envconfig; every field carries an explicit tag.
const EnvPrefix = "MOODJOURNAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "MOODJOURNAL_APP_ENV"
	EnvPort   = "MOODJOURNAL_APP_PORT"

	EnvDBDSN  = "MOODJOURNAL_DB_DSN"
	EnvDBHost = "MOODJOURNAL_DB_HOST"
	EnvDBUser = "MOODJOURNAL_DB_USER"
	EnvDBName = "MOODJOURNAL_DB_NAME"

	EnvRedisURL  = "MOODJOURNAL_REDIS_URL"
	EnvRedisAddr = "MOODJOURNAL_REDIS_ADDR"

	EnvClerkJWTPublicKey     = "MOODJOURNAL_CLERK_JWT_PUBLIC_KEY"
	EnvClerkIssuer           = "MOODJOURNAL_CLERK_ISSUER"
	EnvClerkAuthorizedParty  = "MOODJOURNAL_CLERK_AUTHORIZED_PARTIES"
	EnvClerkWebhookSecret    = "MOODJOURNAL_CLERK_WEBHOOK_SECRET"
	EnvLLMAPIKey             = "MOODJOURNAL_LLM_API_KEY"
	EnvLLMTimeout            = "MOODJOURNAL_LLM_TIMEOUT"
	EnvTrialPeriod           = "MOODJOURNAL_TRIAL_PERIOD"
	EnvCORSOrigins           = "MOODJOURNAL_CORS_ORIGINS"
	EnvStripeSubscriptionPID = "MOODJOURNAL_STRIPE_SUBSCRIPTION_PRICE_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
