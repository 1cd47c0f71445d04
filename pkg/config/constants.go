package config

const (
	EnvPrefix = "CHATSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv              = "CHATSTORE_APP_ENV"
	EnvPort                = "CHATSTORE_APP_PORT"
	EnvDBDSN               = "CHATSTORE_DB_DSN"
	EnvDBHost              = "CHATSTORE_DB_HOST"
	EnvDBUser              = "CHATSTORE_DB_USER"
	EnvDBName              = "CHATSTORE_DB_NAME"
	EnvDBPassword          = "CHATSTORE_DB_PASSWORD"
	EnvRedisURL            = "CHATSTORE_REDIS_URL"
	EnvJWTSecret           = "CHATSTORE_JWT_SECRET"
	EnvJWTIssuer           = "CHATSTORE_JWT_ISSUER"
	EnvOrderNumberTimezone = "CHATSTORE_ORDER_NUMBER_TIMEZONE"
	EnvNotifyChannels      = "CHATSTORE_NOTIFY_CHANNELS"
	EnvNotifyMaxAttempts   = "CHATSTORE_NOTIFY_MAX_ATTEMPTS"
	EnvNotifyBaseDelay     = "CHATSTORE_NOTIFY_BASE_DELAY"
	EnvNotifyMaxDelay      = "CHATSTORE_NOTIFY_MAX_DELAY"
	EnvProofAutoConfirm    = "CHATSTORE_PAYMENT_PROOF_AUTO_CONFIRM"
	EnvProofExtractTimeout = "CHATSTORE_PAYMENT_PROOF_EXTRACT_TIMEOUT"

	ChannelInApp     = "in_app"
	ChannelRealtime  = "realtime"
	ChannelChatbot   = "chatbot"
	ChannelAnalytics = "analytics"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
