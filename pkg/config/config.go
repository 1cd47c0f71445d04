package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Orders        OrdersConfig
	Notifications NotificationsConfig
	PaymentProof  PaymentProofConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if _, err := c.Orders.Location(); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvOrderNumberTimezone, err)
	}
	if c.Notifications.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", EnvNotifyMaxAttempts)
	}
	if c.Notifications.MaxDelay < c.Notifications.BaseDelay {
		return fmt.Errorf("%s must not be lower than %s", EnvNotifyMaxDelay, EnvNotifyBaseDelay)
	}
	for _, ch := range c.Notifications.Channels {
		if !isKnownChannel(ch) {
			return fmt.Errorf("unknown notification channel %q in %s", ch, EnvNotifyChannels)
		}
	}
	if c.PaymentProof.ExtractTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvProofExtractTimeout)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"CHATSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"CHATSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHATSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHATSTORE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"CHATSTORE_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CHATSTORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"CHATSTORE_DB_DSN"`

	LegacyHost     string `envconfig:"CHATSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"CHATSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHATSTORE_DB_USER"`
	LegacyPassword string `envconfig:"CHATSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHATSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHATSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHATSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHATSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHATSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHATSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"CHATSTORE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHATSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHATSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"CHATSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHATSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHATSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHATSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHATSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHATSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHATSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CHATSTORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CHATSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CHATSTORE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CHATSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	MaxAgeSeconds  int      `envconfig:"CHATSTORE_CORS_MAX_AGE" default:"300"`
}

type RateLimitConfig struct {
	RequestsPerWindow int64         `envconfig:"CHATSTORE_RATE_LIMIT_REQUESTS" default:"120"`
	Window            time.Duration `envconfig:"CHATSTORE_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHATSTORE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CHATSTORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CHATSTORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CHATSTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ChatbotTopic string `envconfig:"CHATSTORE_PUBSUB_CHATBOT_TOPIC" default:"chatstore-chatbot-messages"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"CHATSTORE_BIGQUERY_DATASET" default:"chatstore"`
	OrderEventsTable string `envconfig:"CHATSTORE_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
}

type OrdersConfig struct {
	// IANA zone used to derive the MMYY order number prefix.
	NumberTimezone string `envconfig:"CHATSTORE_ORDER_NUMBER_TIMEZONE" default:"UTC"`
}

// Location resolves NumberTimezone.
func (o OrdersConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(o.NumberTimezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

type NotificationsConfig struct {
	Channels        []string      `envconfig:"CHATSTORE_NOTIFY_CHANNELS" default:"in_app,realtime,chatbot"`
	MaxAttempts     int           `envconfig:"CHATSTORE_NOTIFY_MAX_ATTEMPTS" default:"4"`
	BaseDelay       time.Duration `envconfig:"CHATSTORE_NOTIFY_BASE_DELAY" default:"500ms"`
	MaxDelay        time.Duration `envconfig:"CHATSTORE_NOTIFY_MAX_DELAY" default:"10s"`
	Jitter          time.Duration `envconfig:"CHATSTORE_NOTIFY_JITTER" default:"250ms"`
	BulkDelay       time.Duration `envconfig:"CHATSTORE_NOTIFY_BULK_DELAY" default:"100ms"`
	RealtimePrefix  string        `envconfig:"CHATSTORE_NOTIFY_REALTIME_PREFIX" default:"chatstore:realtime"`
	DeliveryTimeout time.Duration `envconfig:"CHATSTORE_NOTIFY_DELIVERY_TIMEOUT" default:"5s"`
}

// HasChannel reports whether name is enabled.
func (n NotificationsConfig) HasChannel(name string) bool {
	for _, ch := range n.Channels {
		if strings.EqualFold(strings.TrimSpace(ch), name) {
			return true
		}
	}
	return false
}

type PaymentProofConfig struct {
	AutoConfirm    bool          `envconfig:"CHATSTORE_PAYMENT_PROOF_AUTO_CONFIRM" default:"false"`
	ExtractTimeout time.Duration `envconfig:"CHATSTORE_PAYMENT_PROOF_EXTRACT_TIMEOUT" default:"10s"`
	TesseractPath  string        `envconfig:"CHATSTORE_PAYMENT_PROOF_TESSERACT_PATH" default:"tesseract"`
	Language       string        `envconfig:"CHATSTORE_PAYMENT_PROOF_OCR_LANGUAGE" default:"eng"`
	MaxDocumentMB  int           `envconfig:"CHATSTORE_PAYMENT_PROOF_MAX_DOCUMENT_MB" default:"10"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"CHATSTORE_CRON_INTERVAL" default:"15m"`
	LockTTL               time.Duration `envconfig:"CHATSTORE_CRON_LOCK_TTL" default:"10m"`
	PendingReminderAge    time.Duration `envconfig:"CHATSTORE_CRON_PENDING_REMINDER_AGE" default:"24h"`
	NotificationRetention time.Duration `envconfig:"CHATSTORE_CRON_NOTIFICATION_RETENTION" default:"720h"`
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

func isKnownChannel(name string) bool {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case ChannelInApp, ChannelRealtime, ChannelChatbot, ChannelAnalytics:
		return true
	}
	return false
}
