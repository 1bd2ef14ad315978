package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	minMessageLength = 120
	maxMessageLength = 160

	// lockMargin keeps a subscriber lock alive past the slowest turn.
	lockMargin = 5 * time.Second
)

// ErrTimeoutBudget is returned when the collaborator timeouts of one checkout
// turn do not fit inside REQUEST_TIMEOUT.
var ErrTimeoutBudget = errors.New("collaborator timeouts exceed request timeout")

type Config struct {
	Port     string `mapstructure:"PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	Brand                 string `mapstructure:"BRAND_NAME"`
	SupportPhone          string `mapstructure:"SUPPORT_PHONE"`
	PaymentShortcode      string `mapstructure:"PAYMENT_SHORTCODE"`
	CatalogSource         string `mapstructure:"CATALOG_SOURCE"`
	CatalogMigrationsPath string `mapstructure:"CATALOG_MIGRATIONS_PATH"`
	MaxMessageLength      int    `mapstructure:"MAX_MESSAGE_LENGTH"`
	DiscountPrompt        bool   `mapstructure:"DISCOUNT_PROMPT"`
	DeliveryNotePrompt    bool   `mapstructure:"DELIVERY_NOTE_PROMPT"`

	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	SessionSaveTimeout time.Duration `mapstructure:"SESSION_SAVE_TIMEOUT"`
	ReplayWindow       time.Duration `mapstructure:"REPLAY_WINDOW"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         int    `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	MongoURI          string        `mapstructure:"MONGO_URI"`
	MongoDBName       string        `mapstructure:"MONGO_DB_NAME"`
	TurnLogCollection string        `mapstructure:"TURN_LOG_COLLECTION"`
	AuditQueueSize    int           `mapstructure:"AUDIT_QUEUE_SIZE"`
	AuditTimeout      time.Duration `mapstructure:"AUDIT_TIMEOUT"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	OrdersTopic  string `mapstructure:"ORDERS_TOPIC"`

	BulkSMSAPIKey   string `mapstructure:"BULK_SMS_API_KEY"`
	BulkSMSSenderID string `mapstructure:"BULK_SMS_SENDER_ID"`
	BulkSMSURL      string `mapstructure:"BULK_SMS_URL"`

	PaymentAPIURL      string        `mapstructure:"PAYMENT_API_URL"`
	PaymentAPIKey      string        `mapstructure:"PAYMENT_API_KEY"`
	PaymentMaxAttempts uint          `mapstructure:"PAYMENT_MAX_ATTEMPTS"`
	StoreTimeout       time.Duration `mapstructure:"STORE_TIMEOUT"`
	SMSTimeout         time.Duration `mapstructure:"SMS_TIMEOUT"`
	PaymentTimeout     time.Duration `mapstructure:"PAYMENT_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":      "5000",
	"GRPC_PORT": "50057",

	"LOG_LEVEL":  "info",
	"LOG_PRETTY": false,

	"BRAND_NAME":              "FLAP Dish",
	"SUPPORT_PHONE":           "",
	"PAYMENT_SHORTCODE":       "*415*1738#",
	"CATALOG_SOURCE":          "",
	"CATALOG_MIGRATIONS_PATH": "./internal/catalog/migrations",
	"MAX_MESSAGE_LENGTH":      maxMessageLength,
	"DISCOUNT_PROMPT":         true,
	"DELIVERY_NOTE_PROMPT":    true,

	"SESSION_TTL":          "24h",
	"SESSION_SAVE_TIMEOUT": "5s",
	"REPLAY_WINDOW":        "10s",
	"REQUEST_TIMEOUT":      "30s",
	"SHUTDOWN_TIMEOUT":     "10s",
	"RATE_LIMIT_RPS":       1,
	"RATE_LIMIT_BURST":     5,

	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"DB_HOST":         "",
	"DB_PORT":         5432,
	"DB_USER":         "",
	"DB_PASSWORD":     "",
	"DB_NAME":         "",
	"MIGRATIONS_PATH": "./internal/repository/migrations",

	"MONGO_URI":           "",
	"MONGO_DB_NAME":       "ussd",
	"TURN_LOG_COLLECTION": "ussd_responses",
	"AUDIT_QUEUE_SIZE":    1024,
	"AUDIT_TIMEOUT":       "5s",

	"KAFKA_BROKERS": "",
	"ORDERS_TOPIC":  "ussd-orders",

	"BULK_SMS_API_KEY":   "",
	"BULK_SMS_SENDER_ID": "FLAPDish",
	"BULK_SMS_URL":       "",

	"PAYMENT_API_URL":      "",
	"PAYMENT_API_KEY":      "",
	"PAYMENT_MAX_ATTEMPTS": 3,
	"STORE_TIMEOUT":        "5s",
	"SMS_TIMEOUT":          "5s",
	"PAYMENT_TIMEOUT":      "15s",
}

// Load reads the environment, and the file named by CONFIG_FILE when set,
// over the built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.MaxMessageLength = min(max(c.MaxMessageLength, minMessageLength), maxMessageLength)
	if c.AuditQueueSize <= 0 {
		c.AuditQueueSize = defaults["AUDIT_QUEUE_SIZE"].(int)
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 1
	}
	if c.SessionSaveTimeout <= 0 {
		c.SessionSaveTimeout = 5 * time.Second
	}
}

// validate rejects settings where a confirm turn that charges, stores and
// texts could outlive its own request deadline.
func (c *Config) validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if turn := c.StoreTimeout + c.SMSTimeout + c.PaymentTimeout; turn >= c.RequestTimeout {
		return fmt.Errorf("%w: store %s + sms %s + payment %s >= %s",
			ErrTimeoutBudget, c.StoreTimeout, c.SMSTimeout, c.PaymentTimeout, c.RequestTimeout)
	}
	return nil
}

// LockTTL is how long a subscriber lock may live: the whole turn plus the
// session save that follows it.
func (c *Config) LockTTL() time.Duration {
	return c.RequestTimeout + c.SessionSaveTimeout + lockMargin
}

// Brokers splits the comma separated KAFKA_BROKERS list.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
