package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values are read from an optional
// YAML file and then overridden by NSULTAN_* environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Business  BusinessConfig  `yaml:"business"`
	Assistant AssistantConfig `yaml:"assistant"`
	S3        S3Config        `yaml:"s3"`
	Push      PushConfig      `yaml:"push"`
	Email     EmailConfig     `yaml:"email"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Backup    BackupConfig    `yaml:"backup"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	BaseURL        string        `yaml:"base_url"`
	StaticDir      string        `yaml:"static_dir"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	SecureCookies  bool          `yaml:"secure_cookies"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdminConfig bootstraps the back-office account. Either Password or
// PasswordHash (bcrypt) must be set for the account to be created.
type AdminConfig struct {
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	PasswordHash string        `yaml:"password_hash"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type BusinessConfig struct {
	Name          string `yaml:"name"`
	DeliveryFee   int64  `yaml:"delivery_fee"`
	PaymentMethod string `yaml:"payment_method"`
	PaymentNumber string `yaml:"payment_number"`
	MinTrxLength  int    `yaml:"min_trx_length"`
}

type AssistantConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
}

type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"`
}

type EmailConfig struct {
	PostmarkToken string `yaml:"postmark_token"`
	From          string `yaml:"from"`
	NotifyTo      string `yaml:"notify_to"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// BackupConfig controls encrypted database backups. Backups go to the S3
// bucket and need a passphrase; without both they are off.
type BackupConfig struct {
	Passphrase string        `yaml:"passphrase"`
	Prefix     string        `yaml:"prefix"`
	Interval   time.Duration `yaml:"interval"`
	Keep       int           `yaml:"keep"`
}

// Defaults returns the configuration used when nothing else is provided.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{Path: "nsultan.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Admin:    AdminConfig{Username: "admin", SessionTTL: 7 * 24 * time.Hour},
		Business: BusinessConfig{
			Name:          "N Sultan",
			DeliveryFee:   50,
			PaymentMethod: "bKash",
			PaymentNumber: "01346-646075",
			MinTrxLength:  4,
		},
		Assistant: AssistantConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:       "gemini-2.0-flash",
			MaxTokens:   1024,
			Temperature: 0.7,
		},
		Push:  PushConfig{Subscriber: "mailto:owner@nsultan.example"},
		Redis: RedisConfig{Channel: "nsultan:realtime"},
		Kafka: KafkaConfig{Topic: "nsultan.lifecycle"},
		Backup: BackupConfig{
			Prefix:   "backups",
			Interval: 24 * time.Hour,
			Keep:     14,
		},
	}
}

// Load reads .env (if present), the YAML file at path (if non-empty and present),
// and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:" + cfg.Server.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup("NSULTAN_" + key); ok {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup("NSULTAN_" + key); ok {
			*dst = splitList(v)
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup("NSULTAN_" + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("NSULTAN_%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("PORT", &c.Server.Port)
	str("BASE_URL", &c.Server.BaseURL)
	str("STATIC_DIR", &c.Server.StaticDir)
	list("ALLOWED_ORIGINS", &c.Server.AllowedOrigins)
	if v, ok := lookup("NSULTAN_SECURE_COOKIES"); ok {
		c.Server.SecureCookies = v == "true" || v == "1"
	}
	str("DB_PATH", &c.Database.Path)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("ADMIN_USERNAME", &c.Admin.Username)
	str("ADMIN_PASSWORD", &c.Admin.Password)
	str("ADMIN_PASSWORD_HASH", &c.Admin.PasswordHash)

	if v, ok := lookup("NSULTAN_DELIVERY_FEE"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("NSULTAN_DELIVERY_FEE: %w", err))
		} else {
			c.Business.DeliveryFee = n
		}
	}
	str("PAYMENT_NUMBER", &c.Business.PaymentNumber)

	str("ASSISTANT_API_KEY", &c.Assistant.APIKey)
	str("ASSISTANT_BASE_URL", &c.Assistant.BaseURL)
	str("ASSISTANT_MODEL", &c.Assistant.Model)

	str("S3_ENDPOINT", &c.S3.Endpoint)
	str("S3_BUCKET", &c.S3.Bucket)
	str("S3_REGION", &c.S3.Region)
	str("S3_ACCESS_KEY", &c.S3.AccessKey)
	str("S3_SECRET_KEY", &c.S3.SecretKey)
	str("S3_PUBLIC_URL", &c.S3.PublicURL)

	str("VAPID_PUBLIC_KEY", &c.Push.VAPIDPublicKey)
	str("VAPID_PRIVATE_KEY", &c.Push.VAPIDPrivateKey)

	str("POSTMARK_TOKEN", &c.Email.PostmarkToken)
	str("EMAIL_FROM", &c.Email.From)
	str("EMAIL_NOTIFY_TO", &c.Email.NotifyTo)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	integer("REDIS_DB", &c.Redis.DB)

	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	str("KAFKA_TOPIC", &c.Kafka.Topic)

	str("BACKUP_PASSPHRASE", &c.Backup.Passphrase)
	str("BACKUP_PREFIX", &c.Backup.Prefix)
	integer("BACKUP_KEEP", &c.Backup.Keep)
	if v, ok := lookup("NSULTAN_BACKUP_INTERVAL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("NSULTAN_BACKUP_INTERVAL: %w", err))
		} else {
			c.Backup.Interval = d
		}
	}

	return errors.Join(errs...)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Business.DeliveryFee < 0 {
		errs = append(errs, errors.New("business.delivery_fee must not be negative"))
	}
	if c.Business.MinTrxLength < 1 {
		errs = append(errs, errors.New("business.min_trx_length must be at least 1"))
	}
	if c.Admin.SessionTTL <= 0 {
		errs = append(errs, errors.New("admin.session_ttl must be positive"))
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		errs = append(errs, errors.New("push requires both vapid_public_key and vapid_private_key"))
	}
	if c.S3.Bucket != "" && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		errs = append(errs, errors.New("s3.bucket requires access_key and secret_key"))
	}
	if c.Backup.Passphrase != "" {
		if !c.S3Enabled() {
			errs = append(errs, errors.New("backup.passphrase requires s3 storage"))
		}
		if len(c.Backup.Passphrase) < 12 {
			errs = append(errs, errors.New("backup.passphrase must be at least 12 characters"))
		}
		if c.Backup.Keep < 1 {
			errs = append(errs, errors.New("backup.keep must be at least 1"))
		}
	}
	return errors.Join(errs...)
}

// S3Enabled reports whether media uploads can be stored.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

// PushEnabled reports whether VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != ""
}

// BackupEnabled reports whether encrypted backups can run.
func (c *Config) BackupEnabled() bool {
	return c.S3Enabled() && c.Backup.Passphrase != ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
