package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// APIServerConfig holds the settings of the HTTP API server.
type APIServerConfig struct {
	Host string     `mapstructure:"HOST"`
	Port string     `mapstructure:"PORT"`
	CORS CORSConfig `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// NotifyServerConfig holds the settings of the WebSocket notification server.
type NotifyServerConfig struct {
	Host          string `mapstructure:"HOST"`
	Port          string `mapstructure:"PORT"`
	WebSocketPath string `mapstructure:"WEBSOCKET_PATH"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName      string             `mapstructure:"APP_NAME"`
	AppVersion   string             `mapstructure:"APP_VERSION"`
	AppEnv       string             `mapstructure:"APP_ENV"`
	LogLevel     string             `mapstructure:"LOG_LEVEL"`
	LogFormat    string             `mapstructure:"LOG_FORMAT"`
	Server       ServerConfig       `mapstructure:"SERVER"`
	APIServer    APIServerConfig    `mapstructure:"API_SERVER"`
	NotifyServer NotifyServerConfig `mapstructure:"NOTIFY_SERVER"`
	Kafka        KafkaConfig        `mapstructure:"KAFKA"`
	Database     DatabaseConfig     `mapstructure:"DATABASE"`
	Storage      StorageConfig      `mapstructure:"STORAGE"`
	Auth         AuthConfig         `mapstructure:"AUTH"`
	Mail         MailConfig         `mapstructure:"MAIL"`
	Friends      FriendsConfig      `mapstructure:"FRIENDS"`
	WebSocket    WebSocketConfig    `mapstructure:"WEBSOCKET"`
	Redis        RedisConfig        `mapstructure:"REDIS"`
}

// ServerConfig holds timeouts shared by both HTTP servers.
type ServerConfig struct {
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	IdleTimeout    time.Duration `mapstructure:"IDLE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"MAX_HEADER_BYTES"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Enabled           bool     `mapstructure:"ENABLED"`
	Brokers           []string `mapstructure:"BROKERS"`
	ClientID          string   `mapstructure:"CLIENT_ID"`
	FriendEventsTopic string   `mapstructure:"FRIEND_EVENTS_TOPIC"`
	ConsumerGroup     string   `mapstructure:"CONSUMER_GROUP"`
	Protocol          string   `mapstructure:"PROTOCOL"`
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"` // "postgres" or "sqlite"
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
	Path     string `mapstructure:"PATH"` // sqlite file
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// StorageConfig holds configuration for cover image storage.
type StorageConfig struct {
	Type          string `mapstructure:"TYPE"` // only "local" for now
	LocalPath     string `mapstructure:"LOCAL_PATH"`
	BaseURL       string `mapstructure:"BASE_URL"`
	MaxFileSizeMB int64  `mapstructure:"MAX_FILE_SIZE_MB"`
}

// AuthConfig holds configuration for authentication.
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
	ResetCodeTTL time.Duration `mapstructure:"RESET_CODE_TTL"`
}

// MailConfig holds the outbound SMTP settings. An empty Host selects the log mailer.
type MailConfig struct {
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	From     string `mapstructure:"FROM"`
}

// FriendsConfig tunes the social graph endpoints.
type FriendsConfig struct {
	SearchLimit int `mapstructure:"SEARCH_LIMIT"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWaitSeconds    int `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
}

const minJWTSecretLength = 32

// IsDevelopment reports whether the app runs with development defaults.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// Validate rejects configurations the servers cannot start with.
func (c Config) Validate() error {
	switch c.Database.Type {
	case "postgres":
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DATABASE.PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}
	if c.Auth.JWTSecretKey == "" {
		return errors.New("AUTH.JWT_SECRET_KEY is required")
	}
	if !c.IsDevelopment() && len(c.Auth.JWTSecretKey) < minJWTSecretLength {
		return fmt.Errorf("AUTH.JWT_SECRET_KEY must be at least %d characters outside development", minJWTSecretLength)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.FriendEventsTopic == "") {
		return errors.New("KAFKA.BROKERS and KAFKA.FRIEND_EVENTS_TOPIC are required when Kafka is enabled")
	}
	if c.Friends.SearchLimit <= 0 {
		return errors.New("FRIENDS.SEARCH_LIMIT must be positive")
	}
	return nil
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory, when present, is loaded into the
// process environment first.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("APP_NAME", "Shelf")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER.MAX_HEADER_BYTES", 1<<20) // 1 MB

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "3000")
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	v.SetDefault("NOTIFY_SERVER.HOST", "0.0.0.0")
	v.SetDefault("NOTIFY_SERVER.PORT", "3001")
	v.SetDefault("NOTIFY_SERVER.WEBSOCKET_PATH", "/ws/notifications")

	v.SetDefault("KAFKA.ENABLED", false)
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "shelf-go")
	v.SetDefault("KAFKA.FRIEND_EVENTS_TOPIC", "shelf-friend-events")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "shelf-notify-server")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "shelf")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.PATH", "./shelf.db")
	v.SetDefault("DATABASE.LOG_LEVEL", "warn")

	v.SetDefault("STORAGE.TYPE", "local")
	v.SetDefault("STORAGE.LOCAL_PATH", "./uploads")
	v.SetDefault("STORAGE.BASE_URL", "/uploads")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 5)

	v.SetDefault("AUTH.JWT_SECRET_KEY", "devsecret")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH.RESET_CODE_TTL", time.Hour)

	v.SetDefault("MAIL.HOST", "")
	v.SetDefault("MAIL.PORT", 587)
	v.SetDefault("MAIL.FROM", "Shelf <noreply@shelf.local>")

	v.SetDefault("FRIENDS.SEARCH_LIMIT", 20)

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54) // (60 * 9) / 10
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 512)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// SERVER_READ_TIMEOUT overrides SERVER.READ_TIMEOUT and so on.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	err = config.Validate()
	return
}
