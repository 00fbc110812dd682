package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Database  *DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig     `yaml:"redis"`
	SMS       *SMSConfig       `yaml:"sms"`
	Maps      *MapsConfig      `yaml:"maps"`
	AI        *AIConfig        `yaml:"ai"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
	Dispatch  *DispatchConfig  `yaml:"dispatch"`
	Security  *SecurityConfig  `yaml:"security"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	Host        string `yaml:"host"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

type DatabaseConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
	MinPoolSize    int           `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
}

type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type SMSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type MapsConfig struct {
	APIKey string `yaml:"api_key"`
}

// AIConfig points at the managed completion gateway used for symptom
// assessment. The gateway is consumed as a single request/response call.
type AIConfig struct {
	GatewayURL string        `yaml:"gateway_url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
}

type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	PongWait        time.Duration `yaml:"pong_wait"`
	WriteWait       time.Duration `yaml:"write_wait"`
}

type DispatchConfig struct {
	AcceptETAWindow     time.Duration `yaml:"accept_eta_window"`
	StaleEventExpiry    time.Duration `yaml:"stale_event_expiry"`
	ExpirySweepSchedule string        `yaml:"expiry_sweep_schedule"`
}

type SecurityConfig struct {
	JWTSecret          string   `yaml:"jwt_secret"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	TrustedProxies     []string `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	config := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		SMS:       loadSMSConfig(),
		Maps:      loadMapsConfig(),
		AI:        loadAIConfig(),
		WebSocket: loadWebSocketConfig(),
		Dispatch:  loadDispatchConfig(),
		Security:  loadSecurityConfig(),
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "HealthMate"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "localhost"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:       getEnv("MONGODB_DATABASE", "healthmate"),
		MaxPoolSize:    getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:    getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
	}
}

func loadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvAsInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvAsInt("REDIS_DB", 0),
		PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func loadSMSConfig() *SMSConfig {
	return &SMSConfig{
		Enabled:    getEnvAsBool("SMS_ENABLED", false),
		AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
	}
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
	}
}

func loadAIConfig() *AIConfig {
	return &AIConfig{
		GatewayURL: getEnv("AI_GATEWAY_URL", ""),
		APIKey:     getEnv("AI_API_KEY", ""),
		Model:      getEnv("AI_MODEL", "gpt-4o-mini"),
		Timeout:    getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
	}
}

func loadWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
		WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
		PongWait:        getEnvAsDuration("WS_PONG_WAIT", 60*time.Second),
		WriteWait:       getEnvAsDuration("WS_WRITE_WAIT", 10*time.Second),
	}
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		AcceptETAWindow:     getEnvAsDuration("DISPATCH_ACCEPT_ETA_WINDOW", 15*time.Minute),
		StaleEventExpiry:    getEnvAsDuration("DISPATCH_STALE_EVENT_EXPIRY", 30*time.Minute),
		ExpirySweepSchedule: getEnv("DISPATCH_EXPIRY_SWEEP_SCHEDULE", "* * * * *"),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}
