package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Proximity ProximityConfig
	ScanQueue QueueConfig
	CalcQueue QueueConfig
	Results   ResultsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ProximityConfig carries BLE signal calibration and the attendance cutoffs.
type ProximityConfig struct {
	// RefRssi is the calibrated RSSI at one meter, in dBm.
	RefRssi int
	// PathLossExponent is the indoor path-loss exponent N.
	PathLossExponent float64
	// RssiThreshold is the weakest signal that still counts as a detection.
	RssiThreshold int
	// PresentPercent and LatePercent split the final attendance statuses.
	PresentPercent float64
	LatePercent    float64
}

// QueueConfig sizes one of the background processing queues.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ResultsConfig tunes round result caching.
type ResultsConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Proximity = ProximityConfig{
		RefRssi:          v.GetInt("PROXIMITY_REF_RSSI"),
		PathLossExponent: v.GetFloat64("PROXIMITY_PATH_LOSS_EXPONENT"),
		RssiThreshold:    v.GetInt("PROXIMITY_RSSI_THRESHOLD"),
		PresentPercent:   v.GetFloat64("ATTENDANCE_PRESENT_PERCENT"),
		LatePercent:      v.GetFloat64("ATTENDANCE_LATE_PERCENT"),
	}

	cfg.ScanQueue = QueueConfig{
		Workers:    v.GetInt("SCAN_QUEUE_WORKERS"),
		BufferSize: v.GetInt("SCAN_QUEUE_BUFFER"),
		MaxRetries: v.GetInt("SCAN_QUEUE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("SCAN_QUEUE_RETRY_DELAY"), 2*time.Second),
	}

	cfg.CalcQueue = QueueConfig{
		Workers:    v.GetInt("CALC_QUEUE_WORKERS"),
		BufferSize: v.GetInt("CALC_QUEUE_BUFFER"),
		MaxRetries: v.GetInt("CALC_QUEUE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("CALC_QUEUE_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Results = ResultsConfig{
		CacheTTL: parseDuration(v.GetString("ROUND_RESULT_CACHE_TTL"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "beacon_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PROXIMITY_REF_RSSI", -59)
	v.SetDefault("PROXIMITY_PATH_LOSS_EXPONENT", 2.0)
	v.SetDefault("PROXIMITY_RSSI_THRESHOLD", -70)
	v.SetDefault("ATTENDANCE_PRESENT_PERCENT", 75.0)
	v.SetDefault("ATTENDANCE_LATE_PERCENT", 50.0)

	v.SetDefault("SCAN_QUEUE_WORKERS", 4)
	v.SetDefault("SCAN_QUEUE_BUFFER", 64)
	v.SetDefault("SCAN_QUEUE_MAX_RETRIES", 5)
	v.SetDefault("SCAN_QUEUE_RETRY_DELAY", "2s")

	v.SetDefault("CALC_QUEUE_WORKERS", 2)
	v.SetDefault("CALC_QUEUE_BUFFER", 16)
	v.SetDefault("CALC_QUEUE_MAX_RETRIES", 5)
	v.SetDefault("CALC_QUEUE_RETRY_DELAY", "5s")

	v.SetDefault("ROUND_RESULT_CACHE_TTL", "30s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
