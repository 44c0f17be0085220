package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	Locale         string

	Storage  StorageConfig
	Redis    RedisConfig
	Reminder ReminderConfig
	Actions  ActionDefaults

	NotificationBuffer int
	RateLimitRPS       float64
	RateLimitBurst     int
	MetricsEnabled     bool
}

type StorageConfig struct {
	Driver     string
	QuotaBytes int
	MongoURI   string
	SQLitePath string
}

// RedisConfig holds the connection settings for the redis storage driver.
type RedisConfig struct {
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ReminderConfig struct {
	Interval  time.Duration
	Lookahead time.Duration
}

// ActionDefaults are the amounts used when a client triggers an action
// without one. Domain operations never pick a default themselves.
type ActionDefaults struct {
	AccelerateVehicle   float64
	AccelerateSportsCar float64
	AccelerateTruck     float64
	Brake               float64
	Cargo               float64
}

// Load reads the optional .env file and the process environment.
func Load() (*Config, error) {
	// .env is optional; the process environment always wins.
	_ = godotenv.Load()

	r := &reader{}
	cfg := &Config{
		Port:           r.stringVal("PORT", "8080"),
		AllowedOrigins: splitList(r.stringVal("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       r.stringVal("LOG_LEVEL", "info"),
		LogFormat:      r.stringVal("LOG_FORMAT", "json"),
		Locale:         r.stringVal("LOCALE", "pt-BR"),
		Storage: StorageConfig{
			Driver:     strings.ToLower(r.stringVal("STORAGE_DRIVER", DriverMemory)),
			QuotaBytes: r.intVal("STORAGE_QUOTA_BYTES", 5*1024*1024),
			MongoURI:   r.stringVal("MONGO_URI", ""),
			SQLitePath: r.stringVal("SQLITE_PATH", "garage.db"),
		},
		Redis: RedisConfig{
			URL:          r.stringVal("REDIS_URL", ""),
			Host:         r.stringVal("REDIS_HOST", "localhost"),
			Port:         r.stringVal("REDIS_PORT", "6379"),
			Password:     r.stringVal("REDIS_PASSWORD", ""),
			DB:           r.intVal("REDIS_DB", 0),
			KeyPrefix:    r.stringVal("REDIS_KEY_PREFIX", "garage:"),
			PoolSize:     r.intVal("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.intVal("REDIS_MIN_IDLE_CONNS", 2),
			MaxRetries:   r.intVal("REDIS_MAX_RETRIES", 3),
			DialTimeout:  r.durationVal("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.durationVal("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.durationVal("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Reminder: ReminderConfig{
			Interval:  r.durationVal("REMINDER_INTERVAL", time.Minute),
			Lookahead: r.durationVal("REMINDER_LOOKAHEAD", 24*time.Hour),
		},
		Actions: ActionDefaults{
			AccelerateVehicle:   r.floatVal("DEFAULT_ACCELERATE_VEHICLE", 10),
			AccelerateSportsCar: r.floatVal("DEFAULT_ACCELERATE_SPORTSCAR", 25),
			AccelerateTruck:     r.floatVal("DEFAULT_ACCELERATE_TRUCK", 5),
			Brake:               r.floatVal("DEFAULT_BRAKE", 10),
			Cargo:               r.floatVal("DEFAULT_CARGO", 100),
		},
		NotificationBuffer: r.intVal("NOTIFICATION_BUFFER", 100),
		RateLimitRPS:       r.floatVal("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     r.intVal("RATE_LIMIT_BURST", 20),
		MetricsEnabled:     r.boolVal("METRICS_ENABLED", true),
	}
	if r.err != nil {
		return nil, r.err
	}

	switch cfg.Storage.Driver {
	case DriverMemory, DriverRedis, DriverSQLite:
	case DriverMongo:
		if cfg.Storage.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required for the %s storage driver", DriverMongo)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Reminder.Interval <= 0 {
		return nil, fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	return cfg, nil
}

// reader collects the first parse failure so Load can report it once.
type reader struct {
	err error
}

func (r *reader) stringVal(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (r *reader) intVal(key string, fallback int) int {
	v := r.stringVal(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return n
}

func (r *reader) floatVal(key string, fallback float64) float64 {
	v := r.stringVal(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return f
}

func (r *reader) boolVal(key string, fallback bool) bool {
	v := r.stringVal(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return b
}

func (r *reader) durationVal(key string, fallback time.Duration) time.Duration {
	v := r.stringVal(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return d
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
