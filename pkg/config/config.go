package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded once at startup.
type Config struct {
	Port        string
	Env         string
	PostgresURL string

	// RedisAddr, when set, switches the live-session bus from the
	// in-process hub to Redis pub/sub so multiple server processes
	// share groups.
	RedisAddr     string
	RedisPassword string

	JWTSecret string

	// VAPID key pair for Web Push. Both empty means the push channel is
	// disabled and the subscribe endpoint degrades to 503.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// DispatchTimeout bounds each notification delivery channel.
	DispatchTimeout time.Duration
}

// Load reads configuration from the environment, consulting a .env
// file when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		PostgresURL:     getEnv("POSTGRES_CONN_STR", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		JWTSecret:       getEnv("JWT_SECRET", "supersecretjwtkey"),
		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@numeneon.app"),
		DispatchTimeout: getDurationEnv("DISPATCH_TIMEOUT", 5*time.Second),
	}
}

// PushEnabled reports whether the Web Push capability is configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s value %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
