package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret    []byte
	JWTAlgorithm string
	TokenTTL     time.Duration

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string

	KafkaBrokers []string
	EventsTopic  string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

// Load reads .env (if present) and the process environment and aborts on
// missing required settings.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "employees"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		JWTAlgorithm: EnvDefault("JWT_ALGORITHM", "HS256"),
		TokenTTL:     time.Duration(EnvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		AdminUsername:     EnvDefault("ADMIN_USERNAME", "admin"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		EventsTopic:  EnvDefault("EMPLOYEE_EVENTS_TOPIC", "employee_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "employees"),
	}

	var errs []error
	if err := NonEmpty(cfg.DatabaseURL, "DATABASE_URL"); err != nil {
		errs = append(errs, err)
	}
	if err := NonEmptyBytes(cfg.JWTSecret, "JWT_SECRET"); err != nil {
		errs = append(errs, err)
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		errs = append(errs, fmt.Errorf("missing required env ADMIN_PASSWORD or ADMIN_PASSWORD_HASH"))
	}
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
