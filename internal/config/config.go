package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field
// corresponds to an environment variable: strings for identifiers
// and secrets, ints for durations and costs.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	JWTSecret  string // secret used to sign JWTs
	JWTTTLMin  int    // access token time-to-live in minutes
	BcryptCost int    // bcrypt cost for password hashing
	CORSOrigin string // allowed CORS origin (empty allows any)
	AMQPURL    string // RabbitMQ URL (empty disables event publishing)
}

// Load reads configuration values from environment variables.
// Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"), // empty allowed
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		JWTSecret:  must("JWT_SECRET"),
		JWTTTLMin:  mustInt("JWT_TTL_MIN"),
		BcryptCost: mustInt("BCRYPT_COST"),
		CORSOrigin: os.Getenv("CORS_ORIGIN"),
		AMQPURL:    os.Getenv("RABBITMQ_URL"), // empty disables the publisher
	}
}

// Dev reports whether the app runs in a development environment.
// Error details are only echoed back to clients in dev.
func (c Config) Dev() bool { return c.Env == "dev" || c.Env == "development" }

// must retrieves the value of a required environment variable. If
// the variable is unset or empty, the application logs a fatal
// error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
