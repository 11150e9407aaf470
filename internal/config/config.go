package config // package config loads application configuration from environment variables

import (
	"log"  // log is used to report configuration errors and halt execution
	"os"   // os provides access to environment variables
	"time" // time expresses token lifetimes

	"github.com/joho/godotenv" // godotenv seeds the environment from a local .env file
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and identifiers are strings, lifetimes are
// durations and the bcrypt cost is an int.
type Config struct {
	Env           string        // application environment (e.g. "development", "production")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	JWTSecret     string        // secret used to sign access tokens
	AccessTTL     time.Duration // access token lifetime (cookie max-age as well)
	RefreshTTL    time.Duration // refresh token lifetime
	ResetTokenTTL time.Duration // password reset token lifetime
	BcryptCost    int           // bcrypt cost for password hashing
	FrontendURL   string        // allowed CORS origin and base for links in mails
	BodyLimit     string        // max request body accepted by the server
	LogLevel      string        // debug | info | warn | error
	LogFormat     string        // json | text
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present;
// real environment variables always win.  Required variables are enforced by
// must() and missing values cause the program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // a missing .env file is not an error

	env := must("APP_ENV")
	return Config{
		Env:           env,
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		AccessTTL:     time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTTL:    time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		ResetTokenTTL: time.Duration(envInt("RESET_TOKEN_TTL_MIN", 60)) * time.Minute,
		BcryptCost:    envInt("BCRYPT_COST", 12),
		FrontendURL:   envStr("FRONTEND_URL", "http://localhost:5173"),
		BodyLimit:     envStr("BODY_LIMIT", "10M"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFormat:     envStr("LOG_FORMAT", defaultLogFormat(env)),
	}
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func defaultLogFormat(env string) string {
	if env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
