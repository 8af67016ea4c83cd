package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations, costs and limits.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Seed operator account, created at startup when configured. This
	// account is protected from removal through the admin surface.
	SeedOperatorUser string // SEED_OPERATOR_USERNAME (optional)
	SeedOperatorPass string // SEED_OPERATOR_PASSWORD (optional)

	// Upload store settings.
	UploadDir      string // directory for uploaded media objects
	UploadMaxBytes int64  // max accepted upload size in bytes

	// Assistant (summaries and icebreakers) settings. When the URL is
	// empty the assistant endpoints answer with static fallbacks.
	AssistantAPIURL string // ASSISTANT_API_URL (optional)
	AssistantAPIKey string // ASSISTANT_API_KEY (optional)
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// Optional variables fall back to sensible defaults.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),  // environment (dev/test/prod)
		Port:           must("APP_PORT"), // port to bind the HTTP server
		DBUser:         must("DB_USER"),  // database user
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		SeedOperatorUser: os.Getenv("SEED_OPERATOR_USERNAME"),
		SeedOperatorPass: os.Getenv("SEED_OPERATOR_PASSWORD"),

		UploadDir:      getenv("UPLOAD_DIR", "./data/uploads"),
		UploadMaxBytes: int64(atoi(getenv("UPLOAD_MAX_BYTES", "10485760"))), // 10 MiB

		AssistantAPIURL: os.Getenv("ASSISTANT_API_URL"),
		AssistantAPIKey: os.Getenv("ASSISTANT_API_KEY"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer. If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// getenv returns the env value or a default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
