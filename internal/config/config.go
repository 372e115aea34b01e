package config

import (
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-portal-sync/internal/common/errs"

	"github.com/joho/godotenv"
)

const (
	CheckpointBackendFile  = "file"
	CheckpointBackendMongo = "mongo"

	LedgerBackendPostgres = "postgres"
	LedgerBackendMongo    = "mongo"
	LedgerBackendLog      = "log"
)

type Config struct {
	Environment string
	LogLevel    string
	LogFile     string // optional process-wide log file

	SourceBaseURL      string
	SourceAuthURL      string
	SourceClientID     string
	SourceClientSecret string
	SourcePageSize     int

	DestinationBaseURL string
	DestinationAPIKey  string

	HTTPTimeout time.Duration

	CheckpointBackend string
	CheckpointFile    string
	MongoURI          string
	DBName            string

	LedgerBackend     string
	LedgerDatabaseURL string

	FieldMappingsPath string // empty means the embedded defaults

	Port             string
	JWTSecret        string
	SkipAuth         bool
	CORSAllowOrigins string

	// SyncSchedules maps task name to a standard cron expression.
	SyncSchedules map[string]string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		SourceBaseURL:      getEnv("SOURCE_BASE_URL", ""),
		SourceAuthURL:      getEnv("SOURCE_AUTH_URL", ""),
		SourceClientID:     getEnv("SOURCE_CLIENT_ID", ""),
		SourceClientSecret: getEnv("SOURCE_CLIENT_SECRET", ""),
		DestinationBaseURL: getEnv("DESTINATION_BASE_URL", ""),
		DestinationAPIKey:  getEnv("DESTINATION_API_KEY", ""),
		CheckpointBackend:  getEnv("CHECKPOINT_BACKEND", CheckpointBackendFile),
		CheckpointFile:     getEnv("CHECKPOINT_FILE", "./data/sync_records.json"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:             getEnv("DB_NAME", "portal-sync"),
		LedgerBackend:      getEnv("LEDGER_BACKEND", LedgerBackendLog),
		LedgerDatabaseURL:  getEnv("LEDGER_DATABASE_URL", ""),
		FieldMappingsPath:  getEnv("FIELD_MAPPINGS_PATH", ""),
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		SkipAuth:           getEnv("SKIP_AUTH", "false") == "true",
		CORSAllowOrigins:   getEnv("CORS_ALLOW_ORIGINS", "*"),
	}

	var err error
	if cfg.SourcePageSize, err = getEnvInt("SOURCE_PAGE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SyncSchedules, err = parseSchedules(getEnv("SYNC_SCHEDULES", "")); err != nil {
		return nil, err
	}

	if err := cfg.validateBackends(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ValidateSource fails when the source client cannot be built.
func (c *Config) ValidateSource() error {
	return requireAll("config.source", map[string]string{
		"SOURCE_BASE_URL":      c.SourceBaseURL,
		"SOURCE_AUTH_URL":      c.SourceAuthURL,
		"SOURCE_CLIENT_ID":     c.SourceClientID,
		"SOURCE_CLIENT_SECRET": c.SourceClientSecret,
	})
}

// ValidateDestination fails when the destination client cannot be built.
func (c *Config) ValidateDestination() error {
	return requireAll("config.destination", map[string]string{
		"DESTINATION_BASE_URL": c.DestinationBaseURL,
		"DESTINATION_API_KEY":  c.DestinationAPIKey,
	})
}

// ValidateServer fails when the admin API would run without authentication.
func (c *Config) ValidateServer() error {
	if c.SkipAuth {
		return nil
	}
	return requireAll("config.server", map[string]string{"JWT_SECRET": c.JWTSecret})
}

func (c *Config) validateBackends() error {
	switch c.CheckpointBackend {
	case CheckpointBackendFile, CheckpointBackendMongo:
	default:
		return errs.Errorf(errs.KindConfiguration, "config.load", "unknown CHECKPOINT_BACKEND %q", c.CheckpointBackend)
	}

	switch c.LedgerBackend {
	case LedgerBackendLog, LedgerBackendMongo:
	case LedgerBackendPostgres:
		if c.LedgerDatabaseURL == "" {
			return errs.Errorf(errs.KindConfiguration, "config.load", "LEDGER_DATABASE_URL is required for the postgres ledger")
		}
	default:
		return errs.Errorf(errs.KindConfiguration, "config.load", "unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}
	return nil
}

func requireAll(op string, values map[string]string) error {
	var missing []string
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errs.Errorf(errs.KindConfiguration, op, "missing required settings: %s", strings.Join(missing, ", "))
}

// parseSchedules reads "members=*/15 * * * *;organizations=@hourly".
func parseSchedules(raw string) (map[string]string, error) {
	schedules := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, spec, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(spec) == "" {
			return nil, errs.Errorf(errs.KindConfiguration, "config.load", "invalid SYNC_SCHEDULES entry %q", part)
		}
		schedules[strings.TrimSpace(name)] = strings.TrimSpace(spec)
	}
	return schedules, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errs.Errorf(errs.KindConfiguration, "config.load", "%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errs.E(errs.KindConfiguration, "config.load", err)
	}
	return d, nil
}
