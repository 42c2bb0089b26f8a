// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	VerificationModeMock = "mock"
	VerificationModeLive = "live"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// config.<env>.yaml is optional and overrides the base file.
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // test/e2e
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory to the first go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally supplied as plain env vars.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Server.Admin.JWTSecret, "ADMIN_JWT_SECRET")
	setIfEmpty(&cfg.APIs.ChatAssist.APIKey, "CHAT_ASSIST_API_KEY")
	setIfEmpty(&cfg.APIs.OCR.APIKey, "OCR_API_KEY")
	setIfEmpty(&cfg.Verification.APIKey, "VERIFICATION_API_KEY")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "loan-origination"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}
	if cfg.Server.Admin.Issuer == "" {
		cfg.Server.Admin.Issuer = "sanctionx-admin"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Camunda.SanctionProcessID == "" {
		cfg.Camunda.SanctionProcessID = "loan-sanction"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.DecisionIndex == "" {
		cfg.Database.Elasticsearch.DecisionIndex = "loan-decisions"
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = SessionBackendMemory
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * 60 * 60 * 1000
	}
	if cfg.Session.LockTTL == 0 {
		cfg.Session.LockTTL = 10000
	}
	if cfg.Session.LockRetry == 0 {
		cfg.Session.LockRetry = 25
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "loan:session:"
	}
	if cfg.Session.LockPrefix == "" {
		cfg.Session.LockPrefix = "loan:lock:"
	}

	if cfg.Lending.MaxVerificationAttempts == 0 {
		cfg.Lending.MaxVerificationAttempts = 5
	}
	if cfg.Lending.MultipleAttemptsThreshold == 0 {
		cfg.Lending.MultipleAttemptsThreshold = 2
	}
	if cfg.Lending.MaxDocumentAttempts == 0 {
		cfg.Lending.MaxDocumentAttempts = 3
	}
	if cfg.Lending.AffordabilityRatio == 0 {
		cfg.Lending.AffordabilityRatio = 0.4
	}
	if cfg.Lending.EffectTimeout == 0 {
		cfg.Lending.EffectTimeout = 30000
	}
	if cfg.Lending.CreditCacheTTL == 0 {
		cfg.Lending.CreditCacheTTL = 6 * 60 * 60 * 1000
	}

	if cfg.Verification.Mode == "" {
		cfg.Verification.Mode = VerificationModeMock
	}
	if cfg.Verification.Timeout == 0 {
		cfg.Verification.Timeout = 10000
	}
	if cfg.Verification.MockOTP == "" {
		cfg.Verification.MockOTP = "123456"
	}

	if cfg.APIs.ChatAssist.Timeout == 0 {
		cfg.APIs.ChatAssist.Timeout = 60000
	}
	if cfg.APIs.ChatAssist.MaxRetries == 0 {
		cfg.APIs.ChatAssist.MaxRetries = 2
	}
	if cfg.APIs.OCR.Timeout == 0 {
		cfg.APIs.OCR.Timeout = 30000
	}

	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "ap-south-1"
	}

	if cfg.Letters.Dir == "" {
		cfg.Letters.Dir = "sanction_letters"
	}
	if cfg.Letters.BankName == "" {
		cfg.Letters.BankName = "SanctionX Finance Ltd."
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis session backend")
		}
	default:
		return fmt.Errorf("session.backend must be %q or %q, got %q", SessionBackendMemory, SessionBackendRedis, cfg.Session.Backend)
	}
	if strings.HasPrefix(cfg.Session.LockPrefix, cfg.Session.KeyPrefix) || strings.HasPrefix(cfg.Session.KeyPrefix, cfg.Session.LockPrefix) {
		return fmt.Errorf("session.lock_prefix %q overlaps session.key_prefix %q", cfg.Session.LockPrefix, cfg.Session.KeyPrefix)
	}

	switch cfg.Verification.Mode {
	case VerificationModeMock:
	case VerificationModeLive:
		if cfg.Verification.PANURL == "" || cfg.Verification.EKYCURL == "" {
			return fmt.Errorf("verification.pan_url and verification.ekyc_url are required in live mode")
		}
	default:
		return fmt.Errorf("verification.mode must be %q or %q, got %q", VerificationModeMock, VerificationModeLive, cfg.Verification.Mode)
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Database.Elasticsearch.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if cfg.Lending.MultipleAttemptsThreshold > cfg.Lending.MaxVerificationAttempts {
		return fmt.Errorf("lending.multiple_attempts_threshold must not exceed lending.max_verification_attempts")
	}
	if cfg.Lending.AffordabilityRatio <= 0 || cfg.Lending.AffordabilityRatio > 1 {
		return fmt.Errorf("lending.affordability_ratio must be in (0, 1]")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
