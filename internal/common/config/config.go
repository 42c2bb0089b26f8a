// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Session      SessionConfig           `mapstructure:"session"`
	Lending      LendingConfig           `mapstructure:"lending"`
	Verification VerificationConfig      `mapstructure:"verification"`
	APIs         APIsConfig              `mapstructure:"apis"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Letters      LettersConfig           `mapstructure:"letters"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the chat API listener settings.
type ServerConfig struct {
	Address        string      `mapstructure:"address"`
	ReadTimeout    int         `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int         `mapstructure:"write_timeout"` // milliseconds
	MaxUploadBytes int64       `mapstructure:"max_upload_bytes"`
	Admin          AdminConfig `mapstructure:"admin"`
}

// AdminConfig signs and verifies the bearer tokens accepted by the reset endpoint.
type AdminConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type CamundaConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BrokerAddress     string `mapstructure:"broker_address"`
	MaxJobsActive     int    `mapstructure:"max_jobs_active"`
	Timeout           int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout    int    `mapstructure:"request_timeout"` // milliseconds
	SanctionProcessID string `mapstructure:"sanction_process_id"`
	// DeployResources are BPMN files deployed once the client connects.
	DeployResources []string `mapstructure:"deploy_resources"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	DecisionIndex string   `mapstructure:"decision_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig selects the conversation store and its locking.
type SessionConfig struct {
	Backend    string `mapstructure:"backend"` // memory | redis
	TTL        int    `mapstructure:"ttl"`     // milliseconds
	LockTTL    int    `mapstructure:"lock_ttl"`
	LockRetry  int    `mapstructure:"lock_retry"` // milliseconds between lock polls
	KeyPrefix  string `mapstructure:"key_prefix"`
	// LockPrefix must not overlap KeyPrefix so session resets never touch live locks.
	LockPrefix string `mapstructure:"lock_prefix"`
}

// LendingConfig tunes the conversation limits and offer policy.
type LendingConfig struct {
	MaxVerificationAttempts   int     `mapstructure:"max_verification_attempts"`
	MultipleAttemptsThreshold int     `mapstructure:"multiple_attempts_threshold"`
	MaxDocumentAttempts       int     `mapstructure:"max_document_attempts"`
	CounterOffers             bool    `mapstructure:"counter_offers"`
	AffordabilityRatio        float64 `mapstructure:"affordability_ratio"`
	EffectTimeout             int     `mapstructure:"effect_timeout"`   // milliseconds
	CreditCacheTTL            int     `mapstructure:"credit_cache_ttl"` // milliseconds
}

// VerificationConfig selects the PAN and Aadhaar providers.
type VerificationConfig struct {
	Mode    string `mapstructure:"mode"` // mock | live
	PANURL  string `mapstructure:"pan_url"`
	EKYCURL string `mapstructure:"ekyc_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
	MockOTP string `mapstructure:"mock_otp"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	ChatAssist struct {
		Enabled    bool   `mapstructure:"enabled"`
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		Model      string `mapstructure:"model"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"chat_assist"`

	OCR struct {
		Enabled bool   `mapstructure:"enabled"`
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"ocr"`
}

// IntegrationConfig holds settings for the notification channels.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LettersConfig controls where sanction letters are written.
type LettersConfig struct {
	Dir      string `mapstructure:"dir"`
	BankName string `mapstructure:"bank_name"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
