package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: sanctionx
workers:
  fraud-score:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sanctionx", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, "loan:session:", cfg.Session.KeyPrefix)
	assert.Equal(t, "loan:lock:", cfg.Session.LockPrefix)
	assert.Equal(t, VerificationModeMock, cfg.Verification.Mode)
	assert.Equal(t, "123456", cfg.Verification.MockOTP)
	assert.Equal(t, 5, cfg.Lending.MaxVerificationAttempts)
	assert.Equal(t, 2, cfg.Lending.MultipleAttemptsThreshold)
	assert.Equal(t, 3, cfg.Lending.MaxDocumentAttempts)
	assert.InDelta(t, 0.4, cfg.Lending.AffordabilityRatio, 1e-9)
	assert.False(t, cfg.Lending.CounterOffers)
	assert.Equal(t, "loan-decisions", cfg.Database.Elasticsearch.DecisionIndex)
	assert.Equal(t, "loan-sanction", cfg.Camunda.SanctionProcessID)

	worker := cfg.Workers["fraud-score"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("LOAN_TEST_REDIS_ADDR", "redis.internal:6379")
	path := writeConfig(t, `
session:
  backend: redis
database:
  redis:
    address: ${LOAN_TEST_REDIS_ADDR}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", cfg.Database.Redis.Address)
}

func TestLoadFromFile_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")
	path := writeConfig(t, "app:\n  name: sanctionx\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Server.Admin.JWTSecret)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errPart string
	}{
		{
			name:    "redis backend without address",
			body:    "session:\n  backend: redis\n",
			errPart: "database.redis.address",
		},
		{
			name:    "unknown session backend",
			body:    "session:\n  backend: etcd\n",
			errPart: "session.backend",
		},
		{
			name:    "lock keys inside the session keyspace",
			body:    "session:\n  key_prefix: \"loan:\"\n  lock_prefix: \"loan:lock:\"\n",
			errPart: "session.lock_prefix",
		},
		{
			name:    "live verification without urls",
			body:    "verification:\n  mode: live\n",
			errPart: "verification.pan_url",
		},
		{
			name:    "camunda enabled without broker",
			body:    "camunda:\n  enabled: true\n",
			errPart: "camunda.broker_address",
		},
		{
			name:    "threshold above max attempts",
			body:    "lending:\n  max_verification_attempts: 2\n  multiple_attempts_threshold: 3\n",
			errPart: "multiple_attempts_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"sanction-notify": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "sanction-notify"))
	assert.True(t, IsWorkerEnabled(cfg, "offer-generate"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "sanction-notify").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "offer-generate").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.False(t, cfg.Lending.CounterOffers)
	assert.Equal(t, "loan:session:", cfg.Session.KeyPrefix)
	assert.Equal(t, "loan:lock:", cfg.Session.LockPrefix)
	assert.Equal(t, "loan-sanction", cfg.Camunda.SanctionProcessID)
	for _, key := range []string{"fraud-score", "eligibility-check", "offer-generate", "sanction-record", "sanction-notify"} {
		worker, ok := cfg.Workers[key]
		require.True(t, ok, key)
		assert.True(t, worker.Enabled, key)
	}
	assert.Equal(t, 10000, cfg.Workers["fraud-score"].Timeout)
}
