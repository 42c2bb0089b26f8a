// cmd/loan-manager/conversation.go
package main

import (
	"fmt"
	"time"

	"loan-origination/internal/common/camunda"
	"loan-origination/internal/common/config"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/integrations/audit"
	"loan-origination/internal/integrations/chatassist"
	"loan-origination/internal/integrations/letter"
	"loan-origination/internal/integrations/ocr"
	"loan-origination/internal/integrations/verification"
	"loan-origination/internal/lending/credit"
	"loan-origination/internal/orchestrator"
	"loan-origination/internal/session"
)

// buildConversation wires the orchestrator to the configured collaborators.
func buildConversation(cfg *config.Config, b *backends, log logger.Logger) (*orchestrator.Orchestrator, *letter.Service, error) {
	store, locker, err := sessionBackend(cfg, b, log)
	if err != nil {
		return nil, nil, err
	}

	letterStore, err := letter.NewFileStore(cfg.Letters.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("letter store: %w", err)
	}
	letters := letter.NewService(letterStore, cfg.Letters.BankName, log)

	ports := orchestrator.Ports{
		Letters:   letters,
		Assistant: assistant(cfg, log),
		OCR:       documentReader(cfg, log),
		Credit:    creditBureau(cfg, b, log),
	}

	switch cfg.Verification.Mode {
	case config.VerificationModeLive:
		vcfg := &verification.Config{
			PANURL:  cfg.Verification.PANURL,
			EKYCURL: cfg.Verification.EKYCURL,
			APIKey:  cfg.Verification.APIKey,
			Timeout: config.GetDuration(cfg.Verification.Timeout),
		}
		if err := vcfg.Validate(); err != nil {
			return nil, nil, err
		}
		provider := verification.NewHTTPProvider(vcfg, log)
		ports.PAN, ports.OTP = provider, provider
	default:
		mock := verification.NewMock(cfg.Verification.MockOTP, log)
		ports.PAN, ports.OTP = mock, mock
	}

	if b.es != nil {
		ports.Auditor = audit.NewElasticsearchIndexer(b.es, cfg.Database.Elasticsearch.DecisionIndex, 5*time.Second, log)
	} else {
		ports.Auditor = audit.Nop{}
	}

	if b.camunda != nil {
		ports.Publisher = camunda.NewProcessPublisher(b.camunda, cfg.Camunda.SanctionProcessID, log)
	}

	opts := orchestrator.Options{
		MaxVerificationAttempts:   cfg.Lending.MaxVerificationAttempts,
		MultipleAttemptsThreshold: cfg.Lending.MultipleAttemptsThreshold,
		MaxDocumentAttempts:       cfg.Lending.MaxDocumentAttempts,
		CounterOffers:             cfg.Lending.CounterOffers,
		AffordabilityRatio:        cfg.Lending.AffordabilityRatio,
		EffectTimeout:             config.GetDuration(cfg.Lending.EffectTimeout),
	}

	conv, err := orchestrator.New(store, locker, ports, opts, log)
	if err != nil {
		return nil, nil, err
	}
	return conv, letters, nil
}

func sessionBackend(cfg *config.Config, b *backends, log logger.Logger) (session.Store, session.Locker, error) {
	if cfg.Session.Backend != config.SessionBackendRedis {
		return session.NewMemoryStore(), session.NewKeyedLocker(), nil
	}
	if b.redis == nil {
		return nil, nil, fmt.Errorf("redis session backend selected but redis is not connected")
	}

	store := session.NewRedisStore(b.redis.Client, cfg.Session.KeyPrefix, config.GetDuration(cfg.Session.TTL))
	locker := session.NewRedisLocker(b.redis.Client, cfg.Session.LockPrefix,
		config.GetDuration(cfg.Session.LockTTL), config.GetDuration(cfg.Session.LockRetry), log)
	return store, locker, nil
}

func assistant(cfg *config.Config, log logger.Logger) orchestrator.ChatAssistant {
	ca := cfg.APIs.ChatAssist
	if !ca.Enabled {
		return chatassist.Canned{}
	}

	acfg := &chatassist.Config{
		BaseURL:    ca.BaseURL,
		APIKey:     ca.APIKey,
		Model:      ca.Model,
		Timeout:    config.GetDuration(ca.Timeout),
		MaxRetries: ca.MaxRetries,
	}
	if err := acfg.Validate(); err != nil {
		log.Warn("chat assist misconfigured, using canned replies", map[string]interface{}{"error": err.Error()})
		return chatassist.Canned{}
	}
	return chatassist.NewClient(acfg, log)
}

func documentReader(cfg *config.Config, log logger.Logger) orchestrator.OCR {
	if !cfg.APIs.OCR.Enabled || cfg.APIs.OCR.BaseURL == "" {
		return ocr.PlainText{}
	}
	return ocr.NewHTTPClient(&ocr.Config{
		BaseURL: cfg.APIs.OCR.BaseURL,
		APIKey:  cfg.APIs.OCR.APIKey,
		Timeout: config.GetDuration(cfg.APIs.OCR.Timeout),
	}, log)
}

func creditBureau(cfg *config.Config, b *backends, log logger.Logger) orchestrator.CreditBureau {
	bureau := credit.NewSimulatedBureau()
	if b.redis == nil {
		return bureau
	}
	return credit.NewCachedBureau(bureau, b.redis, config.GetDuration(cfg.Lending.CreditCacheTTL), log)
}
