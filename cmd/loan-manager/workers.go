// cmd/loan-manager/workers.go
package main

import (
	"context"
	"fmt"
	"time"

	"loan-origination/internal/common/aws"
	"loan-origination/internal/common/camunda"
	"loan-origination/internal/common/config"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/common/validation"

	ec "loan-origination/internal/workers/loan/eligibility-check"
	fs "loan-origination/internal/workers/loan/fraud-score"
	og "loan-origination/internal/workers/loan/offer-generate"
	sn "loan-origination/internal/workers/loan/sanction-notify"
	sr "loan-origination/internal/workers/loan/sanction-record"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Worker configuration is keyed by the action part of the task type;
// viper would split a dotted key into nested maps.
const (
	fraudScoreKey       = "fraud-score"
	eligibilityCheckKey = "eligibility-check"
	offerGenerateKey    = "offer-generate"
	sanctionRecordKey   = "sanction-record"
	sanctionNotifyKey   = "sanction-notify"
)

func startWorkers(ctx context.Context, cfg *config.Config, b *backends, obs *observability.Observability, log logger.Logger) (*camunda.WorkerSet, error) {
	set := camunda.NewWorkerSet(b.camunda.GetClient(), log)

	start := func(key, taskType string, handler worker.JobHandler) error {
		if err := validation.ValidateActivityNaming(taskType); err != nil {
			return err
		}
		set.Start(taskType, config.GetWorkerConfig(cfg, key), handler)
		return nil
	}

	// --- Decision workers ---
	fraudCfg := fs.DefaultConfig()
	fraudCfg.Timeout = timeoutFor(cfg, fraudScoreKey)
	if err := start(fraudScoreKey, fs.TaskType, fs.NewHandler(fraudCfg, log, obs).Handle); err != nil {
		return nil, err
	}

	eligibilityCfg := ec.DefaultConfig()
	eligibilityCfg.Timeout = timeoutFor(cfg, eligibilityCheckKey)
	if err := start(eligibilityCheckKey, ec.TaskType, ec.NewHandler(eligibilityCfg, log, obs).Handle); err != nil {
		return nil, err
	}

	offerCfg := og.DefaultConfig()
	offerCfg.Timeout = timeoutFor(cfg, offerGenerateKey)
	offerCfg.AffordabilityRatio = cfg.Lending.AffordabilityRatio
	offerCfg.CounterOffers = cfg.Lending.CounterOffers
	if err := offerCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", og.TaskType, err)
	}
	if err := start(offerGenerateKey, og.TaskType, og.NewHandler(offerCfg, log, obs).Handle); err != nil {
		return nil, err
	}

	// --- Back office workers ---
	if b.pg != nil {
		recordCfg := sr.DefaultConfig()
		recordCfg.Timeout = timeoutFor(cfg, sanctionRecordKey)

		var indexer sr.Indexer
		if b.es != nil {
			indexer = b.es
		}
		handler := sr.NewHandler(recordCfg, b.pg.DB, indexer, log, obs)
		if err := start(sanctionRecordKey, sr.TaskType, handler.Handle); err != nil {
			return nil, err
		}
	} else {
		log.Warn("postgres disabled, sanction records will not be stored", map[string]interface{}{"taskType": sr.TaskType})
	}

	notifyHandler, err := newNotifyHandler(ctx, cfg, obs, log)
	if err != nil {
		return nil, err
	}
	if err := notifyHandler.Ready(); err != nil {
		log.Warn("sanction notifications have no delivery channel", map[string]interface{}{"error": err.Error()})
	}
	if err := start(sanctionNotifyKey, sn.TaskType, notifyHandler.Handle); err != nil {
		return nil, err
	}

	return set, nil
}

func newNotifyHandler(ctx context.Context, cfg *config.Config, obs *observability.Observability, log logger.Logger) (*sn.Handler, error) {
	awsCfg := cfg.Integrations.AWS

	notifyCfg := sn.DefaultConfig()
	notifyCfg.Timeout = timeoutFor(cfg, sanctionNotifyKey)
	notifyCfg.EmailEnabled = awsCfg.SES.Enabled
	notifyCfg.FromEmail = awsCfg.SES.FromEmail
	notifyCfg.SMSEnabled = awsCfg.SNS.Enabled
	if awsCfg.SNS.DefaultSMSSenderID != "" {
		notifyCfg.SMSSenderID = awsCfg.SNS.DefaultSMSSenderID
	}
	if err := notifyCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", sn.TaskType, err)
	}

	var sesClient sn.SESService
	if awsCfg.SES.Enabled {
		client, err := aws.NewSESClient(ctx, awsCfg.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		sesClient = client
	}

	var snsClient sn.SNSService
	if awsCfg.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, awsCfg.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		snsClient = client
	}

	return sn.NewHandler(notifyCfg, sesClient, snsClient, log, obs), nil
}

func timeoutFor(cfg *config.Config, key string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, key).Timeout)
}
