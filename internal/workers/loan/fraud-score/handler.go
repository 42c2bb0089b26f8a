// internal/workers/loan/fraud-score/handler.go
package fraudscore

import (
	"context"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/lending/fraud"
	"loan-origination/internal/workers/loan/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "loan.fraud-score"
)

type Handler struct {
	config *Config
	engine *fraud.Engine
	logger logger.Logger
	errors *apperrors.ErrorHandler
	obs    *observability.Observability
}

func NewHandler(config *Config, log logger.Logger, obs *observability.Observability) *Handler {
	rules := fraud.DefaultRules()
	rules.Threshold = config.Threshold

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: fraud.NewEngine(rules),
		logger: log,
		errors: apperrors.NewErrorHandler(log),
		obs:    obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := jobs.Track(h.obs, TaskType)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := jobs.Decode(job, inputSchema, &input); err != nil {
		done(err)
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		done(err)
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	done(jobs.Complete(ctx, client, job, output, h.logger))
}

// Execute scores the applicant against the fraud rules.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	assessment := h.engine.Assess(input.Profile, input.Flags)

	h.logger.Info("fraud assessment completed", map[string]interface{}{
		"sessionId": input.SessionID,
		"riskScore": assessment.RiskScore,
		"isFraud":   assessment.IsFraud,
	})

	return &Output{
		RiskScore: assessment.RiskScore,
		Reasons:   assessment.Reasons,
		IsFraud:   assessment.IsFraud,
	}, nil
}
