// internal/workers/loan/eligibility-check/handler.go
package eligibilitycheck

import (
	"context"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/lending/eligibility"
	"loan-origination/internal/workers/loan/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "loan.eligibility-check"
)

type Handler struct {
	config *Config
	engine *eligibility.Engine
	logger logger.Logger
	errors *apperrors.ErrorHandler
	obs    *observability.Observability
}

func NewHandler(config *Config, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: eligibility.NewEngine(),
		logger: log,
		errors: apperrors.NewErrorHandler(log),
		obs:    obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := jobs.Track(h.obs, TaskType)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

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

// Execute applies every eligibility rule. With RejectAsError set, an
// ineligible applicant surfaces as a RULE_FAILURE error carrying all reasons.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result := h.engine.Evaluate(input.Profile, input.Flags)

	h.logger.Info("eligibility evaluated", map[string]interface{}{
		"sessionId": input.SessionID,
		"eligible":  result.Eligible,
		"reasons":   len(result.Reasons),
	})

	if !result.Eligible && h.config.RejectAsError {
		return nil, apperrors.NewRuleFailureError(result.Reasons)
	}

	return &Output{Eligible: result.Eligible, Reasons: result.Reasons}, nil
}
