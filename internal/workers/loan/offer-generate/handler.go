// internal/workers/loan/offer-generate/handler.go
package offergenerate

import (
	"context"
	"errors"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/lending/offers"
	"loan-origination/internal/models"
	"loan-origination/internal/workers/loan/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "loan.offer-generate"
)

type Handler struct {
	config    *Config
	generator *offers.Generator
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	obs       *observability.Observability
}

func NewHandler(config *Config, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		generator: offers.NewGenerator(config.AffordabilityRatio),
		logger:    log,
		errors:    apperrors.NewErrorHandler(log),
		obs:       obs,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	profile := models.Profile{DeclaredIncome: input.DeclaredIncome, Gender: input.Gender}

	list, err := h.generator.Generate(profile)
	if err != nil {
		return nil, h.mapError(err)
	}

	output := &Output{Offers: list}
	if len(list) == 0 && h.config.CounterOffers {
		if list, err = h.generator.CounterOffers(profile); err != nil {
			return nil, h.mapError(err)
		}
		output.Offers = list
		output.CounterOffered = len(list) > 0
	}
	output.NoAffordableOffer = len(output.Offers) == 0

	h.logger.Info("offers generated", map[string]interface{}{
		"sessionId":      input.SessionID,
		"offers":         len(output.Offers),
		"counterOffered": output.CounterOffered,
	})
	return output, nil
}

func (h *Handler) mapError(err error) error {
	if errors.Is(err, offers.ErrMissingIncome) {
		return apperrors.NewValidationFailedError("declaredIncome is required")
	}
	return apperrors.NewOfferGenerationFailedError(err)
}
