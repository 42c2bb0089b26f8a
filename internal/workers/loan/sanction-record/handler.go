// internal/workers/loan/sanction-record/handler.go
package sanctionrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/models"
	"loan-origination/internal/workers/loan/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskType = "loan.sanction-record"
)

const uniqueViolation = "23505"

// Indexer mirrors sanctioned applications into a search index.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

type Handler struct {
	config  *Config
	db      *sql.DB
	indexer Indexer
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
	obs     *observability.Observability
	now     func() time.Time
}

// NewHandler builds the handler; indexer may be nil.
func NewHandler(config *Config, db *sql.DB, indexer Indexer, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		db:      db,
		indexer: indexer,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
		obs:     obs,
		now:     time.Now,
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

// Execute stores the sanctioned application. One application exists per session.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM loan_applications
			WHERE session_id = $1
		)`, input.SessionID).Scan(&exists)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("duplicate check: %w", err))
	}
	if exists {
		return nil, apperrors.NewDuplicateApplicationError(input.SessionID)
	}

	appID := uuid.New().String()
	createdAt := h.now().UTC()

	var creditScore interface{}
	if input.CreditScore > 0 {
		creditScore = input.CreditScore
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO loan_applications (
			id, session_id, applicant_name, pan, loan_type, amount,
			tenure_months, annual_rate, emi, credit_score, sanction_ref,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		appID,
		input.SessionID,
		input.ApplicantName,
		input.PAN,
		input.LoanType,
		input.Amount,
		input.TenureMonths,
		input.AnnualRate,
		input.EMI,
		creditScore,
		input.SanctionRef,
		models.ApplicationStatusSanctioned,
		createdAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, apperrors.NewDuplicateApplicationError(input.SessionID)
		}
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	application := models.LoanApplication{
		ID:            appID,
		SessionID:     input.SessionID,
		ApplicantName: input.ApplicantName,
		PAN:           input.PAN,
		LoanType:      input.LoanType,
		Amount:        input.Amount,
		TenureMonths:  input.TenureMonths,
		AnnualRate:    input.AnnualRate,
		EMI:           input.EMI,
		SanctionRef:   input.SanctionRef,
		Status:        models.ApplicationStatusSanctioned,
		CreatedAt:     createdAt.Format(time.RFC3339),
	}

	h.audit(ctx, application)
	h.index(ctx, application)

	h.logger.Info("sanctioned application recorded", map[string]interface{}{
		"applicationId": appID,
		"sessionId":     input.SessionID,
		"sanctionRef":   input.SanctionRef,
	})

	return &Output{
		ApplicationID: appID,
		Status:        application.Status,
		CreatedAt:     application.CreatedAt,
	}, nil
}

// audit is best effort; the application row is already committed.
func (h *Handler) audit(ctx context.Context, application models.LoanApplication) {
	payload, err := json.Marshal(map[string]interface{}{
		"sessionId":   application.SessionID,
		"sanctionRef": application.SanctionRef,
		"amount":      application.Amount,
		"tenure":      application.TenureMonths,
	})
	if err != nil {
		payload = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (entity_type, entity_id, action, payload)
		VALUES ($1, $2, $3, $4)`,
		"loan_application",
		application.ID,
		"sanctioned",
		payload,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err.Error(),
			"applicationId": application.ID,
		})
	}
}

func (h *Handler) index(ctx context.Context, application models.LoanApplication) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.IndexDocument(ctx, h.config.SearchIndex, application.ID, application); err != nil {
		h.logger.Warn("search index update failed", map[string]interface{}{
			"error":         err.Error(),
			"applicationId": application.ID,
		})
	}
}
