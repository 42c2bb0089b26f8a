// Package jobs holds the job plumbing shared by the loan workers.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/metrics"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Decode validates the job variables against schema and unmarshals them into out.
func Decode(job entities.Job, schema *validation.Schema, out interface{}) error {
	raw := []byte(job.GetVariables())
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	result := schema.ValidateJSON(raw)
	if !result.Valid {
		return apperrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewValidationFailedError(fmt.Sprintf("decode variables: %v", err))
	}
	return nil
}

// Complete sends output as the job's result variables.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	if _, err := cmd.Send(ctx); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	log.Info("job completed successfully", map[string]interface{}{"jobKey": job.GetKey()})
	return nil
}

// Track marks a job active and returns the function that records its outcome.
func Track(obs *observability.Observability, taskType string) func(err error) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()

	return func(err error) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		status := "completed"
		if err != nil {
			status = "failed"
			metrics.WorkerJobsFailed.WithLabelValues(taskType, ErrorCode(err)).Inc()
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		obs.RecordJobProcessed(context.Background(), taskType, status)
		obs.RecordJobDuration(context.Background(), taskType, elapsed, status)
	}
}

// ErrorCode returns the StandardError code carried by err, or INTERNAL_ERROR.
func ErrorCode(err error) string {
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return string(apperrors.ErrCodeInternal)
}
