package jobs

import (
	"errors"
	"testing"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/metrics"
	"loan-origination/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["sessionId"],
  "properties": {"sessionId": {"type": "string", "minLength": 1}}
}`)

func jobWith(vars string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Variables: vars}}
}

func TestDecode(t *testing.T) {
	var out struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, Decode(jobWith(`{"sessionId":"s-1","extra":1}`), testSchema, &out))
	assert.Equal(t, "s-1", out.SessionID)
}

func TestDecode_Invalid(t *testing.T) {
	for name, vars := range map[string]string{
		"missing field": `{}`,
		"wrong type":    `{"sessionId":7}`,
		"empty":         ``,
		"not json":      `{`,
	} {
		t.Run(name, func(t *testing.T) {
			var out map[string]interface{}
			err := Decode(jobWith(vars), testSchema, &out)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
		})
	}
}

func TestTrack_RecordsOutcome(t *testing.T) {
	const taskType = "loan.track-test"

	done := Track(nil, taskType)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	done(nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))

	Track(nil, taskType)(apperrors.NewDatabaseInsertFailedError(errors.New("down")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "DATABASE_INSERT_FAILED")))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(errors.New("plain")))
	assert.Equal(t, "VALIDATION_FAILED", ErrorCode(apperrors.NewValidationFailedError("x")))
}
