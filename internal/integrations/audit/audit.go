// Package audit records decision outcomes for later review.
package audit

import (
	"context"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"

	"github.com/google/uuid"
)

// Indexer is satisfied by database.ElasticsearchClient.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

// ElasticsearchIndexer writes one document per decision into index.
// Failures are logged and swallowed; the audit trail never blocks a conversation.
type ElasticsearchIndexer struct {
	client  Indexer
	index   string
	timeout time.Duration
	logger  logger.Logger
}

func NewElasticsearchIndexer(client Indexer, index string, timeout time.Duration, log logger.Logger) *ElasticsearchIndexer {
	return &ElasticsearchIndexer{
		client:  client,
		index:   index,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "audit", "index": index}),
	}
}

func (a *ElasticsearchIndexer) Record(ctx context.Context, rec models.DecisionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.client.IndexDocument(ctx, a.index, rec.ID, rec); err != nil {
		stdErr := apperrors.NewElasticsearchIndexFailedError(a.index, err)
		a.logger.Warn("failed to index decision", map[string]interface{}{
			"sessionId": rec.SessionID,
			"kind":      string(rec.Kind),
			"errorCode": string(stdErr.Code),
			"error":     stdErr.Details,
		})
	}
}

// Nop discards records.
type Nop struct{}

func (Nop) Record(context.Context, models.DecisionRecord) {}
