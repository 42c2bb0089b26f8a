package camunda

import (
	"context"
	"fmt"

	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"
)

// instanceCreator starts one instance of processID and returns its key.
type instanceCreator func(ctx context.Context, processID string, variables interface{}) (int64, error)

// ProcessPublisher starts the post-sanction BPMN process for every sanctioned loan.
type ProcessPublisher struct {
	processID string
	create    instanceCreator
	logger    logger.Logger
}

// NewProcessPublisher creates instances of the latest deployed version of processID.
func NewProcessPublisher(client *Client, processID string, log logger.Logger) *ProcessPublisher {
	create := func(ctx context.Context, processID string, variables interface{}) (int64, error) {
		return Retry(ctx, client, "create-instance:"+processID, func(ctx context.Context) (int64, error) {
			cmd, err := client.GetClient().NewCreateInstanceCommand().
				BPMNProcessId(processID).
				LatestVersion().
				VariablesFromObject(variables)
			if err != nil {
				return 0, fmt.Errorf("encode variables: %w", err)
			}
			resp, err := cmd.Send(ctx)
			if err != nil {
				return 0, err
			}
			return resp.GetProcessInstanceKey(), nil
		})
	}
	return newProcessPublisher(processID, create, log)
}

func newProcessPublisher(processID string, create instanceCreator, log logger.Logger) *ProcessPublisher {
	return &ProcessPublisher{
		processID: processID,
		create:    create,
		logger:    log.WithFields(map[string]interface{}{"processId": processID}),
	}
}

// Publish starts the process with the sanction event as its variables.
func (p *ProcessPublisher) Publish(ctx context.Context, event models.SanctionEvent) error {
	key, err := p.create(ctx, p.processID, event)
	if err != nil {
		p.logger.Error("failed to start sanction process", map[string]interface{}{
			"sessionId": event.SessionID,
			"error":     err.Error(),
		})
		return err
	}

	p.logger.Info("sanction process started", map[string]interface{}{
		"sessionId":          event.SessionID,
		"sanctionRef":        event.SanctionRef,
		"processInstanceKey": key,
	})
	return nil
}
