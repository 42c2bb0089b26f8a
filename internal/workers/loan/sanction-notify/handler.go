// internal/workers/loan/sanction-notify/handler.go
package sanctionnotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/common/validation"
	"loan-origination/internal/models"
	"loan-origination/internal/workers/loan/jobs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "loan.sanction-notify"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	obs       *observability.Observability
	sesClient SESService
	snsClient SNSService
	now       func() time.Time
}

// NewHandler wires the AWS clients; either may be nil when its channel is disabled.
func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		logger:    log,
		errors:    apperrors.NewErrorHandler(log),
		obs:       obs,
		sesClient: sesClient,
		snsClient: snsClient,
		now:       time.Now,
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

// Execute tells the applicant about the sanction on every enabled channel they
// have a valid contact for. The job fails only when every attempted channel failed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         models.NotificationStatusDisabled,
		Channels:       []string{},
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	var failures []error

	if h.emailEnabled() && validation.ValidateEmail(input.Email) {
		if err := h.sendEmail(ctx, input); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": input.ApplicationID,
			})
			failures = append(failures, apperrors.NewNotificationSendFailedError(ChannelEmail, err))
		} else {
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if h.smsEnabled() && validation.ValidatePhone(input.Phone) {
		if err := h.sendSMS(ctx, input); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": input.ApplicationID,
			})
			failures = append(failures, apperrors.NewNotificationSendFailedError(ChannelSMS, err))
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	if len(output.Channels) > 0 {
		output.Status = models.NotificationStatusSent
	} else if len(failures) > 0 {
		return nil, failures[0]
	}

	h.logger.Info("sanction notification processed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        output.Status,
		"channels":      strings.Join(output.Channels, ","),
		"failures":      len(failures),
	})
	return output, nil
}

func (h *Handler) emailEnabled() bool {
	return h.config.EmailEnabled && h.sesClient != nil
}

func (h *Handler) smsEnabled() bool {
	return h.config.SMSEnabled && h.snsClient != nil
}

func (h *Handler) sendEmail(ctx context.Context, input *Input) error {
	subject, err := render(subjectTemplate, input)
	if err != nil {
		return fmt.Errorf("render subject: %w", err)
	}
	body, err := render(emailTemplate, input)
	if err != nil {
		return fmt.Errorf("render body: %w", err)
	}

	_, err = h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{input.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, input *Input) error {
	message, err := render(smsTemplate, input)
	if err != nil {
		return fmt.Errorf("render sms: %w", err)
	}

	params := &sns.PublishInput{
		PhoneNumber: aws.String(input.Phone),
		Message:     aws.String(message),
	}
	if h.config.SMSSenderID != "" {
		params.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(h.config.SMSSenderID),
			},
		}
	}

	_, err = h.snsClient.Publish(ctx, params)
	return err
}

var errNoChannel = errors.New("no notification channel configured")

// Ready reports whether at least one channel can deliver.
func (h *Handler) Ready() error {
	if h.emailEnabled() || h.smsEnabled() {
		return nil
	}
	return errNoChannel
}
