// internal/workers/loan/sanction-notify/handler_test.go
package sanctionnotify

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "loans@sanctionx.example",
		SMSSenderID:  "SNCTNX",
		Timeout:      30 * time.Second,
	}
}

func createTestInput() *Input {
	return &Input{
		ApplicationID: "app-001",
		ApplicantName: "Asha Verma",
		Email:         "asha@example.com",
		Phone:         "+919876543210",
		SanctionRef:   "SX/1773482400000",
		Amount:        300000,
		TenureMonths:  24,
		AnnualRate:    11.5,
		EMI:           14053,
	}
}

func okSES(sent *[]*ses.SendEmailInput) *MockSESService {
	return &MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		*sent = append(*sent, params)
		return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
	}}
}

func okSNS(sent *[]*sns.PublishInput) *MockSNSService {
	return &MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		*sent = append(*sent, params)
		return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
	}}
}

func failingSES() *MockSESService {
	return &MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("ses throttled")
	}}
}

func failingSNS() *MockSNSService {
	return &MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("sns unavailable")
	}}
}

func TestExecute_EmailAndSMS(t *testing.T) {
	var emails []*ses.SendEmailInput
	var texts []*sns.PublishInput
	handler := NewHandler(createTestConfig(), okSES(&emails), okSNS(&texts), logger.NewTestLogger(t), nil)
	handler.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail, ChannelSMS}, output.Channels)
	assert.Equal(t, "2026-03-14T10:00:00Z", output.SentAt)
	assert.NotEmpty(t, output.NotificationID)

	require.Len(t, emails, 1)
	assert.Equal(t, []string{"asha@example.com"}, emails[0].Destination.ToAddresses)
	assert.Equal(t, "loans@sanctionx.example", aws.ToString(emails[0].Source))
	assert.Equal(t, "Your loan is sanctioned (SX/1773482400000)", aws.ToString(emails[0].Message.Subject.Data))
	body := aws.ToString(emails[0].Message.Body.Text.Data)
	assert.Contains(t, body, "Dear Asha Verma")
	assert.Contains(t, body, "INR 300000")
	assert.Contains(t, body, "11.50% p.a.")
	assert.Contains(t, body, "EMI:        INR 14053")

	require.Len(t, texts, 1)
	assert.Equal(t, "+919876543210", aws.ToString(texts[0].PhoneNumber))
	assert.Contains(t, aws.ToString(texts[0].Message), "ref SX/1773482400000")
	assert.Equal(t, "SNCTNX", aws.ToString(texts[0].MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestExecute_SkipsInvalidContacts(t *testing.T) {
	var emails []*ses.SendEmailInput
	var texts []*sns.PublishInput
	handler := NewHandler(createTestConfig(), okSES(&emails), okSNS(&texts), logger.NewTestLogger(t), nil)

	input := createTestInput()
	input.Email = "not-an-email"
	input.Phone = "9876543210"

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusDisabled, output.Status)
	assert.Empty(t, output.Channels)
	assert.Empty(t, emails)
	assert.Empty(t, texts)
}

func TestExecute_ChannelsDisabled(t *testing.T) {
	config := createTestConfig()
	config.EmailEnabled = false
	config.SMSEnabled = false
	handler := NewHandler(config, failingSES(), failingSNS(), logger.NewTestLogger(t), nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusDisabled, output.Status)
	assert.Error(t, handler.Ready())
}

func TestExecute_PartialFailureStillSent(t *testing.T) {
	var texts []*sns.PublishInput
	handler := NewHandler(createTestConfig(), failingSES(), okSNS(&texts), logger.NewTestLogger(t), nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, output.Status)
	assert.Equal(t, []string{ChannelSMS}, output.Channels)
	assert.Len(t, texts, 1)
}

func TestExecute_AllChannelsFailIsRetryable(t *testing.T) {
	handler := NewHandler(createTestConfig(), failingSES(), failingSNS(), logger.NewTestLogger(t), nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Nil(t, output)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_NilClientsDisableChannels(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, nil, logger.NewNoOpLogger(), nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusDisabled, output.Status)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	config := createTestConfig()
	config.FromEmail = ""
	assert.Error(t, config.Validate())
}
