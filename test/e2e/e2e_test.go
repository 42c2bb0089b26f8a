// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"loan-origination/internal/api"
	"loan-origination/internal/common/config"
	"loan-origination/internal/common/database"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/integrations/letter"
	"loan-origination/internal/integrations/ocr"
	"loan-origination/internal/integrations/verification"
	"loan-origination/internal/lending/credit"
	"loan-origination/internal/models"
	"loan-origination/internal/orchestrator"
	"loan-origination/internal/session"
	eligibilitycheck "loan-origination/internal/workers/loan/eligibility-check"
	fraudscore "loan-origination/internal/workers/loan/fraud-score"
	offergenerate "loan-origination/internal/workers/loan/offer-generate"
	sanctionnotify "loan-origination/internal/workers/loan/sanction-notify"
	sanctionrecord "loan-origination/internal/workers/loan/sanction-record"
	"loan-origination/pkg/registry"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	registryPath  = "../../configs/activity-registry.json"
	sessionPrefix = "sanctionx:session:"
	lockPrefix    = "sanctionx:lock:"
	adminSecret   = "e2e-secret"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SanctionEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev models.SanctionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []models.SanctionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.SanctionEvent(nil), p.events...)
}

type stack struct {
	server    *httptest.Server
	redis     *miniredis.Miniredis
	publisher *recordingPublisher
	admin     *api.AdminAuth
}

// newStack runs the HTTP API over a real orchestrator with Redis-backed sessions.
func newStack(t *testing.T) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	store, err := letter.NewFileStore(t.TempDir())
	require.NoError(t, err)
	letters := letter.NewService(store, "SanctionX Bank", log)
	kyc := verification.NewMock("", log)
	publisher := &recordingPublisher{}

	opts := orchestrator.DefaultOptions()
	opts.CounterOffers = true
	orch, err := orchestrator.New(
		session.NewRedisStore(rc.Client, sessionPrefix, time.Hour),
		session.NewRedisLocker(rc.Client, lockPrefix, 5*time.Second, 10*time.Millisecond, log),
		orchestrator.Ports{
			OCR:       ocr.PlainText{},
			Letters:   letters,
			PAN:       kyc,
			OTP:       kyc,
			Credit:    credit.NewCachedBureau(credit.NewSimulatedBureau(), rc, time.Hour, log),
			Publisher: publisher,
		}, opts, log)
	require.NoError(t, err)

	admin := api.NewAdminAuth(adminSecret, "loan-origination")
	srv := httptest.NewServer(api.NewServer(api.Deps{
		Conversation: orch,
		Letters:      letters,
		Admin:        admin,
		Readiness: map[string]api.ReadinessCheck{
			"redis": rc.Ping,
		},
		Logger: log,
	}).Routes())
	t.Cleanup(srv.Close)

	return &stack{server: srv, redis: mr, publisher: publisher, admin: admin}
}

func (s *stack) chat(t *testing.T, sessionID, message string) orchestrator.Reply {
	t.Helper()
	body, err := json.Marshal(map[string]string{"sessionId": sessionID, "message": message})
	require.NoError(t, err)

	resp, err := http.Post(s.server.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var reply orchestrator.Reply
	require.NoError(t, json.Unmarshal(raw, &reply))
	return reply
}

func (s *stack) upload(t *testing.T, sessionID, filename, content string) orchestrator.Reply {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("sessionId", sessionID))
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(s.server.URL+"/upload-doc", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var reply orchestrator.Reply
	require.NoError(t, json.Unmarshal(raw, &reply))
	return reply
}

func (s *stack) get(t *testing.T, path string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, string(raw)
}

// sanction drives one applicant from greeting to an accepted offer.
func (s *stack) sanction(t *testing.T, sessionID string) orchestrator.Reply {
	t.Helper()
	for _, msg := range []string{"hi", "Asha Rao", "29", "female", "Personal loan of 3 lakh", "salaried", "50000", "ABCDE1234F"} {
		s.chat(t, sessionID, msg)
	}
	s.upload(t, sessionID, "payslip.txt", "Net Pay: 50000")
	s.chat(t, sessionID, "123456789012")

	offers := s.chat(t, sessionID, "123456")
	require.Equal(t, models.StateChoose, offers.State, offers.Message)

	done := s.chat(t, sessionID, "1")
	require.Equal(t, models.StateEnd, done.State, done.Message)
	require.NotEmpty(t, done.SanctionRef)
	return done
}

func toVariables(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestLoanJourney_EndToEnd(t *testing.T) {
	s := newStack(t)
	const sessionID = "e2e-001"

	status, _, body := s.get(t, "/ready")
	require.Equal(t, http.StatusOK, status, body)

	done := s.sanction(t, sessionID)

	assert.True(t, s.redis.Exists(sessionPrefix+sessionID), "session should live in redis")
	assert.False(t, s.redis.Exists(lockPrefix+sessionID), "lock should be released after each turn")

	status, header, body := s.get(t, "/download-sanction?sessionId="+sessionID)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, `attachment; filename="sanction_letter_`+sessionID+`.txt"`, header.Get("Content-Disposition"))
	assert.Contains(t, body, done.SanctionRef)
	assert.Contains(t, body, "Asha Rao")

	status, _, body = s.get(t, "/sessions/"+sessionID)
	require.Equal(t, http.StatusOK, status, body)
	assert.NotContains(t, body, "123456789012", "aadhaar must be masked")
	assert.NotContains(t, body, "ABCDE1234F", "pan must be masked")

	var events []models.SanctionEvent
	require.Eventually(t, func() bool {
		events = s.publisher.published()
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)
	event := events[0]
	assert.Equal(t, sessionID, event.SessionID)
	assert.Equal(t, done.SanctionRef, event.SanctionRef)
	assert.Equal(t, "ABCDE1234F", event.PAN)

	reg, err := registry.LoadRegistry(registryPath)
	require.NoError(t, err)

	// sanction-record
	recordActivity, ok := reg.ByTaskType(sanctionrecord.TaskType)
	require.True(t, ok)
	result := recordActivity.ValidateInput(toVariables(t, event))
	require.True(t, result.Valid, "%+v", result.Errors)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO loan_applications").
		WithArgs(sqlmock.AnyArg(), sessionID, event.ApplicantName, event.PAN, event.LoanType,
			event.Amount, event.TenureMonths, event.AnnualRate, event.EMI, sqlmock.AnyArg(),
			event.SanctionRef, models.ApplicationStatusSanctioned, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	recorder := sanctionrecord.NewHandler(sanctionrecord.DefaultConfig(), db, nil, logger.NewTestLogger(t), nil)
	record, err := recorder.Execute(context.Background(), &sanctionrecord.Input{SanctionEvent: event})
	require.NoError(t, err)
	require.NotEmpty(t, record.ApplicationID)
	assert.Equal(t, models.ApplicationStatusSanctioned, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())

	// sanction-notify, with the contact details the back office adds to the process
	notifyInput := &sanctionnotify.Input{
		ApplicationID: record.ApplicationID,
		ApplicantName: event.ApplicantName,
		Email:         "asha.rao@example.com",
		Phone:         "+919876543210",
		SanctionRef:   event.SanctionRef,
		Amount:        event.Amount,
		TenureMonths:  event.TenureMonths,
		AnnualRate:    event.AnnualRate,
		EMI:           event.EMI,
	}
	notifyActivity, ok := reg.ByTaskType(sanctionnotify.TaskType)
	require.True(t, ok)
	result = notifyActivity.ValidateInput(toVariables(t, notifyInput))
	require.True(t, result.Valid, "%+v", result.Errors)

	var emails []*ses.SendEmailInput
	var texts []*sns.PublishInput
	notifier := sanctionnotify.NewHandler(&sanctionnotify.Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "loans@sanctionx.example",
		SMSSenderID:  "SNCTNX",
		Timeout:      5 * time.Second,
	}, &sesStub{sent: &emails}, &snsStub{sent: &texts}, logger.NewTestLogger(t), nil)

	notified, err := notifier.Execute(context.Background(), notifyInput)
	require.NoError(t, err)
	assert.Equal(t, "sent", notified.Status)
	assert.ElementsMatch(t, []string{sanctionnotify.ChannelEmail, sanctionnotify.ChannelSMS}, notified.Channels)
	require.Len(t, emails, 1)
	require.Len(t, texts, 1)
	assert.Contains(t, *texts[0].Message, event.SanctionRef)
}

func TestReset_RestartsJourney(t *testing.T) {
	s := newStack(t)
	s.chat(t, "e2e-002", "hi")
	s.chat(t, "e2e-002", "Ravi Kumar")

	token, err := s.admin.Issue("ops", time.Minute)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/reset", bytes.NewReader([]byte(`{"sessionId":"e2e-002"}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, s.redis.Exists(sessionPrefix+"e2e-002"))

	reply := s.chat(t, "e2e-002", "hi")
	assert.Equal(t, models.StateName, reply.State)
}

func TestWorkerTaskTypesAreRegistered(t *testing.T) {
	reg, err := registry.LoadRegistry(registryPath)
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{
		fraudscore.TaskType,
		eligibilitycheck.TaskType,
		offergenerate.TaskType,
		sanctionrecord.TaskType,
		sanctionnotify.TaskType,
	} {
		activity, ok := reg.ByTaskType(taskType)
		if assert.True(t, ok, taskType) {
			assert.NotEmpty(t, activity.InputSchema, taskType)
		}
	}
}

type sesStub struct {
	sent *[]*ses.SendEmailInput
}

func (s *sesStub) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	*s.sent = append(*s.sent, params)
	return &ses.SendEmailOutput{}, nil
}

type snsStub struct {
	sent *[]*sns.PublishInput
}

func (s *snsStub) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	*s.sent = append(*s.sent, params)
	return &sns.PublishOutput{}, nil
}
