package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/integrations/letter"
	"loan-origination/internal/integrations/ocr"
	"loan-origination/internal/integrations/verification"
	"loan-origination/internal/lending/credit"
	"loan-origination/internal/models"
	"loan-origination/internal/orchestrator"
	"loan-origination/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testSecret = "test-secret"

type APISuite struct {
	suite.Suite
	handler http.Handler
	admin   *AdminAuth
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	log := logger.NewTestLogger(s.T())
	store, err := letter.NewFileStore(s.T().TempDir())
	s.Require().NoError(err)
	letters := letter.NewService(store, "SanctionX Bank", log)
	mockKYC := verification.NewMock("", log)

	opts := orchestrator.DefaultOptions()
	opts.CounterOffers = true
	orch, err := orchestrator.New(session.NewMemoryStore(), session.NewKeyedLocker(), orchestrator.Ports{
		OCR:     ocr.PlainText{},
		Letters: letters,
		PAN:     mockKYC,
		OTP:     mockKYC,
		Credit:  credit.NewSimulatedBureau(),
	}, opts, log)
	s.Require().NoError(err)

	s.admin = NewAdminAuth(testSecret, "loan-origination")
	s.handler = NewServer(Deps{
		Conversation: orch,
		Letters:      letters,
		Admin:        s.admin,
		Readiness: map[string]ReadinessCheck{
			"session_store": func(context.Context) error { return nil },
		},
		Logger: log,
	}).Routes()
}

func (s *APISuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *APISuite) chat(sessionID, message string) orchestrator.Reply {
	body, _ := json.Marshal(chatRequest{SessionID: sessionID, Message: message})
	w := s.do(httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body)))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var reply orchestrator.Reply
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &reply))
	return reply
}

func (s *APISuite) upload(sessionID, filename, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if sessionID != "" {
		s.Require().NoError(mw.WriteField("sessionId", sessionID))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		s.Require().NoError(err)
		_, err = part.Write([]byte(content))
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-doc", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func (s *APISuite) errorCode(w *httptest.ResponseRecorder) apperrors.ErrorCode {
	var body struct {
		Error apperrors.StandardError `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error.Code
}

func (s *APISuite) driveToDocument(id string) {
	for _, msg := range []string{"hi", "Asha Rao", "29", "female", "Personal loan of 3 lakh", "salaried", "50000", "ABCDE1234F"} {
		s.chat(id, msg)
	}
}

func (s *APISuite) TestHealthAndReady() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"healthy"}`, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"session_store":"ok"`)
}

func (s *APISuite) TestMetricsEndpoint() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestChat_AssignsSessionID() {
	reply := s.chat("", "hello")
	s.NotEmpty(reply.SessionID)
	s.Equal(models.StateName, reply.State)
}

func (s *APISuite) TestChat_RejectsInvalidBodies() {
	cases := map[string]string{
		"missing message": `{"sessionId":"s-1"}`,
		"empty message":   `{"sessionId":"s-1","message":""}`,
		"unknown field":   `{"sessionId":"s-1","message":"hi","admin":true}`,
		"bad session id":  `{"sessionId":"../etc","message":"hi"}`,
		"not json":        `hello`,
	}
	for name, body := range cases {
		s.Run(name, func() {
			w := s.do(httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))
			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal(apperrors.ErrCodeValidationFailed, s.errorCode(w))
		})
	}
}

func (s *APISuite) TestUpload_RequiresFileAndSession() {
	w := s.upload("", "payslip.txt", "Net pay: 50000")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.upload("s-1", "", "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(apperrors.ErrCodeValidationFailed, s.errorCode(w))
}

func (s *APISuite) TestSessionView_MasksIdentityNumbers() {
	s.driveToDocument("s-1")
	w := s.upload("s-1", "payslip.txt", "Net Pay: 50,000")
	s.Require().Equal(http.StatusOK, w.Code)
	s.chat("s-1", "123456789012")

	w = s.do(httptest.NewRequest(http.MethodGet, "/sessions/s-1", nil))
	s.Require().Equal(http.StatusOK, w.Code)

	var view sessionView
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &view))
	s.Equal(models.StateAadhaarOTP, view.State)
	s.Equal("XXXXXXXX9012", view.Profile.Aadhaar)
	s.Equal("XXXXXX234F", view.Profile.PAN)
	s.NotContains(w.Body.String(), "ABCDE1234F")
	s.Empty(view.Profile.DocumentText)
	s.True(view.Flags.PANVerified)
	s.NotContains(w.Body.String(), "123456789012")
}

func (s *APISuite) TestSanctionLetterDownload() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/download-sanction?sessionId=s-1", nil))
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(apperrors.ErrCodeLetterNotFound, s.errorCode(w))

	s.driveToDocument("s-1")
	w = s.upload("s-1", "payslip.txt", "Net Pay: 50000")
	s.Require().Equal(http.StatusOK, w.Code)
	s.chat("s-1", "123456789012")
	offers := s.chat("s-1", "123456")
	s.Require().Equal(models.StateChoose, offers.State, offers.Message)

	done := s.chat("s-1", "1")
	s.Require().Equal(models.StateEnd, done.State)
	s.Require().NotEmpty(done.SanctionRef)

	w = s.do(httptest.NewRequest(http.MethodGet, "/download-sanction?sessionId=s-1", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(`attachment; filename="sanction_letter_s-1.txt"`, w.Header().Get("Content-Disposition"))
	s.Contains(w.Body.String(), done.SanctionRef)
	s.Contains(w.Body.String(), "Asha Rao")
}

func (s *APISuite) TestReset_RequiresAdminToken() {
	s.chat("s-1", "hi")

	w := s.do(httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{"sessionId":"s-1"}`)))
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(apperrors.ErrCodeUnauthorized, s.errorCode(w))

	req := httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{"sessionId":"s-1"}`))
	req.Header.Set("Authorization", "Bearer not-a-token")
	s.Equal(http.StatusUnauthorized, s.do(req).Code)

	token, err := s.admin.Issue("ops", time.Minute)
	s.Require().NoError(err)
	req = httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{"sessionId":"s-1"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w = s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"reset","scope":"s-1"}`, w.Body.String())

	reply := s.chat("s-1", "hi")
	s.Equal(models.StateName, reply.State, "session should restart from the welcome step")
}

func (s *APISuite) TestReset_AllSessionsWithEmptyBody() {
	token, err := s.admin.Issue("ops", time.Minute)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"reset","scope":"all"}`, w.Body.String())
}

// ==========================
// Error mapping
// ==========================

type mockConversation struct {
	mock.Mock
}

func (m *mockConversation) HandleMessage(ctx context.Context, sessionID, text string) (*orchestrator.Reply, error) {
	args := m.Called(ctx, sessionID, text)
	reply, _ := args.Get(0).(*orchestrator.Reply)
	return reply, args.Error(1)
}

func (m *mockConversation) AttachDocument(ctx context.Context, sessionID string, doc models.Document) (*orchestrator.Reply, error) {
	args := m.Called(ctx, sessionID, doc)
	reply, _ := args.Get(0).(*orchestrator.Reply)
	return reply, args.Error(1)
}

func (m *mockConversation) Snapshot(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	sess, _ := args.Get(0).(*models.Session)
	return sess, args.Error(1)
}

func (m *mockConversation) Reset(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"store down", apperrors.NewSessionStoreFailedError(errors.New("redis: connection refused")), http.StatusServiceUnavailable, apperrors.ErrCodeSessionStoreFailed},
		{"unstructured", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &mockConversation{}
			conv.On("HandleMessage", mock.Anything, "s-1", "hi").Return(nil, tt.err)
			handler := NewServer(Deps{Conversation: conv, Logger: logger.NewNoOpLogger()}).Routes()

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"sessionId":"s-1","message":"hi"}`)))

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Error apperrors.StandardError `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotContains(t, w.Body.String(), "boom")
			conv.AssertExpectations(t)
		})
	}
}

func TestReady_ReportsFailingCheck(t *testing.T) {
	handler := NewServer(Deps{
		Conversation: &mockConversation{},
		Readiness: map[string]ReadinessCheck{
			"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
		},
		Logger: logger.NewNoOpLogger(),
	}).Routes()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "dial tcp: refused")
}

func TestReset_WithoutAdminSecretIsRejected(t *testing.T) {
	conv := &mockConversation{}
	handler := NewServer(Deps{Conversation: conv, Admin: NewAdminAuth("", ""), Logger: logger.NewNoOpLogger()}).Routes()

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	conv.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything)
}
