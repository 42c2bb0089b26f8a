package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/validation"
	"loan-origination/internal/integrations/letter"
	"loan-origination/internal/lending/identity"
	"loan-origination/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type resetRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true
	for name, check := range s.readiness {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, chatRequestSchema, &req) {
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := s.conv.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.fail(w, r, "chat message failed", req.SessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, apperrors.NewValidationFailedError("multipart form with a file is required"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	sessionID := r.FormValue("sessionId")
	if !s.validID(w, sessionID) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.NewValidationFailedError("file: field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.NewValidationFailedError("file could not be read"))
		return
	}

	doc := models.Document{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	reply, err := s.conv.AttachDocument(r.Context(), sessionID, doc)
	if err != nil {
		s.fail(w, r, "document upload failed", sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// sessionView is a session with identity numbers masked and raw document text dropped.
type sessionView struct {
	ID                   string         `json:"id"`
	State                models.State   `json:"state"`
	Profile              models.Profile `json:"profile"`
	Flags                models.Flags   `json:"flags"`
	VerificationAttempts int            `json:"verificationAttempts"`
	DocumentAttempts     int            `json:"documentAttempts"`
	Version              int64          `json:"version"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

func newSessionView(sess *models.Session) sessionView {
	profile := sess.Profile
	if profile.Aadhaar != "" {
		profile.Aadhaar = identity.MaskAadhaar(profile.Aadhaar)
	}
	if profile.PAN != "" {
		profile.PAN = identity.MaskPAN(profile.PAN)
	}
	profile.DocumentText = ""
	return sessionView{
		ID:                   sess.ID,
		State:                sess.State,
		Profile:              profile,
		Flags:                sess.Flags,
		VerificationAttempts: sess.VerificationAttempts,
		DocumentAttempts:     sess.DocumentAttempts,
		Version:              sess.Version,
		CreatedAt:            sess.CreatedAt,
		UpdatedAt:            sess.UpdatedAt,
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if !s.validID(w, sessionID) {
		return
	}
	sess, err := s.conv.Snapshot(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, "session lookup failed", sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if !s.validID(w, sessionID) {
		return
	}

	content, err := s.letters.Load(r.Context(), sessionID)
	if errors.Is(err, letter.ErrNotFound) {
		writeError(w, apperrors.NewLetterNotFoundError(sessionID))
		return
	}
	if err != nil {
		s.fail(w, r, "letter download failed", sessionID, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sanction_letter_%s.txt"`, sessionID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength != 0 {
		if !s.decode(w, r, resetRequestSchema, &req) {
			return
		}
	}

	if err := s.conv.Reset(r.Context(), req.SessionID); err != nil {
		s.fail(w, r, "session reset failed", req.SessionID, err)
		return
	}

	scope := "all"
	if req.SessionID != "" {
		scope = req.SessionID
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "scope": scope})
}

// decode reads a JSON body, validates it against schema and fills out.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema *validation.Schema, out interface{}) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		writeError(w, apperrors.NewValidationFailedError("request body too large"))
		return false
	}

	result := schema.ValidateJSON(raw)
	if !result.Valid {
		writeError(w, apperrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; ")))
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		writeError(w, apperrors.NewValidationFailedError("malformed request body"))
		return false
	}
	return true
}

func (s *Server) validID(w http.ResponseWriter, sessionID string) bool {
	if result := sessionIDSchema.Validate(sessionID); !result.Valid {
		writeError(w, apperrors.NewValidationFailedError("sessionId: "+strings.Join(result.GetErrorMessages(), "; ")))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg, sessionID string, err error) {
	logger.FromContext(r.Context(), s.logger).Error(msg, map[string]interface{}{
		"sessionId": sessionID,
		"path":      r.URL.Path,
		"error":     err.Error(),
	})
	writeError(w, err)
}
