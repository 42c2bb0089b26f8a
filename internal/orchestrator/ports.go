package orchestrator

import (
	"context"

	"loan-origination/internal/models"
)

// OCR extracts raw text from an uploaded document.
// Errors wrapping models.ErrUnreadableDocument are treated as a bad upload.
type OCR interface {
	ExtractText(ctx context.Context, doc models.Document) (string, error)
}

// LetterGenerator renders and stores a sanction letter, returning its reference.
type LetterGenerator interface {
	Generate(ctx context.Context, req models.LetterRequest) (string, error)
}

type ChatAssistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

type PANVerifier interface {
	VerifyPAN(ctx context.Context, pan string) (models.VerificationResult, error)
}

type AadhaarOTP interface {
	SendOTP(ctx context.Context, sessionID, aadhaar string) error
	VerifyOTP(ctx context.Context, sessionID, aadhaar, code string) (models.VerificationResult, error)
}

type CreditBureau interface {
	Score(ctx context.Context, pan string, income int64) (int, error)
}

// Auditor receives decision records. Implementations must not block for long.
type Auditor interface {
	Record(ctx context.Context, rec models.DecisionRecord)
}

// SanctionPublisher announces a sanctioned loan to the back office.
type SanctionPublisher interface {
	Publish(ctx context.Context, event models.SanctionEvent) error
}

// Ports groups the collaborators. Auditor and Publisher are optional.
type Ports struct {
	OCR       OCR
	Letters   LetterGenerator
	Assistant ChatAssistant
	PAN       PANVerifier
	OTP       AadhaarOTP
	Credit    CreditBureau
	Auditor   Auditor
	Publisher SanctionPublisher
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, models.DecisionRecord) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.SanctionEvent) error { return nil }
