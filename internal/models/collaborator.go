package models

import (
	"errors"
	"time"
)

// ErrUnreadableDocument marks OCR failures caused by the upload itself, not the service.
var ErrUnreadableDocument = errors.New("UNREADABLE_DOCUMENT")

// Document is an uploaded income proof.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// VerificationResult is the answer of a PAN registry or eKYC gateway.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Name     string `json:"name,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// LetterRequest carries everything printed on a sanction letter.
type LetterRequest struct {
	SessionID     string    `json:"sessionId"`
	ApplicantName string    `json:"applicantName"`
	Purpose       string    `json:"purpose"`
	Offer         LoanOffer `json:"offer"`
	IssuedAt      time.Time `json:"issuedAt"`
}
