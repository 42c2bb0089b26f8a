// Package verification checks PAN numbers and runs Aadhaar OTP eKYC.
package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonhttp "loan-origination/internal/common/http"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/lending/identity"
	"loan-origination/internal/models"
)

const (
	ReasonPANFormat     = "Invalid PAN format."
	ReasonAadhaarFormat = "Invalid Aadhaar number."
	ReasonOTPInvalid    = "Invalid OTP. Please try again."
	DefaultMockOTP      = "123456"
	otpSendPath         = "/otp"
	otpVerifyPath       = "/verify"
	defaultMaxRetries   = 2
)

// Mock accepts any well-formed PAN and a fixed OTP.
type Mock struct {
	otp    string
	logger logger.Logger
}

func NewMock(otp string, log logger.Logger) *Mock {
	if otp == "" {
		otp = DefaultMockOTP
	}
	return &Mock{otp: otp, logger: log}
}

func (m *Mock) VerifyPAN(ctx context.Context, pan string) (models.VerificationResult, error) {
	if !identity.ValidatePAN(pan) {
		return models.VerificationResult{Reason: ReasonPANFormat}, nil
	}
	return models.VerificationResult{Verified: true}, nil
}

func (m *Mock) SendOTP(ctx context.Context, sessionID, aadhaar string) error {
	m.logger.Debug("mock OTP issued", map[string]interface{}{
		"sessionId": sessionID,
		"aadhaar":   identity.MaskAadhaar(aadhaar),
	})
	return nil
}

func (m *Mock) VerifyOTP(ctx context.Context, sessionID, aadhaar, code string) (models.VerificationResult, error) {
	if !identity.ValidateAadhaar(aadhaar) {
		return models.VerificationResult{Reason: ReasonAadhaarFormat}, nil
	}
	if strings.TrimSpace(code) != m.otp {
		return models.VerificationResult{Reason: ReasonOTPInvalid}, nil
	}
	return models.VerificationResult{Verified: true}, nil
}

type Config struct {
	PANURL  string
	EKYCURL string
	APIKey  string
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.PANURL == "" {
		return fmt.Errorf("PAN registry URL is required")
	}
	if c.EKYCURL == "" {
		return fmt.Errorf("eKYC gateway URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("verification timeout must be positive")
	}
	return nil
}

// HTTPProvider talks to a PAN registry and an eKYC gateway over JSON.
type HTTPProvider struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewHTTPProvider(config *Config, log logger.Logger) *HTTPProvider {
	return &HTTPProvider{
		config: config,
		http:   commonhttp.NewClient(defaultMaxRetries),
		logger: log.WithFields(map[string]interface{}{"component": "verification"}),
	}
}

type registryResponse struct {
	Valid  bool   `json:"valid"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (p *HTTPProvider) headers() map[string]string {
	if p.config.APIKey == "" {
		return nil
	}
	return map[string]string{"X-API-Key": p.config.APIKey}
}

func (p *HTTPProvider) post(ctx context.Context, url string, in interface{}) (models.VerificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var out registryResponse
	if err := p.http.PostJSON(ctx, url, p.headers(), in, &out); err != nil {
		return models.VerificationResult{}, err
	}
	return models.VerificationResult{Verified: out.Valid, Name: out.Name, Reason: out.Reason}, nil
}

func (p *HTTPProvider) VerifyPAN(ctx context.Context, pan string) (models.VerificationResult, error) {
	res, err := p.post(ctx, p.config.PANURL, map[string]string{"pan": pan})
	if err != nil {
		return res, fmt.Errorf("verify PAN: %w", err)
	}
	return res, nil
}

func (p *HTTPProvider) SendOTP(ctx context.Context, sessionID, aadhaar string) error {
	_, err := p.post(ctx, p.config.EKYCURL+otpSendPath, map[string]string{
		"sessionId": sessionID,
		"aadhaar":   aadhaar,
	})
	if err != nil {
		p.logger.Warn("OTP dispatch failed", map[string]interface{}{
			"sessionId": sessionID,
			"aadhaar":   identity.MaskAadhaar(aadhaar),
		})
		return fmt.Errorf("send OTP: %w", err)
	}
	return nil
}

func (p *HTTPProvider) VerifyOTP(ctx context.Context, sessionID, aadhaar, code string) (models.VerificationResult, error) {
	res, err := p.post(ctx, p.config.EKYCURL+otpVerifyPath, map[string]string{
		"sessionId": sessionID,
		"aadhaar":   aadhaar,
		"otp":       strings.TrimSpace(code),
	})
	if err != nil {
		return res, fmt.Errorf("verify OTP: %w", err)
	}
	return res, nil
}
