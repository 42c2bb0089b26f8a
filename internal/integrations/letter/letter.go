// Package letter renders sanction letters and keeps them for download.
package letter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"
)

var ErrNotFound = errors.New("LETTER_NOT_FOUND")

const letterTemplate = `================================================================================
                              SANCTION LETTER
================================================================================

Reference No: {{.Ref}}
Date: {{.Date}}

Dear {{.Name}},

Subject: Sanction of {{.Purpose}} Application

We are pleased to inform you that your loan application has been approved by
{{.Bank}}.

================================================================================
                              LOAN DETAILS
================================================================================

Loan Amount          : {{.Amount}}
Interest Rate        : {{.Rate}}% per annum (reducing balance)
Tenure               : {{.Months}} months
EMI Amount           : {{.EMI}} per month
Purpose              : {{.Purpose}}

================================================================================
                           TERMS AND CONDITIONS
================================================================================

1. This sanction is valid for 30 days from the date of this letter.

2. The loan is subject to verification of original documents at the branch.

3. Processing fee and other applicable charges will be deducted at the time
   of disbursement.

4. EMI will be debited from your registered bank account on the 5th of every
   month.

5. Pre-closure of the loan is allowed after 6 months with applicable charges.

6. In case of default, penal interest at 2% per month will be applicable.

================================================================================
                             IMPORTANT NOTICE
================================================================================

Please visit your closest bank branch for disbursement of the loan amount.

This is a system-generated letter and does not require a signature.

Regards,
SanctionX Loan Processing System
`

var tmpl = template.Must(template.New("sanction").Parse(letterTemplate))

type view struct {
	Ref     string
	Date    string
	Name    string
	Bank    string
	Purpose string
	Amount  string
	Rate    string
	Months  int
	EMI     string
}

// Store persists rendered letters keyed by session id.
type Store interface {
	Put(ctx context.Context, sessionID string, content []byte) error
	Get(ctx context.Context, sessionID string) ([]byte, error)
}

// Service renders sanction letters and hands them to a Store.
type Service struct {
	store  Store
	bank   string
	now    func() time.Time
	logger logger.Logger
}

func NewService(store Store, bankName string, log logger.Logger) *Service {
	return &Service{
		store:  store,
		bank:   bankName,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "sanction-letter"}),
	}
}

// Generate renders and stores the letter, returning its SX/<unix-millis> reference.
func (s *Service) Generate(ctx context.Context, req models.LetterRequest) (string, error) {
	issued := req.IssuedAt
	if issued.IsZero() {
		issued = s.now()
	}
	ref := "SX/" + strconv.FormatInt(issued.UnixMilli(), 10)

	content, err := s.Render(ref, issued, req)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, req.SessionID, content); err != nil {
		return "", fmt.Errorf("store sanction letter: %w", err)
	}

	s.logger.Info("sanction letter issued", map[string]interface{}{
		"sessionId": req.SessionID,
		"ref":       ref,
		"amount":    req.Offer.Amount,
	})
	return ref, nil
}

// Render produces the letter text without storing it.
func (s *Service) Render(ref string, issued time.Time, req models.LetterRequest) ([]byte, error) {
	name := strings.TrimSpace(req.ApplicantName)
	if name == "" {
		name = "Applicant"
	}
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		purpose = "Personal Loan"
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, view{
		Ref:     ref,
		Date:    issued.Format("02-01-2006"),
		Name:    name,
		Bank:    s.bank,
		Purpose: purpose,
		Amount:  FormatINR(float64(req.Offer.Amount)),
		Rate:    strconv.FormatFloat(req.Offer.AnnualRate, 'f', -1, 64),
		Months:  req.Offer.TenureMonths,
		EMI:     FormatINR(req.Offer.EMI),
	})
	if err != nil {
		return nil, fmt.Errorf("render sanction letter: %w", err)
	}
	return buf.Bytes(), nil
}

// Load returns the stored letter for a session.
func (s *Service) Load(ctx context.Context, sessionID string) ([]byte, error) {
	return s.store.Get(ctx, sessionID)
}

// FormatINR prints a whole-rupee amount with Indian digit grouping, e.g. ₹12,34,567.
func FormatINR(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// FileStore writes one text file per session under dir.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create letters dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(sessionID string) string {
	return filepath.Join(f.dir, "sanction_letter_"+unsafeName.ReplaceAllString(sessionID, "_")+".txt")
}

func (f *FileStore) Put(ctx context.Context, sessionID string, content []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".letter-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(sessionID))
}

func (f *FileStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	content, err := os.ReadFile(f.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return content, err
}
