package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/metrics"
	"loan-origination/internal/lending/document"
	"loan-origination/internal/lending/identity"
	"loan-origination/internal/models"
)

// handler is one row of the transition table. Input states set input, automatic
// states set run, DOCUMENT sets upload. next lists every state the handler may move to.
type handler struct {
	input  func(o *Orchestrator, t *turn, text string)
	upload func(o *Orchestrator, t *turn, doc models.Document)
	run    func(o *Orchestrator, t *turn)
	assist bool
	next   []models.State
}

func (h handler) allows(to models.State) bool {
	for _, st := range h.next {
		if st == to {
			return true
		}
	}
	return false
}

func newTransitionTable() map[models.State]handler {
	return map[models.State]handler{
		models.StateStart:       {input: (*Orchestrator).onStart, next: []models.State{models.StateName}},
		models.StateName:        {input: (*Orchestrator).onName, next: []models.State{models.StateAge}},
		models.StateAge:         {input: (*Orchestrator).onAge, assist: true, next: []models.State{models.StateGender}},
		models.StateGender:      {input: (*Orchestrator).onGender, assist: true, next: []models.State{models.StateLoanType}},
		models.StateLoanType:    {input: (*Orchestrator).onLoanType, next: []models.State{models.StateEmployment}},
		models.StateEmployment:  {input: (*Orchestrator).onEmployment, assist: true, next: []models.State{models.StateIncome}},
		models.StateIncome:      {input: (*Orchestrator).onIncome, assist: true, next: []models.State{models.StatePAN}},
		models.StatePAN:         {input: (*Orchestrator).onPAN, assist: true, next: []models.State{models.StateDocument, models.StateEnd}},
		models.StateDocument:    {upload: (*Orchestrator).onDocument, assist: true, next: []models.State{models.StateCredit, models.StateEnd}},
		models.StateCredit:      {run: (*Orchestrator).runCredit, next: []models.State{models.StateFraud}},
		models.StateFraud:       {run: (*Orchestrator).runFraud, next: []models.State{models.StateAadhaar, models.StateEnd}},
		models.StateAadhaar:     {input: (*Orchestrator).onAadhaar, assist: true, next: []models.State{models.StateAadhaarOTP, models.StateEnd}},
		models.StateAadhaarOTP:  {input: (*Orchestrator).onOTP, assist: true, next: []models.State{models.StateEligibility, models.StateEnd}},
		models.StateEligibility: {run: (*Orchestrator).runEligibility, next: []models.State{models.StateChoose, models.StateEnd}},
		models.StateChoose:      {input: (*Orchestrator).onChoose, assist: true, next: []models.State{models.StateSanction}},
		models.StateSanction:    {run: (*Orchestrator).runSanction, next: []models.State{models.StateEnd}},
		models.StateEnd:         {input: (*Orchestrator).onEnd},
	}
}

func (o *Orchestrator) onStart(t *turn, _ string) {
	o.move(t, models.StateName)
	t.say(msgWelcome)
}

func (o *Orchestrator) onName(t *turn, text string) {
	name := strings.TrimSpace(text)
	if name == "" {
		t.say(msgAskName)
		return
	}
	t.s.Profile.Name = name
	o.move(t, models.StateAge)
	t.say(msgAskAge)
}

func (o *Orchestrator) onAge(t *turn, text string) {
	age, ok := parseAge(text)
	if !ok {
		o.notAccepted(t, apperrors.NewInvalidInputError("age must be a whole number from 1 to 120"))
		t.say(msgInvalidAge)
		return
	}
	t.s.Profile.Age = age
	o.move(t, models.StateGender)
	t.say(msgAskGender)
}

func (o *Orchestrator) onGender(t *turn, text string) {
	gender, ok := parseGender(text)
	if !ok {
		o.notAccepted(t, apperrors.NewInvalidInputError("gender must be male, female or other"))
		t.say(msgInvalidGender)
		return
	}
	t.s.Profile.Gender = gender
	o.move(t, models.StateLoanType)
	t.say(msgAskLoanType)
}

func (o *Orchestrator) onLoanType(t *turn, text string) {
	purpose := strings.TrimSpace(text)
	if purpose == "" {
		t.say(msgAskLoanType)
		return
	}
	t.s.Profile.LoanType = purpose
	t.s.Profile.RequestedAmount = requestedAmount(purpose)
	o.move(t, models.StateEmployment)
	t.say(msgAskEmployment)
}

func (o *Orchestrator) onEmployment(t *turn, text string) {
	employment, ok := parseEmployment(text)
	if !ok {
		o.notAccepted(t, apperrors.NewInvalidInputError("employment must be salaried or self-employed"))
		t.say(msgInvalidEmploy)
		return
	}
	t.s.Profile.Employment = employment
	o.move(t, models.StateIncome)
	t.say(msgAskIncome)
}

func (o *Orchestrator) onIncome(t *turn, text string) {
	income, ok := parseIncome(text)
	if !ok {
		o.notAccepted(t, apperrors.NewInvalidInputError("income must be a positive amount"))
		t.say(msgInvalidIncome)
		return
	}
	t.s.Profile.DeclaredIncome = income
	o.move(t, models.StatePAN)
	t.say(msgAskPAN)
}

func (o *Orchestrator) onPAN(t *turn, text string) {
	pan := identity.NormalizePAN(text)
	if !identity.ValidatePAN(pan) {
		o.notAccepted(t, apperrors.NewFormatInvalidError("pan", "expected five letters, four digits, one letter"))
		o.failVerification(t, msgInvalidPAN)
		return
	}

	t.effect = &effect{
		name: effectPAN,
		run: func(ctx context.Context) (interface{}, error) {
			return o.ports.PAN.VerifyPAN(ctx, pan)
		},
		apply: func(o *Orchestrator, t *turn, result interface{}) {
			res := result.(models.VerificationResult)
			if !res.Verified {
				o.failVerification(t, msgPANRejected)
				return
			}
			t.s.Flags.PANVerified = true
			t.s.Profile.PAN = pan
			t.s.Profile.VerifiedName = res.Name
			o.move(t, models.StateDocument)
			t.say(msgPANVerified)
		},
	}
}

type ocrResult struct {
	text     string
	readable bool
}

func (o *Orchestrator) onDocument(t *turn, doc models.Document) {
	t.effect = &effect{
		name: effectOCR,
		run: func(ctx context.Context) (interface{}, error) {
			text, err := o.ports.OCR.ExtractText(ctx, doc)
			if errors.Is(err, models.ErrUnreadableDocument) {
				return ocrResult{}, nil
			}
			if err != nil {
				return nil, err
			}
			return ocrResult{text: text, readable: true}, nil
		},
		apply: func(o *Orchestrator, t *turn, result interface{}) {
			res := result.(ocrResult)
			if res.readable {
				if income, ok := document.ExtractIncome(res.text); ok {
					t.s.Profile.DocumentIncome = income
					t.s.Profile.DocumentText = res.text
					o.move(t, models.StateCredit)
					t.say(msgDocumentReceived)
					return
				}
			}

			t.s.DocumentAttempts++
			t.touch()
			if t.s.DocumentAttempts >= o.opts.MaxDocumentAttempts {
				o.reject(t, "document", []string{reasonUnreadableDocs})
				t.say(reasonUnreadableDocs)
				return
			}
			t.say(msgDocumentNoIncome)
		},
	}
}

func (o *Orchestrator) runCredit(t *turn) {
	pan, income := t.s.Profile.PAN, t.s.Profile.DeclaredIncome
	t.effect = &effect{
		name: effectCredit,
		run: func(ctx context.Context) (interface{}, error) {
			return o.ports.Credit.Score(ctx, pan, income)
		},
		apply: func(o *Orchestrator, t *turn, result interface{}) {
			t.s.Profile.CreditScore = result.(int)
			o.move(t, models.StateFraud)
		},
	}
}

func (o *Orchestrator) runFraud(t *turn) {
	assessment := o.fraud.Assess(t.s.Profile, t.s.Flags)
	outcome := "clear"
	if assessment.IsFraud {
		outcome = "flagged"
	}
	o.audit(t, models.DecisionFraud, outcome, assessment.RiskScore, assessment.Reasons, nil)

	if assessment.IsFraud {
		t.s.Flags.FraudRisk = true
		o.reject(t, "fraud", assessment.Reasons)
		t.say(msgFraudFlagged)
		return
	}
	o.move(t, models.StateAadhaar)
	t.say(msgFraudPassed)
}

func (o *Orchestrator) onAadhaar(t *turn, text string) {
	aadhaar := strings.TrimSpace(text)
	if !identity.ValidateAadhaar(aadhaar) {
		o.notAccepted(t, apperrors.NewFormatInvalidError("aadhaar", "expected exactly 12 digits"))
		o.failVerification(t, msgInvalidAadhaar)
		return
	}

	sessionID := t.s.ID
	t.effect = &effect{
		name: effectOTPSend,
		run: func(ctx context.Context) (interface{}, error) {
			return nil, o.ports.OTP.SendOTP(ctx, sessionID, aadhaar)
		},
		apply: func(o *Orchestrator, t *turn, _ interface{}) {
			t.s.Profile.Aadhaar = aadhaar
			o.move(t, models.StateAadhaarOTP)
			t.say(msgOTPSent)
		},
	}
}

func (o *Orchestrator) onOTP(t *turn, text string) {
	code := strings.TrimSpace(text)
	sessionID, aadhaar := t.s.ID, t.s.Profile.Aadhaar

	t.effect = &effect{
		name: effectOTPVerify,
		run: func(ctx context.Context) (interface{}, error) {
			return o.ports.OTP.VerifyOTP(ctx, sessionID, aadhaar, code)
		},
		apply: func(o *Orchestrator, t *turn, result interface{}) {
			if !result.(models.VerificationResult).Verified {
				o.failVerification(t, msgInvalidOTP)
				return
			}
			t.s.Flags.KYCVerified = true
			o.move(t, models.StateEligibility)
			t.say(msgKYCDone)
		},
	}
}

func (o *Orchestrator) runEligibility(t *turn) {
	result := o.eligibility.Evaluate(t.s.Profile, t.s.Flags)
	outcome := "eligible"
	if !result.Eligible {
		outcome = "ineligible"
	}
	o.audit(t, models.DecisionEligibility, outcome, 0, result.Reasons, nil)

	if !result.Eligible {
		o.reject(t, "eligibility", result.Reasons)
		t.say(msgNotEligible + "\n" + strings.Join(result.Reasons, "\n"))
		return
	}

	list, err := o.offers.Generate(t.s.Profile)
	if err != nil {
		o.logger.Error("offer generation failed", map[string]interface{}{"sessionId": t.s.ID, "error": err.Error()})
	}
	header := msgEligible
	if len(list) == 0 && o.opts.CounterOffers {
		list, err = o.offers.CounterOffers(t.s.Profile)
		if err != nil {
			o.logger.Error("counter offer generation failed", map[string]interface{}{"sessionId": t.s.ID, "error": err.Error()})
		}
		header = msgCounterOffers
	}

	if len(list) == 0 {
		o.audit(t, models.DecisionOffers, "none", 0, []string{reasonNoAffordableOffer}, nil)
		o.reject(t, "affordability", []string{reasonNoAffordableOffer})
		t.say(reasonNoAffordableOffer)
		return
	}

	o.audit(t, models.DecisionOffers, "offered", 0, nil, list)
	t.s.Profile.Offers = list
	o.move(t, models.StateChoose)
	t.say(header + "\n\n" + formatOffers(list))
	t.say(choosePrompt(len(list)))
}

func (o *Orchestrator) onChoose(t *turn, text string) {
	offers := t.s.Profile.Offers
	idx, ok := parseChoice(text, len(offers))
	if !ok {
		t.say(choosePrompt(len(offers)))
		return
	}
	chosen := offers[idx]
	t.s.Profile.FinalOffer = &chosen
	o.move(t, models.StateSanction)
	t.say(approvedMessage(chosen))
}

func (o *Orchestrator) runSanction(t *turn) {
	p := t.s.Profile
	if p.SanctionRef != "" || p.FinalOffer == nil {
		o.move(t, models.StateEnd)
		t.say(msgThanks)
		return
	}

	req := models.LetterRequest{
		SessionID:     t.s.ID,
		ApplicantName: p.Name,
		Purpose:       p.LoanType,
		Offer:         *p.FinalOffer,
		IssuedAt:      o.now(),
	}
	t.effect = &effect{
		name: effectLetter,
		run: func(ctx context.Context) (interface{}, error) {
			return o.ports.Letters.Generate(ctx, req)
		},
		apply: func(o *Orchestrator, t *turn, result interface{}) {
			ref := result.(string)
			t.s.Profile.SanctionRef = ref
			offer := *t.s.Profile.FinalOffer

			o.audit(t, models.DecisionSanction, "sanctioned", t.s.Profile.CreditScore, nil, []models.LoanOffer{offer})
			t.pendingEvents = append(t.pendingEvents, models.SanctionEvent{
				SessionID:     t.s.ID,
				ApplicantName: t.s.Profile.Name,
				PAN:           t.s.Profile.PAN,
				LoanType:      t.s.Profile.LoanType,
				Amount:        offer.Amount,
				TenureMonths:  offer.TenureMonths,
				AnnualRate:    offer.AnnualRate,
				EMI:           offer.EMI,
				CreditScore:   t.s.Profile.CreditScore,
				SanctionRef:   ref,
				SanctionedAt:  o.now().UTC().Format(time.RFC3339),
			})

			o.move(t, models.StateEnd)
			t.say(sanctionedMessage(ref))
		},
	}
}

func (o *Orchestrator) onEnd(t *turn, _ string) {
	t.say(msgThanks)
}

// failVerification counts a rejected PAN, Aadhaar or OTP input.
// notAccepted counts and logs input the current step re-prompts for. The raw text is never logged.
func (o *Orchestrator) notAccepted(t *turn, err *apperrors.StandardError) {
	metrics.RejectedInputs.WithLabelValues(string(t.s.State), string(err.Code)).Inc()
	o.logger.Debug("input not accepted", map[string]interface{}{
		"sessionId": t.s.ID,
		"state":     string(t.s.State),
		"errorCode": string(err.Code),
		"reason":    err.Details,
	})
}

func (o *Orchestrator) failVerification(t *turn, msg string) {
	t.s.VerificationAttempts++
	t.touch()
	if t.s.VerificationAttempts >= o.opts.MultipleAttemptsThreshold {
		t.s.Flags.MultipleAttempts = true
	}
	if t.s.VerificationAttempts >= o.opts.MaxVerificationAttempts {
		o.reject(t, "attempts", []string{reasonTooManyAttempts})
		t.say(reasonTooManyAttempts + " Your application cannot be processed.")
		return
	}
	t.say(msg)
}
