package models

import "time"

// State is a node of the loan-origination conversation graph.
type State string

const (
	StateStart       State = "START"
	StateName        State = "NAME"
	StateAge         State = "AGE"
	StateGender      State = "GENDER"
	StateLoanType    State = "LOAN_TYPE"
	StateEmployment  State = "EMPLOYMENT"
	StateIncome      State = "INCOME"
	StatePAN         State = "PAN"
	StateDocument    State = "DOCUMENT"
	StateCredit      State = "CREDIT"
	StateFraud       State = "FRAUD"
	StateAadhaar     State = "AADHAAR"
	StateAadhaarOTP  State = "AADHAAR_OTP"
	StateEligibility State = "ELIGIBILITY"
	StateChoose      State = "CHOOSE"
	StateSanction    State = "SANCTION"
	StateEnd         State = "END"
)

// States lists every state in happy-path order.
var States = []State{
	StateStart, StateName, StateAge, StateGender, StateLoanType, StateEmployment,
	StateIncome, StatePAN, StateDocument, StateCredit, StateFraud, StateAadhaar,
	StateAadhaarOTP, StateEligibility, StateChoose, StateSanction, StateEnd,
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	for _, st := range States {
		if st == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the conversation is over.
func (s State) Terminal() bool {
	return s == StateEnd
}

// Employment types accepted by the lending rules.
const (
	EmploymentSalaried     = "salaried"
	EmploymentSelfEmployed = "self-employed"
)

// Gender values captured at the GENDER step.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Profile holds applicant data accumulated during the conversation.
// A zero value means the field has not been captured yet.
type Profile struct {
	Name            string `json:"name,omitempty"`
	Age             int    `json:"age,omitempty"`
	Gender          string `json:"gender,omitempty"`
	LoanType        string `json:"loanType,omitempty"`
	RequestedAmount int64  `json:"requestedAmount,omitempty"`
	Employment      string `json:"employment,omitempty"`
	DeclaredIncome  int64  `json:"declaredIncome,omitempty"`
	DocumentIncome  int64  `json:"documentIncome,omitempty"`
	DocumentText    string `json:"documentText,omitempty"`
	PAN             string `json:"pan,omitempty"`
	Aadhaar         string `json:"aadhaar,omitempty"`
	VerifiedName    string `json:"verifiedName,omitempty"`
	CreditScore     int    `json:"creditScore,omitempty"`

	Offers      []LoanOffer `json:"offers,omitempty"`
	FinalOffer  *LoanOffer  `json:"finalOffer,omitempty"`
	SanctionRef string      `json:"sanctionRef,omitempty"`
}

// Flags are the verification and risk markers of a session.
type Flags struct {
	PANVerified      bool `json:"pan_verified"`
	KYCVerified      bool `json:"kyc_verified"`
	FraudRisk        bool `json:"fraud_risk"`
	MultipleAttempts bool `json:"multiple_attempts"`
}

// Session is one applicant interaction.
type Session struct {
	ID      string  `json:"id"`
	State   State   `json:"state"`
	Profile Profile `json:"profile"`
	Flags   Flags   `json:"flags"`

	VerificationAttempts int `json:"verificationAttempts"`
	DocumentAttempts     int `json:"documentAttempts"`

	// Version increases with every committed mutation.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession returns a session at START with default flags.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Profile.Offers != nil {
		c.Profile.Offers = make([]LoanOffer, len(s.Profile.Offers))
		copy(c.Profile.Offers, s.Profile.Offers)
	}
	if s.Profile.FinalOffer != nil {
		offer := *s.Profile.FinalOffer
		c.Profile.FinalOffer = &offer
	}
	return &c
}

// Touch records a committed mutation.
func (s *Session) Touch() {
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}
