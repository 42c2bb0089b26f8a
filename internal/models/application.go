// internal/models/application.go
package models

// SanctionEvent is published once a sanction letter has been issued.
// It is the variable payload of the loan-sanction BPMN process.
type SanctionEvent struct {
	SessionID     string  `json:"sessionId"`
	ApplicantName string  `json:"applicantName"`
	PAN           string  `json:"pan"`
	LoanType      string  `json:"loanType"`
	Amount        int64   `json:"amount"`
	TenureMonths  int     `json:"tenureMonths"`
	AnnualRate    float64 `json:"annualRate"`
	EMI           float64 `json:"emi"`
	CreditScore   int     `json:"creditScore"`
	SanctionRef   string  `json:"sanctionRef"`
	SanctionedAt  string  `json:"sanctionedAt"`
}

// LoanApplication is the persisted record of a sanctioned loan.
type LoanApplication struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"sessionId"`
	ApplicantName string  `json:"applicantName"`
	PAN           string  `json:"pan"`
	LoanType      string  `json:"loanType"`
	Amount        int64   `json:"amount"`
	TenureMonths  int     `json:"tenureMonths"`
	AnnualRate    float64 `json:"annualRate"`
	EMI           float64 `json:"emi"`
	SanctionRef   string  `json:"sanctionRef"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
}

// Application statuses.
const (
	ApplicationStatusSanctioned = "sanctioned"
	ApplicationStatusDisbursed  = "disbursed"
)
