package orchestrator

import (
	"fmt"
	"strconv"
	"strings"

	"loan-origination/internal/models"
)

const (
	msgWelcome          = "Welcome to SanctionX. Please enter your full name."
	msgAskName          = "Please enter your full name."
	msgAskAge           = "Please enter your age."
	msgInvalidAge       = "Please enter a valid age between 1 and 120."
	msgAskGender        = "Please enter your gender (male/female/other)."
	msgInvalidGender    = "Please enter male, female or other."
	msgAskLoanType      = "What type of loan do you want and for what purpose?"
	msgAskEmployment    = "Are you salaried or self-employed?"
	msgInvalidEmploy    = "Currently, loans are only available for salaried or self-employed applicants."
	msgAskIncome        = "Please enter your monthly income."
	msgInvalidIncome    = "Please enter your monthly income in numbers."
	msgAskPAN           = "Please enter your PAN number."
	msgInvalidPAN       = "Invalid PAN format. Please enter a valid PAN number (e.g., ABCDE1234F)."
	msgPANVerified      = "PAN verified successfully. Please upload your income proof document."
	msgPANRejected      = "PAN verification failed. Please re-enter your PAN number."
	msgAskDocument      = "Please upload your income proof document."
	msgDocumentReceived = "Income document received. Running fraud checks."
	msgDocumentNoIncome = "We could not find your monthly income in this document. Please upload a clear salary slip or bank statement."
	msgDocumentNotNow   = "A document is not needed at this step."
	msgCreditPending    = "We are checking your credit profile. Please send any message to continue."
	msgFraudPending     = "Running fraud checks. Please send any message to continue."
	msgFraudFlagged     = "Your application is flagged as suspicious and cannot be processed."
	msgFraudPassed      = "Fraud checks passed. Please enter your Aadhaar number."
	msgAskAadhaar       = "Please enter your Aadhaar number."
	msgInvalidAadhaar   = "Invalid Aadhaar number. Please enter a valid 12-digit Aadhaar number."
	msgOTPSent          = "OTP has been sent to your Aadhaar-linked mobile number. Please enter the OTP."
	msgAskOTP           = "Please enter the OTP sent to your Aadhaar-linked mobile number."
	msgInvalidOTP       = "Invalid OTP. Please try again."
	msgKYCDone          = "Aadhaar eKYC completed successfully. Checking your loan eligibility."
	msgEligPending      = "Checking your loan eligibility. Please send any message to continue."
	msgNotEligible      = "You are not eligible due to:"
	msgEligible         = "You are eligible. Available loan options:"
	msgCounterOffers    = "No standard option fits within 40% of your monthly income. You can choose one of these reduced amounts instead:"
	msgSanctionPending  = "Your sanction letter is being generated. Please send any message to continue."
	msgThanks           = "Thank you for using SanctionX."
	msgAssistDown       = "I'm unable to answer questions right now."
	msgAssistFallback   = "I can only help with general loan questions here."
	msgTryAgain         = "Please try again in a moment."

	reasonNoAffordableOffer = "No loan option has an EMI within 40% of your monthly income."
	reasonTooManyAttempts   = "Too many failed verification attempts."
	reasonUnreadableDocs    = "No valid monthly income could be read from the uploaded documents."
)

// unavailable is the degraded line per effect.
var unavailable = map[string]string{
	effectPAN:       "We could not reach the PAN verification service.",
	effectOCR:       "We could not process your document right now.",
	effectCredit:    "We could not reach the credit bureau.",
	effectOTPSend:   "We could not send the OTP right now.",
	effectOTPVerify: "We could not verify the OTP right now.",
	effectLetter:    "We could not generate your sanction letter right now.",
}

// prompt restates what the session is waiting for.
func prompt(s *models.Session) string {
	switch s.State {
	case models.StateStart:
		return msgWelcome
	case models.StateName:
		return msgAskName
	case models.StateAge:
		return msgAskAge
	case models.StateGender:
		return msgAskGender
	case models.StateLoanType:
		return msgAskLoanType
	case models.StateEmployment:
		return msgAskEmployment
	case models.StateIncome:
		return msgAskIncome
	case models.StatePAN:
		return msgAskPAN
	case models.StateDocument:
		return msgAskDocument
	case models.StateCredit:
		return msgCreditPending
	case models.StateFraud:
		return msgFraudPending
	case models.StateAadhaar:
		return msgAskAadhaar
	case models.StateAadhaarOTP:
		return msgAskOTP
	case models.StateEligibility:
		return msgEligPending
	case models.StateChoose:
		return choosePrompt(len(s.Profile.Offers))
	case models.StateSanction:
		return msgSanctionPending
	default:
		return msgThanks
	}
}

func formatOffers(offers []models.LoanOffer) string {
	lines := make([]string, len(offers))
	for i, o := range offers {
		lines[i] = fmt.Sprintf("Option %d: ₹%d | %d months | %s%% | EMI ₹%s",
			i+1, o.Amount, o.TenureMonths, formatRate(o.AnnualRate), strconv.FormatFloat(o.EMI, 'f', -1, 64))
	}
	return strings.Join(lines, "\n")
}

func choosePrompt(n int) string {
	if n <= 1 {
		return "Please reply with 1 to choose this option."
	}
	return fmt.Sprintf("Please choose an option between 1 and %d.", n)
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func approvedMessage(o models.LoanOffer) string {
	return fmt.Sprintf("Loan approved for ₹%d at %s%%. Generating sanction letter.", o.Amount, formatRate(o.AnnualRate))
}

func sanctionedMessage(ref string) string {
	return fmt.Sprintf("Loan approved.\nYour sanction letter is ready (reference %s).\nPlease download it.\n"+
		"Please visit your closest bank branch for disbursement of the loan amount.", ref)
}
