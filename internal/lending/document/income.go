// Package document reads income figures and red flags out of OCR text.
package document

import (
	"regexp"
	"strconv"
	"strings"

	"loan-origination/internal/lending/fraud"
)

const (
	MinMonthlyIncome = 5000
	MaxMonthlyIncome = 500000
)

// incomePatterns are tried in order; the first in-range match wins.
var incomePatterns = []*regexp.Regexp{
	regexp.MustCompile(`net\s*pay\s*[:\-]?\s*(\d{4,7})`),
	regexp.MustCompile(`gross\s*salary\s*[:\-]?\s*(\d{4,7})`),
	regexp.MustCompile(`total\s*earnings\s*[:\-]?\s*(\d{4,7})`),
	regexp.MustCompile(`net\s*income\s*[:\-]?\s*(\d{4,7})`),
	regexp.MustCompile(`salary\s*[:\-]?\s*(\d{4,7})`),
	regexp.MustCompile(`income\s*[:\-]?\s*(\d{4,7})`),
	regexp.MustCompile(`credited\s*[:\-]?\s*(\d{4,7})`),
}

var normalizer = strings.NewReplacer(",", "", "₹", "", "rs.", "")

// ExtractIncome returns the monthly income stated in a payslip or bank statement.
func ExtractIncome(text string) (int64, bool) {
	normalized := normalizer.Replace(strings.ToLower(text))

	for _, pattern := range incomePatterns {
		for _, match := range pattern.FindAllStringSubmatch(normalized, -1) {
			income, err := strconv.ParseInt(match[1], 10, 64)
			if err != nil {
				continue
			}
			if income >= MinMonthlyIncome && income <= MaxMonthlyIncome {
				return income, true
			}
		}
	}
	return 0, false
}

// SuspiciousKeywords lists the tampering markers present in the text.
func SuspiciousKeywords(text string) []string {
	return fraud.MatchKeywords(text, fraud.DefaultRules().SuspiciousKeywords)
}
