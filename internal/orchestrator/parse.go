package orchestrator

import (
	"regexp"
	"strconv"
	"strings"

	"loan-origination/internal/models"
)

var (
	ageNumber     = regexp.MustCompile(`[-+]?\d+`)
	amountPattern = regexp.MustCompile(`(\d+)\s*(lakhs?|lacs?|crores?)?`)
	incomeCleaner = strings.NewReplacer(",", "", "₹", "", "rs.", "", "rs", "", "inr", "")
)

const minRequestedAmount = 1000

func isQuestion(text string) bool {
	return strings.HasSuffix(strings.TrimSpace(text), "?")
}

// parseAge reads the first signed integer in the message; the sign is kept so
// "-19" is rejected rather than read as 19.
func parseAge(text string) (int, bool) {
	m := ageNumber.FindString(text)
	if m == "" {
		return 0, false
	}
	age, err := strconv.Atoi(m)
	if err != nil || age < 1 || age > 120 {
		return 0, false
	}
	return age, true
}

func parseGender(text string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "male", "m", "man":
		return models.GenderMale, true
	case "female", "f", "woman":
		return models.GenderFemale, true
	case "other", "o", "non-binary", "nonbinary":
		return models.GenderOther, true
	}
	return "", false
}

func parseEmployment(text string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	switch {
	case strings.Contains(norm, models.EmploymentSelfEmployed):
		return models.EmploymentSelfEmployed, true
	case strings.Contains(norm, models.EmploymentSalaried):
		return models.EmploymentSalaried, true
	}
	return "", false
}

func parseIncome(text string) (int64, bool) {
	cleaned := strings.TrimSpace(incomeCleaner.Replace(strings.ToLower(text)))
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// requestedAmount finds the first figure of at least ₹1,000 in free text,
// honouring lakh and crore suffixes.
func requestedAmount(text string) int64 {
	cleaned := strings.ReplaceAll(strings.ToLower(text), ",", "")
	for _, m := range amountPattern.FindAllStringSubmatch(cleaned, -1) {
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(m[2], "lakh"), strings.HasPrefix(m[2], "lac"):
			v *= 100000
		case strings.HasPrefix(m[2], "crore"):
			v *= 10000000
		}
		if v >= minRequestedAmount {
			return v
		}
	}
	return 0
}

// parseChoice reads the last digit of the message as a 1-based option index.
func parseChoice(text string, n int) (int, bool) {
	trimmed := strings.TrimSpace(text)
	for i := len(trimmed) - 1; i >= 0; i-- {
		c := trimmed[i]
		if c >= '0' && c <= '9' {
			idx := int(c - '0')
			if idx < 1 || idx > n {
				return 0, false
			}
			return idx - 1, true
		}
	}
	return 0, false
}
