// internal/workers/loan/sanction-record/validation.go
package sanctionrecord

import "loan-origination/internal/common/validation"

var inputSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["sessionId", "applicantName", "pan", "amount", "tenureMonths", "annualRate", "emi", "sanctionRef"],
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "applicantName": {"type": "string", "minLength": 1},
    "pan": {"type": "string", "pattern": "^[A-Z]{5}[0-9]{4}[A-Z]$"},
    "loanType": {"type": "string"},
    "amount": {"type": "integer", "minimum": 1},
    "tenureMonths": {"type": "integer", "minimum": 1},
    "annualRate": {"type": "number", "minimum": 0},
    "emi": {"type": "number", "minimum": 0},
    "creditScore": {"type": "integer", "minimum": 0},
    "sanctionRef": {"type": "string", "minLength": 1},
    "sanctionedAt": {"type": "string"}
  }
}`)
