// internal/workers/loan/sanction-notify/validation.go
package sanctionnotify

import "loan-origination/internal/common/validation"

var inputSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["applicationId", "applicantName", "sanctionRef", "amount", "tenureMonths", "annualRate", "emi"],
  "properties": {
    "applicationId": {"type": "string", "minLength": 1},
    "applicantName": {"type": "string", "minLength": 1},
    "email": {"type": "string"},
    "phone": {"type": "string"},
    "sanctionRef": {"type": "string", "minLength": 1},
    "amount": {"type": "integer", "minimum": 1},
    "tenureMonths": {"type": "integer", "minimum": 1},
    "annualRate": {"type": "number", "minimum": 0},
    "emi": {"type": "number", "minimum": 0}
  }
}`)
