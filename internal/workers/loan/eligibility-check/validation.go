// internal/workers/loan/eligibility-check/validation.go
package eligibilitycheck

import "loan-origination/internal/common/validation"

var inputSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["sessionId", "profile", "flags"],
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "profile": {
      "type": "object",
      "required": ["age", "employment", "declaredIncome"],
      "properties": {
        "age": {"type": "integer", "minimum": 0},
        "employment": {"type": "string"},
        "declaredIncome": {"type": "integer", "minimum": 0},
        "documentIncome": {"type": "integer", "minimum": 0}
      }
    },
    "flags": {
      "type": "object",
      "required": ["pan_verified", "kyc_verified"],
      "properties": {
        "pan_verified": {"type": "boolean"},
        "kyc_verified": {"type": "boolean"},
        "fraud_risk": {"type": "boolean"}
      }
    }
  }
}`)
