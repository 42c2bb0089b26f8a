// internal/workers/loan/offer-generate/validation.go
package offergenerate

import "loan-origination/internal/common/validation"

var inputSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["sessionId", "declaredIncome"],
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "declaredIncome": {"type": "integer", "minimum": 1},
    "gender": {"type": "string", "enum": ["male", "female", "other", ""]}
  }
}`)
