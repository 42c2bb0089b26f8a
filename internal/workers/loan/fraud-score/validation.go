// internal/workers/loan/fraud-score/validation.go
package fraudscore

import "loan-origination/internal/common/validation"

var inputSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["sessionId", "profile", "flags"],
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "profile": {
      "type": "object",
      "properties": {
        "age": {"type": "integer", "minimum": 0},
        "requestedAmount": {"type": "integer", "minimum": 0},
        "declaredIncome": {"type": "integer", "minimum": 0},
        "documentText": {"type": "string"}
      }
    },
    "flags": {
      "type": "object",
      "required": ["pan_verified"],
      "properties": {
        "pan_verified": {"type": "boolean"},
        "multiple_attempts": {"type": "boolean"}
      }
    }
  }
}`)
