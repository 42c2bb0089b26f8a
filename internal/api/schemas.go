package api

import "loan-origination/internal/common/validation"

var chatRequestSchema = validation.MustCompileJSON(`{
  "type": "object",
  "required": ["message"],
  "additionalProperties": false,
  "properties": {
    "sessionId": {"type": "string", "maxLength": 128, "pattern": "^[A-Za-z0-9_.:-]*$"},
    "message":   {"type": "string", "minLength": 1, "maxLength": 2000}
  }
}`)

var resetRequestSchema = validation.MustCompileJSON(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "sessionId": {"type": "string", "maxLength": 128, "pattern": "^[A-Za-z0-9_.:-]*$"}
  }
}`)

// sessionIDSchema checks ids that arrive outside a JSON body.
var sessionIDSchema = validation.MustCompileJSON(`{
  "type": "string", "minLength": 1, "maxLength": 128, "pattern": "^[A-Za-z0-9_.:-]+$"
}`)
