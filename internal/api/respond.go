package api

import (
	"encoding/json"
	"net/http"

	apperrors "loan-origination/internal/common/errors"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error *apperrors.StandardError `json:"error"`
}

// writeError renders err as a StandardError, hiding anything unstructured.
func writeError(w http.ResponseWriter, err error) {
	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		stdErr = apperrors.NewInternalError(err)
		stdErr.Details = ""
	}
	writeJSON(w, apperrors.HTTPStatus(stdErr.Code), errorBody{Error: stdErr})
}
