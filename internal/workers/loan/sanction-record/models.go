// internal/workers/loan/sanction-record/models.go
package sanctionrecord

import "loan-origination/internal/models"

type Input struct {
	models.SanctionEvent
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"applicationStatus"`
	CreatedAt     string `json:"createdAt"`
}
