// internal/workers/loan/offer-generate/models.go
package offergenerate

import "loan-origination/internal/models"

type Input struct {
	SessionID      string `json:"sessionId"`
	DeclaredIncome int64  `json:"declaredIncome"`
	Gender         string `json:"gender"`
}

type Output struct {
	Offers            []models.LoanOffer `json:"offers"`
	CounterOffered    bool               `json:"counterOffered"`
	NoAffordableOffer bool               `json:"noAffordableOffer"`
}
