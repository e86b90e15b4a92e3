// Package validation classifies submitted evidence in the background.
package validation

import (
	"context"
	"time"

	"github.com/phillip/civic-go/models"
)

// Verdict is a validator's opinion of one evidence record.
type Verdict struct {
	IsVerified      bool    `json:"isVerified"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Notes           string  `json:"notes"`
	Method          string  `json:"-"`
}

type Validator interface {
	Validate(ctx context.Context, e *models.CampaignEvidence) (*Verdict, error)
}

// Status maps a verdict to the evidence status it produces.
func (v Verdict) Status() models.EvidenceStatus {
	if v.IsVerified {
		return models.EvidenceAccepted
	}
	return models.EvidenceUnderReview
}

func verdictToVerification(v Verdict) models.Verification {
	method := v.Method
	if method == "" {
		method = "ai"
	}
	return models.Verification{
		IsVerified:      v.IsVerified,
		Method:          method,
		Notes:           v.Notes,
		ConfidenceScore: v.ConfidenceScore,
		Date:            time.Now(),
	}
}
