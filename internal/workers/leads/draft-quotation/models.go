package draftquotation

import "time"

// Output is merged into the process variables.
type Output struct {
	QuotationDraft string    `json:"quotationDraft"`
	DraftedAt      time.Time `json:"draftedAt"`
	// Fallback is set when the draft is the static reply.
	Fallback bool `json:"quotationFallback"`
}
