package notifyexportdesk

import (
	"context"
	"time"
)

// Mailer is satisfied by aws.Mailer.
type Mailer interface {
	Send(ctx context.Context, to, replyTo, subject, body string) (string, error)
}

// Texter is satisfied by aws.Texter.
type Texter interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

// draftVariables picks the draft written by the draft-quotation job.
type draftVariables struct {
	QuotationDraft string `json:"quotationDraft"`
}

type Output struct {
	DeskNotified   bool      `json:"deskNotified"`
	EmailMessageID string    `json:"emailMessageId,omitempty"`
	SMSMessageID   string    `json:"smsMessageId,omitempty"`
	SMSError       string    `json:"smsError,omitempty"`
	NotifiedAt     time.Time `json:"notifiedAt"`
}
