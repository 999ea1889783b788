package syncleadcrm

import (
	"context"

	"export-assistant/internal/common/zoho"
)

// CRM is satisfied by zoho.CRMClient.
type CRM interface {
	SearchContacts(ctx context.Context, email string) ([]zoho.Contact, error)
	CreateContact(ctx context.Context, contact *zoho.Contact) (string, error)
}

type Output struct {
	CRMContactID string `json:"crmContactId,omitempty"`
	// CRMStatus is created, existing or skipped.
	CRMStatus string `json:"crmStatus"`
}

const (
	StatusCreated  = "created"
	StatusExisting = "existing"
	StatusSkipped  = "skipped"
)
