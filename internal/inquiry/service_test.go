package inquiry

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/kvstore"
	"export-assistant/internal/leads"
	"export-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		Name:    "Hans Müller",
		Company: "Müller GmbH",
		Email:   "hans@mueller.de",
		Country: "Germany",
		Message: "We need 500 brass inserts M8.",
	}
}

func newTestService(t *testing.T, collab collaborator.Collaborator, kv kvstore.Store) (*Service, *leads.Store) {
	t.Helper()
	log := logger.NewTestLogger(t)
	store := leads.NewStore(kv, log)
	return NewService(store, collab, log), store
}

func TestSubmit_StoresInquiryWithAcknowledgement(t *testing.T) {
	stub := &collaborator.Stub{
		TextFunc: func(ctx context.Context, prompt string, opts collaborator.TextOptions) (string, error) {
			return "Our export team has received your requirement for brass inserts in Germany.", nil
		},
	}
	svc, store := newTestService(t, stub, kvstore.NewMemory(0))

	receipt, err := svc.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "Our export team has received your requirement for brass inserts in Germany.", receipt.Acknowledgement)
	assert.Equal(t, models.KindContactForm, receipt.Inquiry.Kind)
	assert.Equal(t, models.SourceContactForm, receipt.Inquiry.Source)
	assert.Equal(t, models.StatusPending, receipt.Inquiry.Status)

	prompt := stub.Calls()[0].Prompt
	assert.Contains(t, prompt, "Germany")
	assert.Contains(t, prompt, "500 brass inserts")

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, receipt.Inquiry.ID, list[0].ID)
}

func TestSubmit_AcknowledgementFallback(t *testing.T) {
	svc, store := newTestService(t, collaborator.FailingStub(collaborator.KindQuota), kvstore.NewMemory(0))

	receipt, err := svc.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, FallbackAcknowledgement, receipt.Acknowledgement)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubmit_OversizedStorageDegradesAttachment(t *testing.T) {
	form := validForm()
	form.Attachment = &models.Attachment{
		Name: "drawing.pdf",
		Type: "application/pdf",
		Data: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(make([]byte, 3000)),
	}
	svc, _ := newTestService(t, &collaborator.Stub{}, kvstore.NewMemory(2000))

	receipt, err := svc.Submit(context.Background(), form)
	require.NoError(t, err)
	require.NotNil(t, receipt.Inquiry.Attachment)
	assert.Equal(t, models.TruncatedAttachmentData, receipt.Inquiry.Attachment.Data)
	assert.Equal(t, "drawing.pdf", receipt.Inquiry.Attachment.Name)
}

func TestSubmit_ValidationRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Form)
	}{
		{"missing name", func(f *Form) { f.Name = "  " }},
		{"missing message", func(f *Form) { f.Message = "" }},
		{"bad email", func(f *Form) { f.Email = "hans-at-mueller" }},
		{"bad phone", func(f *Form) { f.Phone = "call me" }},
		{"attachment without data", func(f *Form) { f.Attachment = &models.Attachment{Name: "a.pdf"} }},
		{"attachment over limit", func(f *Form) {
			f.Attachment = &models.Attachment{
				Name: "big.bin",
				Data: "data:application/octet-stream;base64," + strings.Repeat("A", (MaxAttachmentBytes/3+1)*4),
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &collaborator.Stub{}
			svc, store := newTestService(t, stub, kvstore.NewMemory(0))
			form := validForm()
			tt.mutate(&form)

			_, err := svc.Submit(context.Background(), form)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.AsStandard(err).Code)
			assert.Empty(t, stub.Calls())

			list, err := store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestAttachmentSize(t *testing.T) {
	raw := make([]byte, 1001)
	enc := base64.StdEncoding.EncodeToString(raw)
	assert.Equal(t, 1001, attachmentSize("data:image/png;base64,"+enc))
	assert.Equal(t, 1001, attachmentSize(enc))
	assert.Equal(t, 0, attachmentSize(""))
}
