package leads

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/kvstore"
	"export-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMirror struct {
	mu       sync.Mutex
	records  []models.Inquiry
	statuses map[string]models.InquiryStatus
	err      error
}

func (m *recordingMirror) Record(_ context.Context, inq models.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, inq)
	return m.err
}

func (m *recordingMirror) UpdateStatus(_ context.Context, id string, status models.InquiryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statuses == nil {
		m.statuses = map[string]models.InquiryStatus{}
	}
	m.statuses[id] = status
	return m.err
}

type recordingSink struct {
	leads []models.Inquiry
	err   error
}

func (s *recordingSink) LeadCaptured(_ context.Context, inq models.Inquiry) error {
	s.leads = append(s.leads, inq)
	return s.err
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t }
}

// ==========================
// Capture and ordering
// ==========================

func TestStore_CaptureChatLead(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kvstore.NewMemory(0), logger.NewTestLogger(t), WithClock(fixedClock()))

	inq, err := s.CaptureChatLead(ctx, "Ravi Patel", "ravi@example.com", "Two CNC lathes for Kenya")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(inq.ID, "ai-lead-"))
	assert.Equal(t, models.KindChatLead, inq.Kind)
	assert.Equal(t, models.StatusPending, inq.Status)
	assert.Equal(t, models.SourceChat, inq.Source)
	assert.Equal(t, "Two CNC lathes for Kenya", inq.Message)
	assert.Equal(t, fixedClock()(), inq.CreatedAt)
}

func TestStore_NewestFirstRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory(0)
	s := NewStore(kv, logger.NewNoOpLogger())

	first, err := s.CaptureChatLead(ctx, "A", "a@example.com", "first")
	require.NoError(t, err)
	second, err := s.CaptureChatLead(ctx, "B", "b@example.com", "second")
	require.NoError(t, err)

	// A fresh store over the same backend reloads the persisted list.
	reloaded, err := NewStore(kv, logger.NewNoOpLogger()).List(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	assert.Equal(t, second.ID, reloaded[0].ID)
	assert.Equal(t, first.ID, reloaded[1].ID)
	assert.Equal(t, second.Message, reloaded[0].Message)
}

func TestStore_ListEmpty(t *testing.T) {
	list, err := NewStore(kvstore.NewMemory(0), logger.NewNoOpLogger()).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_ConcurrentAppendsKeepEveryRecord(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kvstore.NewMemory(0), logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CaptureChatLead(ctx, "n", "e", "r")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

// ==========================
// Degraded persistence
// ==========================

func TestStore_QuotaDegradesAttachment(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kvstore.NewMemory(1024), logger.NewTestLogger(t))

	inq, err := s.Append(ctx, models.Inquiry{
		Kind:    models.KindContactForm,
		Name:    "Lena",
		Email:   "lena@example.de",
		Message: "Brass inserts, 50k pcs",
		Source:  models.SourceContactForm,
		Attachment: &models.Attachment{
			Name: "drawing.pdf",
			Type: "application/pdf",
			Data: "data:application/pdf;base64," + strings.Repeat("A", 4096),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TruncatedAttachmentData, inq.Attachment.Data)
	assert.Equal(t, "drawing.pdf", inq.Attachment.Name)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.TruncatedAttachmentData, list[0].Attachment.Data)
}

func TestStore_QuotaWithoutAttachmentFails(t *testing.T) {
	s := NewStore(kvstore.NewMemory(16), logger.NewNoOpLogger())

	_, err := s.CaptureChatLead(context.Background(), "A", "a@example.com", "a requirement longer than the quota")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStorageQuotaExceeded, apperrors.AsStandard(err).Code)
}

// ==========================
// Status updates
// ==========================

func TestStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mirror := &recordingMirror{}
	s := NewStore(kvstore.NewMemory(0), logger.NewNoOpLogger(), WithMirror(mirror))

	inq, err := s.CaptureChatLead(ctx, "A", "a@example.com", "req")
	require.NoError(t, err)

	updated, err := s.UpdateStatus(ctx, inq.ID, models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, inq.Message, updated.Message)

	got, err := s.Get(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
	assert.Equal(t, models.StatusResolved, mirror.statuses[inq.ID])
}

func TestStore_UpdateStatusUnknownID(t *testing.T) {
	_, err := NewStore(kvstore.NewMemory(0), logger.NewNoOpLogger()).
		UpdateStatus(context.Background(), "missing", models.StatusResolved)
	assert.Equal(t, apperrors.ErrCodeLeadNotFound, apperrors.AsStandard(err).Code)
}

// ==========================
// Mirror and sink hooks
// ==========================

func TestStore_HooksRunAfterPersistence(t *testing.T) {
	ctx := context.Background()
	mirror := &recordingMirror{err: errors.New("db down")}
	sink := &recordingSink{err: errors.New("broker down")}
	s := NewStore(kvstore.NewMemory(0), logger.NewTestLogger(t), WithMirror(mirror), WithSink(sink))

	inq, err := s.CaptureChatLead(ctx, "A", "a@example.com", "req")
	require.NoError(t, err, "hook failures must not fail the capture")

	require.Len(t, mirror.records, 1)
	assert.Equal(t, inq.ID, mirror.records[0].ID)
	require.Len(t, sink.leads, 1)
	assert.Equal(t, inq.ID, sink.leads[0].ID)
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]models.Inquiry{
		{Status: models.StatusPending, Source: models.SourceChat},
		{Status: models.StatusResolved, Source: models.SourceChat},
		{Status: models.StatusPending, Source: models.SourceContactForm},
	})
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.ByStatus[models.StatusPending])
	assert.Equal(t, 1, sum.ByStatus[models.StatusResolved])
	assert.Equal(t, 2, sum.BySource[models.SourceChat])
}
