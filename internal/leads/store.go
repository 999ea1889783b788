// Package leads persists captured chat leads and contact-form inquiries as
// one newest-first JSON list in the key-value store.
package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/metrics"
	"export-assistant/internal/kvstore"
	"export-assistant/internal/models"

	"github.com/google/uuid"
)

// Mirror receives a copy of every stored record for reporting.
type Mirror interface {
	Record(ctx context.Context, inq models.Inquiry) error
	UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) error
}

// LeadSink is notified after a record has been persisted.
type LeadSink interface {
	LeadCaptured(ctx context.Context, inq models.Inquiry) error
}

// Store serialises read-modify-write cycles within the process only.
// Two processes sharing a backend can still lose an append.
type Store struct {
	kv     kvstore.Store
	mirror Mirror
	sink   LeadSink
	logger logger.Logger
	now    func() time.Time

	mu sync.Mutex
}

type Option func(*Store)

func WithMirror(m Mirror) Option { return func(s *Store) { s.mirror = m } }

func WithSink(sink LeadSink) Option { return func(s *Store) { s.sink = sink } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(kv kvstore.Store, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: log.With(map[string]interface{}{"component": "leads"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CaptureChatLead persists the three answers of a completed capture.
func (s *Store) CaptureChatLead(ctx context.Context, name, email, requirement string) (models.Inquiry, error) {
	return s.Append(ctx, models.Inquiry{
		ID:      "ai-lead-" + uuid.NewString(),
		Kind:    models.KindChatLead,
		Name:    name,
		Email:   email,
		Message: requirement,
		Source:  models.SourceChat,
	})
}

// Append prepends inq to the list. ID, status and timestamp are filled
// when empty. A quota rejection is retried once with attachment data
// replaced by models.TruncatedAttachmentData.
func (s *Store) Append(ctx context.Context, inq models.Inquiry) (models.Inquiry, error) {
	if inq.ID == "" {
		inq.ID = uuid.NewString()
	}
	if inq.Status == "" {
		inq.Status = models.StatusPending
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = s.now()
	}

	s.mu.Lock()
	err := s.prepend(ctx, inq)
	if errors.Is(err, kvstore.ErrQuotaExceeded) && inq.Attachment != nil {
		s.logger.Warn("lead list over quota, storing without attachment data", map[string]interface{}{
			"leadId": inq.ID,
		})
		metrics.LeadWritesDegraded.Inc()
		degraded := *inq.Attachment
		degraded.Data = models.TruncatedAttachmentData
		inq.Attachment = &degraded
		err = s.prepend(ctx, inq)
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, kvstore.ErrQuotaExceeded) {
			return inq, apperrors.NewStorageQuotaExceededError(kvstore.KeyInquiries)
		}
		return inq, apperrors.NewStorageFailedError(kvstore.KeyInquiries, err)
	}

	metrics.LeadsCaptured.WithLabelValues(inq.Source).Inc()
	s.logger.Info("lead stored", map[string]interface{}{"leadId": inq.ID, "kind": string(inq.Kind)})

	if s.mirror != nil {
		if err := s.mirror.Record(ctx, inq); err != nil {
			s.logger.WithError(err).Warn("lead mirror write failed", map[string]interface{}{"leadId": inq.ID})
		}
	}
	if s.sink != nil {
		if err := s.sink.LeadCaptured(ctx, inq); err != nil {
			s.logger.WithError(err).Warn("lead follow-up not started", map[string]interface{}{"leadId": inq.ID})
		}
	}
	return inq, nil
}

func (s *Store) prepend(ctx context.Context, inq models.Inquiry) error {
	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	list = append([]models.Inquiry{inq}, list...)
	return s.save(ctx, list)
}

// List returns every stored record, newest first.
func (s *Store) List(ctx context.Context) ([]models.Inquiry, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, apperrors.NewStorageFailedError(kvstore.KeyInquiries, err)
	}
	return list, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Inquiry, error) {
	list, err := s.List(ctx)
	if err != nil {
		return models.Inquiry{}, err
	}
	for _, inq := range list {
		if inq.ID == id {
			return inq, nil
		}
	}
	return models.Inquiry{}, apperrors.NewLeadNotFoundError(id)
}

// UpdateStatus is the only mutation allowed on a stored record.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) (models.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return models.Inquiry{}, apperrors.NewStorageFailedError(kvstore.KeyInquiries, err)
	}
	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Inquiry{}, apperrors.NewLeadNotFoundError(id)
	}

	list[idx].Status = status
	if err := s.save(ctx, list); err != nil {
		return models.Inquiry{}, apperrors.NewStorageFailedError(kvstore.KeyInquiries, err)
	}

	if s.mirror != nil {
		if err := s.mirror.UpdateStatus(ctx, id, status); err != nil {
			s.logger.WithError(err).Warn("lead mirror status update failed", map[string]interface{}{"leadId": id})
		}
	}
	return list[idx], nil
}

func (s *Store) load(ctx context.Context) ([]models.Inquiry, error) {
	raw, ok, err := s.kv.Get(ctx, kvstore.KeyInquiries)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var list []models.Inquiry
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode lead list: %w", err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []models.Inquiry) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode lead list: %w", err)
	}
	return s.kv.Set(ctx, kvstore.KeyInquiries, string(raw))
}
