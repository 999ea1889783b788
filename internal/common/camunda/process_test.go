package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"export-assistant/internal/common/logger"
	"export-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestProcessStarter_LeadCaptured(t *testing.T) {
	var gotID string
	var gotVars models.FollowUpVariables
	create := func(_ context.Context, processID string, variables interface{}) (int64, error) {
		gotID = processID
		gotVars = variables.(models.FollowUpVariables)
		return 42, nil
	}
	p := newProcessStarter("lead-followup", create, fastRetry, logger.NewTestLogger(t))

	err := p.LeadCaptured(context.Background(), models.Inquiry{
		ID:      "ai-lead-1",
		Kind:    models.KindChatLead,
		Name:    "Ravi",
		Email:   "ravi@example.com",
		Message: "CNC lathe, 2 units",
		Source:  models.SourceChat,
	})
	require.NoError(t, err)
	assert.Equal(t, "lead-followup", gotID)
	assert.Equal(t, "ai-lead-1", gotVars.LeadID)
	assert.Equal(t, "CNC lathe, 2 units", gotVars.Requirement)
	assert.True(t, gotVars.HighIntent)
}

func TestProcessStarter_RetriesTransientFailures(t *testing.T) {
	calls := 0
	create := func(context.Context, string, interface{}) (int64, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("rpc error: code = Unavailable")
		}
		return 7, nil
	}
	p := newProcessStarter("lead-followup", create, fastRetry, logger.NewNoOpLogger())

	require.NoError(t, p.LeadCaptured(context.Background(), models.Inquiry{ID: "x"}))
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("rejected command is not retried", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastRetry, "create-instance", func(context.Context) error {
			calls++
			return errors.New("NOT_FOUND: process not deployed")
		})
		assert.ErrorIs(t, err, ErrCommandRejected)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausted retries report unavailable", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastRetry, "create-instance", func(context.Context) error {
			calls++
			return errors.New("connection refused")
		})
		assert.ErrorIs(t, err, ErrBrokerUnavailable)
		assert.Equal(t, fastRetry.MaxRetries+1, calls)
	})

	t.Run("cancelled context stops backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: time.Second}
		err := ExecuteWithRetry(ctx, slow, "create-instance", func(context.Context) error {
			return errors.New("deadline exceeded")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
