package camunda

import (
	"context"
	"fmt"

	"export-assistant/internal/common/logger"
	"export-assistant/internal/models"
)

type createInstanceFunc func(ctx context.Context, processID string, variables interface{}) (int64, error)

// ProcessStarter starts one follow-up process instance per captured lead.
type ProcessStarter struct {
	processID string
	create    createInstanceFunc
	retry     RetryConfig
	logger    logger.Logger
}

func NewProcessStarter(c *Client, processID string, log logger.Logger) *ProcessStarter {
	create := func(ctx context.Context, id string, variables interface{}) (int64, error) {
		cmd, err := c.client.NewCreateInstanceCommand().
			BPMNProcessId(id).
			LatestVersion().
			VariablesFromObject(variables)
		if err != nil {
			return 0, err
		}
		resp, err := cmd.Send(ctx)
		if err != nil {
			return 0, err
		}
		return resp.GetProcessInstanceKey(), nil
	}
	return newProcessStarter(processID, create, DefaultRetryConfig, log)
}

func newProcessStarter(processID string, create createInstanceFunc, retry RetryConfig, log logger.Logger) *ProcessStarter {
	return &ProcessStarter{
		processID: processID,
		create:    create,
		retry:     retry,
		logger:    log.With(map[string]interface{}{"processId": processID}),
	}
}

// LeadCaptured starts the follow-up process with the inquiry as variables.
func (p *ProcessStarter) LeadCaptured(ctx context.Context, inq models.Inquiry) error {
	vars := models.FollowUpVariables{
		LeadID:      inq.ID,
		Name:        inq.Name,
		Email:       inq.Email,
		Company:     inq.Company,
		Country:     inq.Country,
		Requirement: inq.Message,
		Source:      inq.Source,
		HighIntent:  inq.Kind == models.KindChatLead,
	}

	var instanceKey int64
	err := ExecuteWithRetry(ctx, p.retry, "create-instance", func(ctx context.Context) error {
		key, err := p.create(ctx, p.processID, vars)
		instanceKey = key
		return err
	})
	if err != nil {
		return fmt.Errorf("start follow-up for %s: %w", inq.ID, err)
	}

	p.logger.Info("follow-up process started", map[string]interface{}{
		"leadId":             inq.ID,
		"processInstanceKey": instanceKey,
	})
	return nil
}
