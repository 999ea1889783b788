// Package followup holds what the lead follow-up workers share: parsing the
// process variables and completing jobs.
package followup

import (
	"context"
	"fmt"
	"strings"

	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/validation"
	"export-assistant/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

var variablesSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["leadId", "name", "email"],
	"properties": {
		"leadId": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"email": {"type": "string", "minLength": 1},
		"company": {"type": "string"},
		"country": {"type": "string"},
		"requirement": {"type": "string"},
		"source": {"type": "string"},
		"highIntent": {"type": "boolean"}
	}
}`)

// ParseVariables reads the lead carried by a follow-up job.
func ParseVariables(job entities.Job) (models.FollowUpVariables, error) {
	var vars models.FollowUpVariables

	raw, err := job.GetVariablesAsMap()
	if err != nil {
		return vars, apperrors.NewValidationFailedError(fmt.Sprintf("job variables: %v", err))
	}
	result, err := variablesSchema.Validate(raw)
	if err != nil {
		return vars, apperrors.NewValidationFailedError(err.Error())
	}
	if !result.Valid {
		return vars, apperrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := job.GetVariablesAs(&vars); err != nil {
		return vars, apperrors.NewValidationFailedError(fmt.Sprintf("job variables: %v", err))
	}
	return vars, nil
}

// Complete completes job with variables. A send failure is logged; the
// engine retries the job once its timeout expires.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, variables interface{}, log logger.Logger) error {
	fields := map[string]interface{}{"jobKey": job.GetKey(), "jobType": job.GetType()}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(variables)
	if err != nil {
		log.WithError(err).Error("failed to encode job variables", fields)
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		log.WithError(err).Error("failed to complete job", fields)
		return err
	}
	log.Info("job completed", fields)
	return nil
}

// Code returns the error code used as the failed-jobs metric label.
func Code(err error) string {
	return string(apperrors.AsStandard(err).Code)
}
