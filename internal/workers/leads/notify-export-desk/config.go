package notifyexportdesk

import (
	"fmt"
	"time"

	"export-assistant/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration

	EmailEnabled bool
	DeskEmail    string
	SMSEnabled   bool
	DeskPhone    string
}

// ConfigFromApp combines the worker section with the AWS integration.
func ConfigFromApp(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	aws := cfg.Integrations.AWS
	return &Config{
		Enabled:       wc.Enabled,
		MaxJobsActive: wc.MaxJobsActive,
		Timeout:       config.GetDuration(wc.Timeout),
		EmailEnabled:  aws.SES.Enabled,
		DeskEmail:     aws.SES.DeskEmail,
		SMSEnabled:    aws.SNS.Enabled,
		DeskPhone:     aws.SNS.DeskPhone,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.EmailEnabled && c.DeskEmail == "" {
		return fmt.Errorf("desk_email is required when email is enabled")
	}
	if c.SMSEnabled && c.DeskPhone == "" {
		return fmt.Errorf("desk_phone is required when sms is enabled")
	}
	return nil
}
