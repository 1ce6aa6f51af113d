package config

import (
	"errors"
	"fmt"
)

// Validate checks that every field the submission pipeline depends on is
// usable. The workspace id is deliberately not required here: its absence is
// a per-submission configuration failure, not a startup failure.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return errors.New("backend.timeout_seconds must be a positive integer")
	}

	if len(c.Upload.AllowedKinds) == 0 {
		return errors.New("upload.allowed_kinds must list at least one content kind")
	}
	for _, kind := range c.Upload.AllowedKinds {
		if kind == "" {
			return errors.New("upload.allowed_kinds contains an empty content kind")
		}
	}
	if c.Upload.MaxFileBytes <= 0 {
		return errors.New("upload.max_file_bytes must be positive")
	}

	if c.Progress.TickMs <= 0 {
		return errors.New("progress.tick_ms must be positive")
	}
	if c.Progress.Increment <= 0 {
		return errors.New("progress.increment must be positive")
	}
	if c.Progress.Ceiling <= 0 || c.Progress.Ceiling >= 100 {
		return fmt.Errorf("progress.ceiling (%d) must be between 1 and 99", c.Progress.Ceiling)
	}

	if c.Origin.Path == "" {
		return errors.New("origin.path is required")
	}

	return nil
}
