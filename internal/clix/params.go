package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"muninn/internal/models"
)

// ParseStatusFilter reads the --status flag and validates it against the
// known job statuses. An empty value means no filtering.
func ParseStatusFilter(flags *pflag.FlagSet) (string, error) {
	status, _ := flags.GetString("status")
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "", nil
	}
	switch status {
	case models.StatusIdle, models.StatusUploading, models.StatusExtracting,
		models.StatusAnalyzing, models.StatusSuccess, models.StatusError:
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", status)
}

// ParseView reads the --view flag, trimming whitespace.
func ParseView(flags *pflag.FlagSet) string {
	view, _ := flags.GetString("view")
	return strings.TrimSpace(view)
}
