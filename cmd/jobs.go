package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"muninn/internal/clix"
	"muninn/internal/models"
)

var jobsServer string

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List submission records from a running Muninn server",
	Long: `Fetches the current job records from a running Muninn API server and
displays them with their processing status and progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFilter, err := clix.ParseStatusFilter(cmd.Flags())
		if err != nil {
			return err
		}

		records, err := fetchJobs(jobsServer)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}

		if statusFilter != "" {
			filtered := records[:0]
			for _, rec := range records {
				if rec.Status == statusFilter {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}

		if len(records) == 0 {
			fmt.Println("No job records found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Name", "Size", "Status", "Progress", "Result / Failure", "Created At"})
		table.SetBorder(true)
		table.SetRowLine(true)

		for _, rec := range records {
			outcome := ""
			if rec.ResultID != nil {
				outcome = *rec.ResultID
			} else if rec.FailureReason != nil {
				outcome = *rec.FailureReason
			}

			progressCell := ""
			if rec.Status == models.StatusUploading {
				progressCell = strconv.Itoa(rec.Progress) + "%"
			}

			table.Append([]string{
				rec.ID.String(),
				rec.Source.Name,
				strconv.FormatInt(rec.Source.Size, 10),
				colorStatus(rec.Status),
				progressCell,
				outcome,
				rec.CreatedAt.Format(time.RFC3339),
			})
		}

		table.Render()
		return nil
	},
}

func colorStatus(status string) string {
	switch status {
	case models.StatusSuccess:
		return color.GreenString(status)
	case models.StatusError:
		return color.RedString(status)
	case models.StatusIdle:
		return status
	default:
		return color.YellowString(status)
	}
}

func fetchJobs(server string) ([]models.JobRecord, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(server + "/api/v1/submissions")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var payload struct {
		Data []models.JobRecord `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Data, nil
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().StringVar(&jobsServer, "server", "http://localhost:8080", "Base URL of the running Muninn server")
	jobsCmd.Flags().String("status", "", "Filter by status (idle, uploading, extracting, analyzing, success, error)")
}
