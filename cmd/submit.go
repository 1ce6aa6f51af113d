package cmd

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"muninn/internal/clix"
	"muninn/internal/jobstore"
	"muninn/internal/models"
	"muninn/internal/notify"
	"muninn/internal/uploader"
)

var submitText string

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit [files...]",
	Short: "Submit documents or pasted text for analysis",
	Long: `Submits one or more files (and/or a pasted text string) for server-side
analysis, then tracks each item until it settles. If the batch completes
while this session is still the active view, the result is opened directly;
otherwise a notification with the result location is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		view := clix.ParseView(cmd.Flags())
		if view == "" {
			view = "cli-submit"
		}

		var items []uploader.SubmitItem
		for _, path := range args {
			item, err := readSubmitFile(path)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		if strings.TrimSpace(submitText) != "" {
			items = append(items, uploader.SubmitItem{
				Text:        submitText,
				ContentKind: "text/plain",
			})
		}
		if len(items) == 0 {
			return fmt.Errorf("nothing to submit: pass file paths and/or --text")
		}

		// Subscribe before submitting so a fast-settling batch cannot
		// complete unobserved. The poll interval in the wait loop still
		// catches batches that end in failure (no signal fires).
		signal := make(chan struct{}, 1)
		unsubscribe := appInstance.Bus.Subscribe(func() {
			select {
			case signal <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		accepted, rejected := appInstance.Uploader.SubmitBatch(cmd.Context(), view, items)
		for _, rej := range rejected {
			fmt.Printf("  - %s %s: unsupported content kind %q\n",
				color.RedString("REJECTED"), rej.Name, rej.Kind)
		}
		for _, rec := range accepted {
			fmt.Printf("  - %s %s (%s)\n", color.CyanString("QUEUED"), rec.Source.Name, rec.ID)
		}
		if len(accepted) == 0 {
			return fmt.Errorf("no items were accepted")
		}

		dp := notify.NewDecisionPoint(appInstance.Origin, appInstance.Store)

		waitForBatch(appInstance.Store, signal)
		printBatchSummary(appInstance.Store.List())

		decision, err := dp.HandleCompletion(view)
		if err != nil {
			return err
		}
		switch decision.Action {
		case notify.ActionRedirect:
			fmt.Printf("\nOpening analysis %s\n", color.GreenString(decision.ResultID))
		case notify.ActionToast:
			fmt.Printf("\nAnalysis ready: run 'muninn jobs' or open result %s\n", decision.ResultID)
		}
		return nil
	},
}

func waitForBatch(store *jobstore.Store, signal <-chan struct{}) {
	for !store.AllTerminal() {
		select {
		case <-signal:
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func printBatchSummary(records []models.JobRecord) {
	succeeded, failed := 0, 0
	for _, rec := range records {
		switch rec.Status {
		case models.StatusSuccess:
			succeeded++
			fmt.Printf("  - %s %s result=%s\n", color.GreenString("DONE"), rec.Source.Name, *rec.ResultID)
		case models.StatusError:
			failed++
			fmt.Printf("  - %s %s: %s\n", color.RedString("FAILED"), rec.Source.Name, *rec.FailureReason)
		}
	}
	fmt.Printf("\n%d succeeded, %d failed\n", succeeded, failed)
}

// readSubmitFile loads a file into a SubmitItem, deriving the content kind
// from the extension first and sniffing the payload as a fallback.
func readSubmitFile(path string) (uploader.SubmitItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return uploader.SubmitItem{}, fmt.Errorf("read file %q: %w", path, err)
	}
	kind := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if kind == "" {
		kind = http.DetectContentType(data)
	}
	if i := strings.Index(kind, ";"); i >= 0 {
		kind = strings.TrimSpace(kind[:i])
	}
	return uploader.SubmitItem{
		Name:        filepath.Base(path),
		ContentKind: kind,
		Data:        data,
	}, nil
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().String("view", "", "Identifier of the initiating view (defaults to 'cli-submit')")
	submitCmd.Flags().StringVar(&submitText, "text", "", "Pasted text to submit instead of (or alongside) files")
}
