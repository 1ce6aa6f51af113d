package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"muninn/internal/app"
	"muninn/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "muninn",
	Short: "Muninn CLI App",
	Long:  `Muninn submits source documents for server-side analysis and tracks each submission until its results are ready.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		// Store the app instance in the command's context.
		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			appInstance.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance stored by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check backend connectivity and other diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return err
		}

		if err := appInstance.Config.Validate(); err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		fmt.Println("Configuration: OK")

		if _, err := appInstance.Origin.GetOrigin(); err != nil {
			return fmt.Errorf("origin store check failed: %w", err)
		}
		fmt.Println("Origin store: OK")

		if appInstance.Config.Workspace.ID == "" {
			fmt.Println("Workspace: NOT SET (submissions will fail until workspace.id is configured)")
		} else {
			fmt.Printf("Workspace: %s\n", appInstance.Config.Workspace.ID)
		}

		if err := appInstance.Gateway.Ping(ctx); err != nil {
			return fmt.Errorf("backend check failed: %w", err)
		}
		fmt.Println("Backend: OK")

		return nil
	},
}
