package cmd

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"muninn/internal/apihandlers"
)

var (
	serveAddr string // Listen address
	servePort string // Listen port
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run Muninn as an HTTP API server",
	Long: `Starts an HTTP server exposing the submission pipeline (submit, track,
remove, completion events) via a RESTful API. Allows interaction from UIs
or other tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		router := gin.Default() // Includes logger and recovery middleware

		apiHandler := apihandlers.NewAPIHandler(apihandlers.Deps{
			Store:    appInstance.Store,
			Uploader: appInstance.Uploader,
			Bus:      appInstance.Bus,
			Origin:   appInstance.Origin,
			Config:   appInstance.Config,
		})

		v1 := router.Group("/api/v1")
		{
			submissionGroup := v1.Group("/submissions")
			{
				submissionGroup.POST("", apiHandler.SubmitHandler)
				submissionGroup.GET("", apiHandler.ListJobsHandler)
				submissionGroup.DELETE("/:id", apiHandler.RemoveJobHandler)
			}

			completionGroup := v1.Group("/completions")
			{
				completionGroup.GET("/decision", apiHandler.DecisionHandler)
			}

			v1.GET("/events", apiHandler.EventsHandler)
		}

		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		listenAddr := fmt.Sprintf("%s:%s", serveAddr, servePort)
		log.Infof("Starting Muninn API server on http://%s", listenAddr)

		if err := router.Run(listenAddr); err != nil {
			log.WithError(err).Error("failed to run API server")
			return fmt.Errorf("failed to run API server: %w", err)
		}

		log.Info("Muninn API server stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost", "Address to listen on (e.g., '0.0.0.0' for all interfaces)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
}
