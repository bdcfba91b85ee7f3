package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log, err := newLogger(false)
		if err != nil {
			return fmt.Errorf("creating a logger: %w", err)
		}
		defer log.Sync() //nolint:errcheck

		config, err := getConfig()
		if err != nil {
			return err
		}

		p, err := newPipeline(config, log)
		if err != nil {
			return err
		}

		if !viper.GetBool("debug") {
			gin.SetMode(gin.ReleaseMode)
		}

		log.Info("starting the server",
			zap.String("listen", config.Server.Listen),
			zap.Duration("response_delay", config.Server.ResponseDelay),
		)

		if err := server.New(config.Server, p, log).Run(ctx); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}

		log.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringP("listen", "l", ":5000", "address to listen on")
	flags.Duration("response-delay", 0, "pause before every analysis response")
	flags.StringSlice("allowed-origin", []string{"*"}, "origins allowed by CORS")

	mustBind("server.listen", flags.Lookup("listen"))
	mustBind("server.response-delay", flags.Lookup("response-delay"))
	mustBind("server.allowed-origins", flags.Lookup("allowed-origin"))
}
