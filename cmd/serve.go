package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/interview-prepper/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve interview sessions over the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	serveCmd.Flags().StringSlice("allowed-origin", nil, "CORS origin allowed to call the API, may be repeated. Default allows all.")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.allowed-origins", serveCmd.Flags().Lookup("allowed-origin"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	a := newApplication(ctx, logger)
	defer a.close()

	logger.Info("starting the interview-prepper api",
		zap.String("version", version),
		zap.String("listen", a.config.Server.Listen),
	)

	srv := server.New(a.manager, server.Options{
		Listen:         a.config.Server.Listen,
		AllowedOrigins: a.config.Server.AllowedOrigins,
		Debug:          viper.GetBool("debug"),
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
