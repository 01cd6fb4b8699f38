package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/pkg/client"
)

// remoteFlags select the learnpath server the client commands talk to
type remoteFlags struct {
	server string
	apiKey string
}

func (f *remoteFlags) client() *client.Client {
	return client.NewClient(f.server, f.apiKey)
}

func newRootCmd() *cobra.Command {
	remote := &remoteFlags{}

	cmd := &cobra.Command{
		Use:          "learnpath",
		Short:        "AI-generated learning paths for hobbies",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&remote.server, "server", envOr("LEARNPATH_URL", "http://localhost:8080"), "learnpath server base URL")
	cmd.PersistentFlags().StringVar(&remote.apiKey, "api-key", os.Getenv("LEARNPATH_API_KEY"), "API key for the learnpath server")

	cmd.AddCommand(
		serveCmd(),
		levelsCmd(remote),
		pathCmd(remote),
		progressCmd(remote),
		contentCmd(remote),
		purgeCmd(remote),
	)
	return cmd
}

// setupLogging installs the JSON slog handler as default
func setupLogging(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
