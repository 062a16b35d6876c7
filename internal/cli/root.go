package cli

import (
	"io"
	"os"

	"chemquest/internal/config"
	"chemquest/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const appName = "chemquest"

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Chemistry survival quiz engine with synthesized audio cues",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewPlayCmd(&configPath))
	cmd.AddCommand(NewCuesCmd())
	return cmd
}

// loadRuntime reads configuration and builds the process logger on w.
func loadRuntime(path string, w io.Writer) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, logging.New(w, appName, cfg.Log.Env, cfg.Log.Level), nil
}
