package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"petai/internal/infra"
)

var (
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "petai",
	Short:         "Transform pet photos into stylized images",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(stylesCmd, galleryCmd, generateCmd)
}

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func newLogger(cfg *infra.Config) infra.Logger {
	logger := infra.NewLoggerTo(os.Stderr, cfg.AppEnv, cfg.LogJSON)
	if !verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}
	return logger
}
