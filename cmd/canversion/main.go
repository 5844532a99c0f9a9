package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"canversion/internal/config"
)

var (
	// Global flags
	verbose      bool
	globalConfig string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "canversion",
	Short: "canversion - course content generator for Canvas and DokuWiki",
	Long: `canversion assembles a class's weekly schedule, detail tables and
markdown fragments into one course context, renders it through templates
and publishes the result to Canvas, a DokuWiki page tree, local wiki
markdown, or printable documents.

Input lives under <courses-root>/<class-id>/input; generated output goes
to <courses-root>/<class-id>/output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig resolves the global config path and loads the merged
// configuration for one class.
func loadConfig(classID string) (*config.Config, error) {
	path := globalConfig
	if path == "" {
		path = config.GlobalConfigPath()
	}
	return config.Load(classID, path)
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalConfig, "global-config", "", "path to global_config.yaml (default: user_config/global_config.yaml)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(skeletonCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tasksCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
