package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kapu/student-insights-go/internal/app"
	"github.com/kapu/student-insights-go/internal/config"
	"github.com/kapu/student-insights-go/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile  string
	timeout  time.Duration
	jsonOut  bool
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Student performance insights",
	Long: `Loads a table of student performance records and asks a language model
for a strengths, opportunities and challenges summary of selected students.

Run "dashboard serve" for the web dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = util.NewLogger(level, cfg.Logging.File)
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

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of ./.env")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout for one-shot commands")

	studentsCmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of text")
	analyzeCmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildContainer assembles services with the build step bounded separately
// from the command's own work.
func buildContainer(cmd *cobra.Command, opts ...app.Option) (*app.Container, error) {
	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	buildCtx, cancel := context.WithTimeout(baseCtx, 30*time.Second)
	defer cancel()

	container, err := app.Build(buildCtx, cfg, logger, opts...)
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return nil, err
	}
	return container, nil
}
