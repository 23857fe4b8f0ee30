package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fardiff/pkg/config"
	"github.com/fardiff/pkg/telemetry"
	"github.com/fardiff/pkg/utils"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg               *config.Config
	logger            utils.Logger
	shutdownTelemetry telemetry.ShutdownFunc
)

// rootCmd analyzes its positional argument; subcommands cover the rest.
var rootCmd = &cobra.Command{
	Use:   "fardiff [path]",
	Short: "Visualize where the bytes of a native library go",
	Long: `fardiff runs nm and objdump on a shared library and writes a treemap of its
symbols (grouped by namespace or source file) and sections to a single HTML file.

The path may be a .so file, a directory searched for .so files, or a
.zip/.aar/.apk archive whose native libraries are listed for selection.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}

		level := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			level = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(level, os.Stderr)

		shutdownTelemetry, err = telemetry.Init(cmd.Context(), nil, Version)
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTelemetry != nil {
			return shutdownTelemetry(context.Background())
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runAnalyze(cmd, args[0])
	},
}

// Execute runs the root command and exits non-zero with a one-line message
// on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", BinName(), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./fardiff.yaml or ~/.config/fardiff/fardiff.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	addAnalyzeFlags(rootCmd)

	binName := BinName()
	rootCmd.Example = `  # Analyze a library
  ` + binName + ` out/android-release/lib/arm64-v8a/libfilament-jni.so

  # Pick a library from an archive and write the report elsewhere
  ` + binName + ` app-release.aar -o filament.html

  # Choose non-interactively and group by source file
  ` + binName + ` app.apk --select libfilament-jni --grouping source

  # Browse previously generated reports
  ` + binName + ` serve -d ./reports`
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
