package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fardiff/internal/locator"
	"github.com/fardiff/internal/pipeline"
	"github.com/fardiff/internal/service"
	"github.com/fardiff/pkg/config"
	"github.com/fardiff/pkg/utils"
)

var (
	// Analyze flags, shared by the root command
	outputFile string
	selection  string
	grouping   string
	sortMode   string
	excludeBSS bool
	title      string
	publish    bool
	serveAfter bool
	serveAddr  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Generate a size treemap for a library, directory or archive",
	Long: `Resolve the path to one native library, run nm and objdump on it and write a
self-contained HTML report with a symbol treemap and a section treemap.

When several libraries are found they are listed with their sizes and one is
picked interactively, or with --select by index or name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addAnalyzeFlags(analyzeCmd)

	binName := BinName()
	analyzeCmd.Example = `  # Analyze a library and open the report
  ` + binName + ` analyze libfilament-jni.so --serve

  # Analyze a library in an archive, selecting it by index
  ` + binName + ` analyze app-release.aar --select 0

  # Sort by size, drop .bss and publish to the configured storage
  ` + binName + ` analyze libfilament-jni.so --sort size --exclude-bss --publish`
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report file (default from config, index.html)")
	cmd.Flags().StringVarP(&selection, "select", "s", "", "Pick a candidate library by index or name instead of prompting")
	cmd.Flags().StringVar(&grouping, "grouping", "", "Symbol grouping: namespace or source")
	cmd.Flags().StringVar(&sortMode, "sort", "", "Child order: insertion, size or name")
	cmd.Flags().BoolVar(&excludeBSS, "exclude-bss", false, "Leave .bss out of the symbol and section trees")
	cmd.Flags().StringVar(&title, "title", "", "Report title (default \"fardiff: <library>\")")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload the report to the configured storage")
	cmd.Flags().BoolVar(&serveAfter, "serve", false, "Serve the report directory after generating")
	cmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "Listen address for --serve")
}

// applyAnalyzeFlags copies explicitly set flags over the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		c.Report.Output = outputFile
	}
	if flags.Changed("title") {
		c.Report.Title = title
	}
	if flags.Changed("grouping") {
		c.Treemap.Grouping = grouping
	}
	if flags.Changed("sort") {
		c.Treemap.Sort = sortMode
	}
	if flags.Changed("exclude-bss") {
		c.Treemap.ExcludeBSS = excludeBSS
	}
	if publish && !c.Storage.Enabled {
		c.Storage.Enabled = true
	}
	return c.Validate()
}

// chooserFor prefers --select and otherwise prompts on the terminal.
func chooserFor(sel string) locator.Chooser {
	if sel != "" {
		return locator.ChooserFor(sel)
	}
	return locator.NewTerminalChooser(os.Stdin, os.Stdout)
}

func runAnalyze(cmd *cobra.Command, path string) error {
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}

	svc, err := service.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	if err := svc.Initialize(ctx); err != nil {
		return err
	}

	analyzer, err := svc.Analyzer(chooserFor(selection), nil)
	if err != nil {
		return err
	}

	res, err := analyzer.Run(ctx, &pipeline.Request{
		Path:    path,
		Output:  cfg.Report.Output,
		Title:   cfg.Report.Title,
		Publish: publish,
	})
	if err != nil {
		return err
	}

	printResult(cmd, res)

	if serveAfter {
		dir, name := filepath.Split(res.Output)
		if dir == "" {
			dir = "."
		}
		logger.Info("Report: http://%s/reports/%s", serveAddr, name)
		return startServer(ctx, dir, serveAddr, svc)
	}
	return nil
}

func printResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Library:  %s\n", res.Binary)
	fmt.Fprintf(out, "Symbols:  %s (%d leaves)\n",
		utils.FormatBytes(res.Report.Symbols.TotalSize()), res.Report.Symbols.Leaves)
	fmt.Fprintf(out, "Sections: %s (%d leaves)\n",
		utils.FormatBytes(res.Report.Sections.TotalSize()), res.Report.Sections.Leaves)
	fmt.Fprintf(out, "Report:   %s\n", res.Output)
	if res.Publish != nil {
		fmt.Fprintf(out, "Published: %s\n", res.Publish.ReportURL)
	}
	if verbose {
		for _, p := range res.Phases {
			fmt.Fprintf(out, "  %-10s %v\n", p.Name, p.Duration)
		}
	}
}
