package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fardiff/internal/service"
	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/model"
	"github.com/fardiff/pkg/utils"
	"github.com/fardiff/pkg/writer"
)

var (
	historyBinary string
	historyLimit  int
	historyJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long:  `List past runs from the history database configured under "history:".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.History.Enabled {
			return apperrors.New(apperrors.CodeConfigError, "run history is not enabled in the config")
		}

		svc, err := service.New(cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Initialize(cmd.Context()); err != nil {
			return err
		}
		runs, err := svc.History().List(cmd.Context(), historyBinary, historyLimit)
		if err != nil {
			return err
		}

		if historyJSON {
			return writer.NewPrettyJSONWriter[[]*model.Run]().Write(runs, cmd.OutOrStdout())
		}
		return printRuns(cmd.OutOrStdout(), runs)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyBinary, "binary", "b", "", "Only runs of this library name")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print runs as JSON")
}

func printRuns(w io.Writer, runs []*model.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tBINARY\tSYMBOLS\tSECTIONS\tREPORT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Binary,
			utils.FormatBytes(r.SymbolBytes),
			utils.FormatBytes(r.SectionBytes),
			reportLocation(r),
		)
	}
	return tw.Flush()
}

func reportLocation(r *model.Run) string {
	if r.PublishedURL != "" {
		return r.PublishedURL
	}
	return r.ReportPath
}
