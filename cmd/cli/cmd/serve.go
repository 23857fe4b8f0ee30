package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fardiff/internal/service"
	"github.com/fardiff/internal/webui"
)

var (
	// Serve command flags
	dataDir    string
	listenAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated reports over HTTP",
	Long: `Start an HTTP server that lists and serves the HTML reports under a directory.

When run history is enabled in the config, past runs are also available at
/api/runs.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Serve ./reports on localhost:8080
  ` + binName + ` serve

  # Serve another directory on all interfaces
  ` + binName + ` serve -d ./out -a :9090`

	serveCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "./reports", "Directory containing reports")
	serveCmd.Flags().StringVarP(&listenAddr, "addr", "a", "localhost:8080", "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, err := service.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Initialize(cmd.Context()); err != nil {
		return err
	}
	return startServer(cmd.Context(), dataDir, listenAddr, svc)
}

// startServer is shared between analyze --serve and the serve command. It
// blocks until SIGINT or SIGTERM.
func startServer(ctx context.Context, dir, addr string, svc *service.Service) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("data directory not found: %s", dir)
	}

	var opts []webui.Option
	if h := svc.History(); h != nil {
		opts = append(opts, webui.WithHistory(h))
	}
	server := webui.NewServer(dir, addr, logger, opts...)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Info("Serving %s on http://%s (Ctrl+C to stop)", truncateString(dir, 48), addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
