// =============================================================================
// Invoice XML Exporter - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the export web form.
// The server stops gracefully on SIGINT or SIGTERM.
//
// COMMAND USAGE:
//   invoice-xml-export serve [--listen :8080]
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danutsss/invoice-xml-export/internal/exporter"
	"github.com/danutsss/invoice-xml-export/internal/web"
)

// listenAddr overrides server.listen.
var listenAddr string

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 10 * time.Second

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the export web form",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default server.listen)")
}

// runServe serves the web form until interrupted.
func runServe(ctx context.Context) error {
	api, err := newAPIClient(mainConfig)
	if err != nil {
		return err
	}

	addr := listenAddr
	if addr == "" {
		addr = mainConfig.Server.Listen
	}

	handler := web.NewServer(exporter.New(api, mainConfig, logger), mainConfig, logger)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Serving export form")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
