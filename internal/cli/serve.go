package cli

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
	"go.uber.org/zap"

	"github.com/nhle/planner/internal/handler"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task engine over HTTP",
	Long: `Start a JSON API over the same engine the terminal UI drives.
Every mutating endpoint returns the resulting snapshot.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.Close()

		addr := env.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := &http.Server{
			Addr:         addr,
			Handler:      handler.NewRouter(handler.NewTaskHandler(env.engine, env.logger), env.logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, srv, env.logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	fmt.Fprintln(os.Stderr, "server stopped")
	return nil
}
