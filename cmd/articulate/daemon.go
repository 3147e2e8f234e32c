package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"articulate/internal/bridge"
	"articulate/internal/logging"
	"articulate/internal/store"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background service owning credentials and the bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(cfg.Daemon.StorePath)
		if err != nil {
			return err
		}
		defer st.Close()

		server := bridge.NewServer(st)
		httpServer := &http.Server{
			Addr:    cfg.Daemon.Addr,
			Handler: server.Router(),
		}

		errCh := make(chan error, 1)
		go func() {
			logging.Infof("bridge listening on %s", cfg.Daemon.Addr)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
