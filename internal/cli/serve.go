package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/app"
	"github.com/chaind/chain-manager/internal/config"
)

// newServeCmd runs the Chain Manager as a foreground daemon: it boots
// the App, optionally exposes /metrics, and blocks until SIGINT/SIGTERM
// trigger a bounded Supervisor shutdown.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chain manager daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.SetupViper(cmd.Root())
			rt, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			a, err := app.InitApp(rt)
			if err != nil {
				return fmt.Errorf("initializing chain manager: %w", err)
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var metricsSrv *http.Server
			if rt.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(a.PromGatherer, promhttp.HandlerOpts{}))
				metricsSrv = &http.Server{Addr: rt.MetricsAddr, Handler: mux}
				go func() {
					a.Log.Info("metrics listener starting", "addr", rt.MetricsAddr)
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.Log.Error("metrics listener failed", "err", err)
					}
				}()
			}

			a.Log.Info("chain manager started", "base_path", rt.BasePath)
			<-ctx.Done()
			a.Log.Info("shutdown signal received, stopping chains")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(rt.KillTimeoutMs)*time.Millisecond)
			defer cancel()
			a.Supervisor.Shutdown(shutdownCtx)

			if metricsSrv != nil {
				_ = metricsSrv.Close()
			}

			a.Log.Info("chain manager stopped")
			return nil
		},
	}

	return cmd
}
