package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xrspace/internal/server"
	"github.com/matzehuels/xrspace/pkg/observability"
	"github.com/matzehuels/xrspace/pkg/observability/prom"
)

const (
	defaultListenAddr = "127.0.0.1:9470"
	shutdownTimeout   = 5 * time.Second
)

// serveCommand creates the serve command for the HTTP inspector.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the space graph over HTTP",
		Long: `Serve the rig's space graph over HTTP.

Endpoints:
  GET  /healthz
  GET  /metrics                   Prometheus metrics
  GET  /graph?format=svg|dot
  GET  /locate?base=local&name=hmd&at=2s
  POST /recenter
  GET  /spaces/{space}/offset
  PUT  /spaces/{space}/offset     {"position": [x, y, z], "yaw_deg": 0}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "listen", "l", defaultListenAddr, "address to listen on")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	reg := prometheus.NewRegistry()
	hooks := prom.NewHooks(reg)
	observability.SetLocateHooks(hooks)
	observability.SetGraphHooks(hooks)
	defer observability.Reset()

	rig, err := c.openRig()
	if err != nil {
		return err
	}
	defer rig.Close()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           server.New(rig, reg, c.Logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	printSuccess("Serving space graph")
	printKeyValue("address", "http://"+ln.Addr().String())
	printNextStep("Try", "curl http://"+ln.Addr().String()+"/locate")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
