package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/config"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/store"
	"github.com/suratkita/suratkita/pkg/store/httpapi"
)

// shutdownTimeout bounds graceful shutdown of the API server.
const shutdownTimeout = 15 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document API over the configured store",
		Long: `Serve the document API (GET/POST /documents, GET/PUT/DELETE /documents/{id})
backed by the configured memory or mongo store.

Callers identify themselves with the X-Actor-Role and X-Actor-ID headers;
lifecycle rules are enforced on every write.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if cfg.Store.Backend == config.StoreHTTP {
		return fmt.Errorf("serve needs a memory or mongo store, not %s", cfg.Store.Backend)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	// The server reads the actor of each request from its headers.
	st, err := openStore(ctx, cfg, lifecycle.Actor{})
	if err != nil {
		return err
	}
	defer st.Close()

	svc := store.NewService(st, c.Logger)
	svc.MaxCaption = cfg.Render.MaxCaption

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(svc, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	printSuccess("Serving document API on %s", StyleLink.Render(addr))
	printDetail("Store: %s", cfg.Store.Backend)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		c.Logger.Info("server stopped")
		return nil
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
