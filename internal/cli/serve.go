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

	"github.com/ivlev/svgmotion/internal/engine"
	"github.com/ivlev/svgmotion/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Dir  string
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview rendered artifacts in a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", engine.DefaultOutputDir, "directory of artifacts")
	cmd.Flags().StringVar(&opts.Addr, "addr", ":3000", "listen address")

	return cmd
}

func serve(ctx context.Context, cmd *cobra.Command, opts *ServeOptions) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           server.New(opts.Dir, opts.Verbose),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintf(cmd.OutOrStdout(), "[*] Serving %s on %s\n", opts.Dir, opts.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
