package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"podcats/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve DIRECTORY",
		Short: "Serve the feed, the HTML index and the audio files over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.prepare(cmd, args[0])
			if err != nil {
				return err
			}
			return env.serve(cmd)
		},
	}
}

func (e *environment) serve(cmd *cobra.Command) error {
	listenAddr := e.settings.ListenAddr()
	handler := server.New(e.assembler, e.renderer, e.root, e.logger)
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Printf("graceful shutdown error: %v", err)
		}
	}()

	rootURL := strings.TrimSuffix(e.settings.RootURL(), "/")
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Welcome to the Podcats web server!")
	fmt.Fprintf(out, "\nYour podcast feed is available at:\n\n\t%s/\n", rootURL)
	fmt.Fprintf(out, "\nThe web interface is available at\n\n\t%s/web\n\n", rootURL)

	e.logger.Printf("listening on %s (audio directory: %s)", listenAddr, e.root)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	e.logger.Println("shutdown complete")
	return nil
}
