package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podcats/internal/config"
	"podcats/internal/library"
)

type documentFormat int

const (
	formatRSS documentFormat = iota
	formatHTML
)

func newGenerateCommand(ctx *commandContext, use, short string, format documentFormat) *cobra.Command {
	var output string
	var watch bool

	cmd := &cobra.Command{
		Use:   use + " DIRECTORY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && output == "" {
				return errors.New("--watch requires --output")
			}

			env, err := ctx.prepare(cmd, args[0])
			if err != nil {
				return err
			}

			if output == "" {
				data, err := env.render(format)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer func() {
				if err := out.Close(); err != nil {
					env.logger.Printf("warning: release lock for %s: %v", output, err)
				}
			}()

			if err := env.writeTo(out, format); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return env.watch(cmd.Context(), out, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and regenerate the output when the directory changes")

	return cmd
}

func (e *environment) render(format documentFormat) ([]byte, error) {
	channel, err := e.assembler.Assemble()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case formatHTML:
		err = e.renderer.RenderHTML(&buf, channel)
	default:
		err = e.renderer.RenderRSS(&buf, channel)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *environment) writeTo(out *outputFile, format documentFormat) error {
	data, err := e.render(format)
	if err != nil {
		return err
	}
	if err := out.Write(data); err != nil {
		return err
	}
	e.logger.Printf("wrote %s (%d bytes)", out.Path(), len(data))
	return nil
}

func (e *environment) watch(parent context.Context, out *outputFile, format documentFormat) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := library.NewWatcher(e.root, config.RefreshDebounce(), func() {
		if err := e.writeTo(out, format); err != nil {
			e.logger.Printf("regenerate %s: %v", out.Path(), err)
		}
	}, e.logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", e.root, err)
	}

	e.logger.Printf("watching %s for changes", e.root)
	<-ctx.Done()

	// Close waits for a regeneration in progress, so the caller keeps the
	// output lock until the last write has landed.
	if err := watcher.Close(); err != nil {
		e.logger.Printf("error closing watcher: %v", err)
	}
	return nil
}
