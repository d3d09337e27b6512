package main

import (
	"fmt"
	"path"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podcats/internal/feed"
	"podcats/internal/models"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list DIRECTORY",
		Short: "Show the episodes podcats would publish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.prepare(cmd, args[0])
			if err != nil {
				return err
			}

			channel, err := env.assembler.Assemble()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(channel.Episodes) == 0 {
				fmt.Fprintf(out, "No audio files found in %s\n", env.root)
				return nil
			}

			headers := []string{"#", "Date", "Duration", "Size", "Title", "File"}
			aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
			rows := episodeRows(channel.Episodes)
			fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
			return nil
		},
	}
}

func episodeRows(episodes []models.Episode) [][]string {
	rows := make([][]string, 0, len(episodes))
	for i, ep := range episodes {
		duration := "-"
		if ep.DurationSeconds != nil {
			duration = feed.FormatDuration(*ep.DurationSeconds)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			ep.Timestamp.Format("2006-01-02 15:04"),
			duration,
			humanize.Bytes(uint64(ep.SizeBytes)),
			ep.Title,
			path.Join(ep.RelativeDirectory, ep.Filename),
		})
	}
	return rows
}
