package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "podcats",
		Short:         "Podcast feed generator and server for a directory of audio files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	ctx.bindFlags(rootCmd)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	rootCmd.AddCommand(newGenerateCommand(ctx, "generate", "Print the RSS feed", formatRSS))
	rootCmd.AddCommand(newGenerateCommand(ctx, "generate_html", "Print the HTML index", formatHTML))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))

	return rootCmd
}
