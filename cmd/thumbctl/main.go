package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "thumbctl",
		Short: "Offline tools for the thumbnail pipeline",
		Long: `thumbctl runs the local steps of thumbnail generation without calling the
image model: fitting photos onto a ratio canvas and compiling edit prompts.

Examples:
  thumbctl normalize --ratio 9:16 -o canvas.jpg photo.png
  thumbctl prompt --style minimalist --placement right --ratio 1:1 cat.png
  thumbctl prompt --args '16:9 gaming text="TOP 10"' me.jpg logo.png
  thumbctl styles`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newNormalizeCmd(), newPromptCmd(), newStylesCmd())
	return root
}
