// Package cli implements the svgmotion command line.
package cli

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// BuildVersion is stamped at link time.
var BuildVersion = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "svgmotion",
		Short: "Keyframe animation for SVG scenes",
		Long: `svgmotion renders keyframed SVG scenes as animated GIF, MP4, WebM
or a declarative SVG document with SMIL animations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			if opts.Verbose {
				log.SetFlags(log.Ltime | log.Lmicroseconds)
			} else {
				log.SetFlags(0)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
