package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/engine"
	"github.com/ivlev/svgmotion/internal/raster"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Config config.Config
	Loop   config.LoopCount
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts, Loop: config.LoopInfinite}
	cfg := &opts.Config

	cmd := &cobra.Command{
		Use:   "render [scene.yaml|dir]",
		Short: "Render a scene file",
		Long: `Render a scene file to an animated artifact.

When the argument is a directory (default: current directory) the most
recently modified scene file in it is used. The mode is taken from --mode,
else from the output file extension, else GIF.

Example:
  svgmotion render intro.yaml -o out/intro.gif
  svgmotion render scenes/ --mode svg
  svgmotion render intro.yaml --mode mp4 --fps 60 --duration 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.ScenePath = args[0]
			}
			if cmd.Flags().Changed("loop") {
				loop := opts.Loop
				cfg.Overrides.LoopCount = &loop
			}
			cfg.BuildVersion = BuildVersion

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRender(ctx, cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.OutputPath, "output", "o", "", "artifact path (default: output/<scene>_<timestamp>.<ext>)")
	f.StringVarP(&cfg.Mode, "mode", "m", "", "render mode: gif, mp4, webm, svg")
	f.IntVar(&cfg.Overrides.Width, "width", 0, "output width in pixels")
	f.IntVar(&cfg.Overrides.Height, "height", 0, "output height in pixels")
	f.Float64Var(&cfg.Overrides.Duration, "duration", 0, "animation duration in seconds")
	f.Float64Var(&cfg.Overrides.FPS, "fps", 0, "frames per second")
	f.Var(&opts.Loop, "loop", `extra repetitions after the first play, or "infinite"`)
	f.IntVar(&cfg.Overrides.Quality, "quality", 0, "encoder quality 1 (best) .. 30")
	f.IntVar(&cfg.Overrides.Workers, "workers", 0, "encoder workers (default: physical cores)")
	f.StringVar(&cfg.Overrides.Rasterizer, "rasterizer", "", "rasterizer: "+raster.VectorName+" or "+raster.MuPDFName)
	f.IntVar(&cfg.Overrides.PathQuality, "path-quality", 0, "path morph subdivisions")
	f.StringVar(&cfg.MQTTBroker, "mqtt-broker", "", "publish progress to this MQTT broker (e.g. tcp://localhost:1883)")
	f.StringVar(&cfg.MQTTTopic, "mqtt-topic", "", "MQTT progress topic")
	f.StringVar(&cfg.HistoryPath, "history", "", "record the render in this SQLite database")
	f.BoolVar(&cfg.ShowStats, "stats", false, "print a performance report")

	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	p := engine.NewProject(*cfg)
	p.Out = cmd.OutOrStdout()
	_, err := p.Run(ctx)
	return err
}
