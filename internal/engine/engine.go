// Package engine runs one render project from a scene file to an artifact
// on disk.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/director"
	"github.com/ivlev/svgmotion/internal/encoder"
	"github.com/ivlev/svgmotion/internal/history"
	"github.com/ivlev/svgmotion/internal/notify"
	"github.com/ivlev/svgmotion/internal/system"
)

// DefaultOutputDir receives auto-named artifacts.
const DefaultOutputDir = "output"

// Project renders the scene named by Config.
type Project struct {
	Config config.Config
	Out    io.Writer // progress output, defaults to os.Stdout

	// Options are passed to the director, after the configured rasterizer.
	Options []director.Option
}

// Result describes a finished project run.
type Result struct {
	ScenePath  string
	OutputPath string
	Mode       string
	Frames     int
	Artifact   *encoder.Artifact
	Elapsed    time.Duration
}

// NewProject creates a project for cfg.
func NewProject(cfg config.Config) *Project {
	return &Project{Config: cfg}
}

func (p *Project) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

// Run loads the scene, renders it and writes the artifact. Every run,
// failed or not, is recorded when a history database is configured.
func (p *Project) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	scenePath, err := p.resolveScene()
	if err != nil {
		return nil, err
	}
	scn, err := director.ReadScene(scenePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	out := p.Config.Overrides.Apply(scn.Output)
	mode := ResolveMode(p.Config.Mode, p.Config.OutputPath)

	res := &Result{ScenePath: scenePath, Mode: mode}
	if mode != director.ModeSVG {
		res.Frames = out.FrameCount()
	}

	art, err := p.render(ctx, scn, scenePath, out, mode)
	res.Elapsed = time.Since(start)
	if err == nil {
		res.Artifact = art
		res.OutputPath, err = p.write(art, scenePath)
	}
	p.record(ctx, res, err)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(p.out(), "[+++] Success! Artifact saved: %s\n", res.OutputPath)
	if p.Config.ShowStats {
		p.report(res, out)
	}
	return res, nil
}

func (p *Project) render(ctx context.Context, scn *director.Scene, scenePath string, out config.Output, mode string) (*encoder.Artifact, error) {
	nodes, err := scn.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}
	d, err := director.New(out, p.Options...)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if err := d.AddNode(n); err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(p.out(), "--- [PROJECT: SVGMOTION] ---")
	fmt.Fprintf(p.out(), "[*] Scene: %s | Nodes: %d | Mode: %s\n", filepath.Base(scenePath), len(nodes), mode)
	fmt.Fprintf(p.out(), "[*] Resolution: %dx%d @ %g FPS | Duration: %gs\n", out.Width, out.Height, out.FPS, out.Duration)
	fmt.Fprintln(p.out(), "----------------------------")

	if mode != director.ModeSVG {
		system.CheckFrameMemory(out.Width, out.Height, out.FrameCount())
	}

	obs := director.MultiObserver{notify.LogObserver{W: p.out()}}
	if p.Config.MQTTBroker != "" {
		client, err := notify.Connect(p.Config.MQTTBroker)
		if err != nil {
			log.Printf("[!] Progress publishing disabled: %v", err)
		} else {
			defer notify.Close(client)
			m := notify.NewMQTTObserver(client, p.Config.MQTTTopic)
			fmt.Fprintf(p.out(), "[*] Publishing progress for render %s\n", m.Render)
			obs = append(obs, m)
		}
	}

	art, err := d.Render(ctx, mode, obs)
	if err == nil && mode != director.ModeSVG {
		st := system.SharedPoolStats()
		fmt.Fprintf(p.out(), "[*] Frame buffers: %d allocated, %d reused\n", st.Allocated, st.Reused)
	}
	return art, err
}

func (p *Project) resolveScene() (string, error) {
	path := p.Config.ScenePath
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("scene %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	latest, err := director.FindLatestScene(path)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(p.out(), "[*] Selected scene: %s\n", latest)
	return latest, nil
}

func (p *Project) write(art *encoder.Artifact, scenePath string) (string, error) {
	path := p.Config.OutputPath
	if path == "" {
		path = director.GenerateOutputPath(DefaultOutputDir, scenePath, encoder.ExtensionFor(art.ContentType))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, art.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

func (p *Project) record(ctx context.Context, res *Result, runErr error) {
	if p.Config.HistoryPath == "" {
		return
	}
	store, err := history.Open(p.Config.HistoryPath)
	if err != nil {
		log.Printf("[!] History unavailable: %v", err)
		return
	}
	defer store.Close()

	e := history.Entry{
		Scene:    res.ScenePath,
		Mode:     res.Mode,
		Output:   res.OutputPath,
		Frames:   res.Frames,
		Duration: res.Elapsed,
		Status:   history.StatusOK,
	}
	if res.Artifact != nil {
		e.Bytes = len(res.Artifact.Data)
	}
	if runErr != nil {
		e.Status = history.StatusFailed
		e.Error = runErr.Error()
	}
	// recorded even when ctx was cancelled
	if _, err := store.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Printf("[!] %v", err)
	}
}

func (p *Project) report(res *Result, out config.Output) {
	secs := res.Elapsed.Seconds()
	fps := 0.0
	if secs > 0 {
		fps = float64(res.Frames) / secs
	}
	fmt.Fprintf(p.out(),
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Frames: %d (%dx%d)\n"+
			"Artifact: %d bytes\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, secs, res.Frames, out.Width, out.Height, len(res.Artifact.Data), fps,
	)
}

// ResolveMode picks the render mode: the explicit mode when set, else the
// output file's extension, else GIF.
func ResolveMode(mode, outputPath string) string {
	if m := strings.ToUpper(strings.TrimSpace(mode)); m != "" {
		return m
	}
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".svg":
		return director.ModeSVG
	case ".mp4":
		return director.ModeMP4
	case ".webm":
		return director.ModeWEBM
	}
	return director.ModeGIF
}
