package engine

import (
	"bytes"
	"context"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/director"
	"github.com/ivlev/svgmotion/internal/errs"
	"github.com/ivlev/svgmotion/internal/history"
)

const sceneYAML = `version: "1.0"
output:
  width: 40
  height: 20
  duration: 1
  fps: 4
nodes:
  - selector: rect#box
    attrs:
      width: "10"
      height: "20"
    keyframes:
      - t: 0
        attrs: {x: "0", fill: "red"}
      - t: 1
        attrs: {x: "30", fill: "blue"}
`

func writeScene(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(sceneYAML), 0644))
	return p
}

func TestRunGIF(t *testing.T) {
	dir := t.TempDir()
	scenePath := writeScene(t, dir, "box.yaml")
	var buf bytes.Buffer
	p := &Project{
		Config: config.Config{
			ScenePath:   scenePath,
			OutputPath:  filepath.Join(dir, "out", "box.gif"),
			HistoryPath: filepath.Join(dir, "history.db"),
			ShowStats:   true,
			Overrides:   config.Overrides{Width: 20, Workers: 1},
		},
		Out: &buf,
	}

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, director.ModeGIF, res.Mode)
	assert.Equal(t, 4, res.Frames)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	g, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, g.Image, 4)
	assert.Equal(t, 20, g.Config.Width, "override applied")

	out := buf.String()
	assert.Contains(t, out, "[>] Frame 4/4")
	assert.Contains(t, out, "--- [PERFORMANCE REPORT] ---")
	assert.Contains(t, out, "[*] Frame buffers:")

	store, err := history.Open(p.Config.HistoryPath)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusOK, entries[0].Status)
	assert.Equal(t, len(data), entries[0].Bytes)
}

func TestRunSVGFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "latest.yaml")
	outPath := filepath.Join(dir, "anim.svg")
	p := &Project{
		Config: config.Config{ScenePath: dir, OutputPath: outPath},
		Out:    &bytes.Buffer{},
	}

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, director.ModeSVG, res.Mode)
	assert.Equal(t, "latest.yaml", filepath.Base(res.ScenePath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<animate attributeName="x" values="0;30"`)
}

func TestRunAutoNamesOutput(t *testing.T) {
	dir := t.TempDir()
	scenePath := writeScene(t, dir, "intro.yaml")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	p := &Project{Config: config.Config{ScenePath: scenePath, Mode: "svg"}, Out: &bytes.Buffer{}}
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.OutputPath, filepath.Join(DefaultOutputDir, "intro_")), res.OutputPath)
	assert.Equal(t, ".svg", filepath.Ext(res.OutputPath))
	_, err = os.Stat(filepath.Join(dir, res.OutputPath))
	assert.NoError(t, err)
}

func TestRunFailureIsRecorded(t *testing.T) {
	dir := t.TempDir()
	scenePath := writeScene(t, dir, "box.yaml")
	p := &Project{
		Config: config.Config{
			ScenePath:   scenePath,
			OutputPath:  filepath.Join(dir, "x.gif"),
			Mode:        "PNG-SEQUENCE",
			HistoryPath: filepath.Join(dir, "h.db"),
		},
		Out: &bytes.Buffer{},
	}
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsRenderMode(err))

	store, err := history.Open(p.Config.HistoryPath)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].Error, "PNG-SEQUENCE")
}

func TestRunInvalidOverrides(t *testing.T) {
	dir := t.TempDir()
	p := &Project{
		Config: config.Config{
			ScenePath: writeScene(t, dir, "box.yaml"),
			Overrides: config.Overrides{FPS: 500},
		},
		Out: &bytes.Buffer{},
	}
	_, err := p.Run(context.Background())
	assert.True(t, errs.IsValidation(err))
}

func TestRunMissingScene(t *testing.T) {
	p := &Project{Config: config.Config{ScenePath: filepath.Join(t.TempDir(), "nope.yaml")}, Out: &bytes.Buffer{}}
	_, err := p.Run(context.Background())
	assert.Error(t, err)

	p = &Project{Config: config.Config{ScenePath: t.TempDir()}, Out: &bytes.Buffer{}}
	_, err = p.Run(context.Background())
	assert.Error(t, err)
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		mode, output, want string
	}{
		{"", "", director.ModeGIF},
		{"", "a.SVG", director.ModeSVG},
		{"", "a.mp4", director.ModeMP4},
		{"", "dir/a.webm", director.ModeWEBM},
		{"webm", "a.gif", director.ModeWEBM},
		{" gif ", "", director.ModeGIF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveMode(tt.mode, tt.output), "%q %q", tt.mode, tt.output)
	}
}
