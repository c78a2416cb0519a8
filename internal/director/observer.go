package director

import (
	"image"

	"github.com/ivlev/svgmotion/internal/encoder"
)

// State is a step of the render lifecycle.
type State int

const (
	Idle State = iota
	Sampling
	Encoding
	Composing
	Finished
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Encoding:
		return "encoding"
	case Composing:
		return "composing"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Observer receives render events. FrameAdded is called exactly once per
// frame, in order, after the encoder accepted it. Finished is called once
// with the artifact of a successful render.
//
// Callbacks run on the rendering goroutine without the director's lock
// held, so they may call State, LastArtifact, Nodes and Config. A Render
// started from a callback blocks until the current render returns.
type Observer interface {
	StateChanged(s State)
	FrameAdded(index, total int, frame image.Image)
	Finished(a *encoder.Artifact)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StateChanged(State)               {}
func (NopObserver) FrameAdded(int, int, image.Image) {}
func (NopObserver) Finished(*encoder.Artifact)       {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) StateChanged(s State) {
	for _, o := range m {
		o.StateChanged(s)
	}
}

func (m MultiObserver) FrameAdded(index, total int, frame image.Image) {
	for _, o := range m {
		o.FrameAdded(index, total, frame)
	}
}

func (m MultiObserver) Finished(a *encoder.Artifact) {
	for _, o := range m {
		o.Finished(a)
	}
}
