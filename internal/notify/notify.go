// Package notify reports render progress: to stdout in the usual progress
// line format, and to an MQTT broker for remote monitors.
package notify

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/ivlev/svgmotion/internal/director"
	"github.com/ivlev/svgmotion/internal/encoder"
)

// LogObserver prints progress lines.
type LogObserver struct {
	W io.Writer // defaults to os.Stdout
}

func (l LogObserver) out() io.Writer {
	if l.W == nil {
		return os.Stdout
	}
	return l.W
}

func (l LogObserver) StateChanged(s director.State) {
	switch s {
	case director.Sampling:
		fmt.Fprintln(l.out(), "[*] Sampling frames...")
	case director.Encoding:
		fmt.Fprintln(l.out(), "[*] Encoding...")
	case director.Composing:
		fmt.Fprintln(l.out(), "[*] Composing declarative SVG...")
	}
}

func (l LogObserver) FrameAdded(index, total int, _ image.Image) {
	fmt.Fprintf(l.out(), "[>] Frame %d/%d\n", index+1, total)
}

func (l LogObserver) Finished(a *encoder.Artifact) {
	fmt.Fprintf(l.out(), "[+++] Rendered %d bytes (%s)\n", len(a.Data), a.ContentType)
}
