package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// FramePool recycles RGBA frame buffers between renders. Buffers are keyed
// by size and always anchored at the origin, which is what raster surfaces
// draw into.
type FramePool struct {
	mu      sync.Mutex
	bySize  map[image.Point]*sync.Pool
	allocs  atomic.Int64
	reused  atomic.Int64
	dropped atomic.Int64
}

// PoolStats counts buffer traffic since the pool was created.
type PoolStats struct {
	Allocated int64 // buffers created because none were free
	Reused    int64 // buffers handed out again
	Dropped   int64 // returns refused as nil, empty or off-origin
}

var frames = NewFramePool()

// NewFramePool creates an empty pool.
func NewFramePool() *FramePool {
	return &FramePool{bySize: make(map[image.Point]*sync.Pool)}
}

// AcquireFrame takes a cleared w x h buffer from the shared pool.
func AcquireFrame(w, h int) *image.RGBA { return frames.Acquire(w, h) }

// ReleaseFrame gives a buffer back to the shared pool.
func ReleaseFrame(img *image.RGBA) { frames.Release(img) }

// SharedPoolStats reports the shared pool's counters.
func SharedPoolStats() PoolStats { return frames.Stats() }

func (p *FramePool) sized(size image.Point) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.bySize[size]
	if !ok {
		sp = &sync.Pool{}
		p.bySize[size] = sp
	}
	return sp
}

// Acquire returns a transparent w x h buffer.
func (p *FramePool) Acquire(w, h int) *image.RGBA {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	if img, ok := p.sized(image.Pt(w, h)).Get().(*image.RGBA); ok {
		p.reused.Add(1)
		clear(img.Pix)
		return img
	}
	p.allocs.Add(1)
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// Release returns img for reuse. Sub-images and empty buffers are not kept.
func (p *FramePool) Release(img *image.RGBA) {
	if img == nil || img.Rect.Empty() || img.Rect.Min != (image.Point{}) ||
		len(img.Pix) != 4*img.Rect.Dx()*img.Rect.Dy() {
		p.dropped.Add(1)
		return
	}
	p.sized(img.Rect.Size()).Put(img)
}

// Stats snapshots the counters.
func (p *FramePool) Stats() PoolStats {
	return PoolStats{
		Allocated: p.allocs.Load(),
		Reused:    p.reused.Load(),
		Dropped:   p.dropped.Load(),
	}
}
