package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultWorkers returns the number of physical cores, falling back to the
// Go runtime's logical CPU count.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// AvailableMemory returns the bytes of memory available to new allocations,
// or 0 when it cannot be determined.
func AvailableMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("[!] Could not read memory statistics: %v", err)
		return 0
	}
	return vm.Available
}

// FrameMemory estimates the bytes held by frameCount RGBA frames that an
// encoder buffers until it finalizes.
func FrameMemory(width, height, frameCount int) uint64 {
	return uint64(width) * uint64(height) * 4 * uint64(frameCount)
}

// CheckFrameMemory warns when buffering frames would use more than half of
// the available memory. It reports whether the estimate fits.
func CheckFrameMemory(width, height, frameCount int) bool {
	need := FrameMemory(width, height, frameCount)
	avail := AvailableMemory()
	if avail == 0 {
		return true
	}
	if need > avail/2 {
		log.Printf("[!] %d frames of %dx%d need ~%d MiB, only %d MiB available",
			frameCount, width, height, need>>20, avail>>20)
		return false
	}
	return true
}

// FindLatest returns the most recently modified file in dir whose extension
// is one of exts.
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		matches := false
		for _, ext := range exts {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				matches = true
				break
			}
		}
		if !matches {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

// FindLatestScene returns the newest .yaml/.yml scene file in dir.
func FindLatestScene(dir string) (string, error) {
	return FindLatest(dir, ".yaml", ".yml")
}

// FFmpegPath locates the ffmpeg binary.
func FFmpegPath() (string, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return path, nil
}
