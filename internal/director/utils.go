package director

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/svgmotion/internal/system"
)

// GenerateOutputPath creates a timestamped artifact filename in dir
func GenerateOutputPath(dir, sceneName, ext string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	base := strings.TrimSuffix(filepath.Base(sceneName), filepath.Ext(sceneName))
	if base == "" || base == "." {
		base = "scene"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, timestamp, ext))
}

// FindLatestScene finds the most recent scene file in dir
func FindLatestScene(dir string) (string, error) {
	path, err := system.FindLatestScene(dir)
	if err != nil {
		return "", fmt.Errorf("failed to find scene: %w", err)
	}
	return path, nil
}
