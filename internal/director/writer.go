package director

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/svgmotion/internal/config"
)

// WriteScene writes a scene to a YAML file
func WriteScene(s *Scene, path string) error {
	if s.Version == "" {
		s.Version = SceneVersion
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScene reads a scene from a YAML file. Output fields missing from the
// file keep their defaults.
func ReadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// ParseScene decodes scene YAML.
func ParseScene(data []byte) (*Scene, error) {
	s := &Scene{Output: config.DefaultOutput()}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
