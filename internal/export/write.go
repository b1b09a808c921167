package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNothingToExport = errors.New("no clips could be resolved")

const (
	DefaultProjectName = "clipforge_export"
	maxProjectName     = 120
)

// WriteEDL renders segments into <dir>/<project>.edl and returns the path.
// dir must already exist.
func WriteEDL(dir, projectName string, segments []Segment, frameRate float64) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}

	resolved := 0
	for _, s := range segments {
		if s.Resolved {
			resolved++
		}
	}
	if resolved == 0 {
		return "", ErrNothingToExport
	}

	name := SanitizeName(projectName, maxProjectName)
	if name == "" {
		name = DefaultProjectName
	}
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	outputPath := filepath.Join(dir, name+".edl")
	if err := os.WriteFile(outputPath, []byte(GenerateEDL(segments, name, frameRate)), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return outputPath, nil
}
