package fileutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileExists checks if a file exists at the given path
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteFileWithOverwrite writes data to a file, respecting the overwrite flag
// Returns true if the file was written, false if it was skipped
func WriteFileWithOverwrite(filePath string, data []byte, perm os.FileMode, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return false, err
	}

	if err := os.WriteFile(filePath, data, perm); err != nil {
		return false, err
	}

	return true, nil
}

// WriteYAMLFile writes data as YAML to a file, respecting the overwrite flag
// Returns true if the file was written, false if it was skipped
func WriteYAMLFile(data any, filePath string, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		slog.Info("YAML file already exists, skipping", "filename", filePath, "overwrite", overwrite)
		return false, nil
	}

	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("failed to marshal YAML: %w", err)
	}

	slog.Info("Writing YAML file", "filename", filePath, "overwrite", overwrite)
	written, err := WriteFileWithOverwrite(filePath, yamlData, 0644, true)
	if err != nil {
		return false, fmt.Errorf("failed to write YAML file: %w", err)
	}
	return written, nil
}
