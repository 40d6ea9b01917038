package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	testCases := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "existing file", path: file, expected: true},
		{name: "missing file", path: filepath.Join(dir, "absent.txt"), expected: false},
		{name: "directory", path: dir, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FileExists(tc.path))
		})
	}
}

func TestWriteFileWithOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.txt")

	written, err := WriteFileWithOverwrite(path, []byte("first"), 0644, false)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteFileWithOverwrite(path, []byte("second"), 0644, false)
	require.NoError(t, err)
	assert.False(t, written)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	written, err = WriteFileWithOverwrite(path, []byte("third"), 0644, true)
	require.NoError(t, err)
	assert.True(t, written)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "third", string(content))
}

func TestWriteYAMLFile(t *testing.T) {
	type report struct {
		RunID    string `yaml:"run_id"`
		Inserted int    `yaml:"inserted"`
	}

	path := filepath.Join(t.TempDir(), "reports", "run.yaml")

	written, err := WriteYAMLFile(report{RunID: "abc", Inserted: 3}, path, false)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteYAMLFile(report{RunID: "def"}, path, false)
	require.NoError(t, err)
	assert.False(t, written)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var got report
	require.NoError(t, yaml.Unmarshal(content, &got))
	assert.Equal(t, report{RunID: "abc", Inserted: 3}, got)
}
