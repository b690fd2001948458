package export

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTranscript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "story")

	path, err := WriteTranscript(dir, "Scene one.\n\nScene two.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TranscriptFilename), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Scene one.\n\nScene two.", string(data))
}

func TestZipDirectory_RelativePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "story.txt"), []byte("transcript"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene_01.png"), []byte("png-bytes"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "audio"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audio", "scene_01.wav"), []byte("wav-bytes"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, ZipDirectory(dir, &buf))

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	entries := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = string(content)
	}

	assert.Equal(t, map[string]string{
		"story.txt":          "transcript",
		"scene_01.png":       "png-bytes",
		"audio/scene_01.wav": "wav-bytes",
	}, entries)
}

func TestZipDirectory_EmptyDir(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ZipDirectory(t.TempDir(), &buf))

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, r.File)
}
