package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"vetlms_backend/internal/config"
	"vetlms_backend/internal/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawnSignature(t *testing.T) string {
	t.Helper()
	s, err := signature.Render([]signature.Stroke{{{X: 1, Y: 1}, {X: 20, Y: 8}}}, 32, 16)
	require.NoError(t, err)
	return s
}

func TestArchiveSignatureMemory(t *testing.T) {
	s := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: "memory"}})

	url, err := s.ArchiveSignature(context.Background(), "employee", 7, "Jamie Rivera")
	require.NoError(t, err)
	assert.Empty(t, url, "typed signatures are not archived")

	url, err = s.ArchiveSignature(context.Background(), "employee", 7, drawnSignature(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "memory://signatures/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	assert.Contains(t, url, "/employee/7-")

	_, err = s.ArchiveSignature(context.Background(), "employee", 7, "data:text/plain;base64,aGVsbG8=")
	assert.True(t, errors.Is(err, signature.ErrNotAnImage))
}

func TestArchiveSignatureLocal(t *testing.T) {
	dir := t.TempDir()
	s := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: dir}})

	url, err := s.ArchiveSignature(context.Background(), "supervisor", 3, drawnSignature(t))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestMediaDurationMinutes(t *testing.T) {
	m := &MediaService{Probe: func(string) (string, error) {
		return `{"format":{"duration":"60.000"}}`, nil
	}}
	minutes, err := m.DurationMinutes("clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, 1, minutes)

	m.Probe = func(string) (string, error) { return `{"format":{}}`, nil }
	_, err = m.DurationMinutes("clip.mp4")
	assert.Error(t, err)

	m.Probe = func(string) (string, error) { return "", errors.New("ffprobe not found") }
	_, err = m.DurationMinutes("clip.mp4")
	assert.Error(t, err)
}
