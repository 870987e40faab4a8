package storage_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/storage"
)

func newAttachmentStore(t *testing.T) *storage.AttachmentStore {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	s, err := storage.NewAttachmentStore(t.TempDir(), 1024*1024, logger)
	require.NoError(t, err)
	return s
}

func TestWriteAndExists(t *testing.T) {
	s := newAttachmentStore(t)

	assert.False(t, s.Exists("Smith2024.pdf"))

	require.NoError(t, s.Write("Smith2024.pdf", []byte("%PDF-1.7 body")))
	assert.True(t, s.Exists("Smith2024.pdf"))

	data, err := os.ReadFile(s.Path("Smith2024.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 body"), data)
}

func TestWriteRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	s, err := storage.NewAttachmentStore(t.TempDir(), 4, logger)
	require.NoError(t, err)

	err = s.Write("big.pdf", []byte("too large"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestWriteRejectsPathEscape(t *testing.T) {
	s := newAttachmentStore(t)

	for _, name := range []string{"", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		err := s.Write(name, []byte("x"))
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestRemove(t *testing.T) {
	s := newAttachmentStore(t)

	require.NoError(t, s.Write("Doe2020.pdf", []byte("x")))
	require.NoError(t, s.Remove("Doe2020.pdf"))
	assert.False(t, s.Exists("Doe2020.pdf"))

	// Removing a missing file is not an error
	require.NoError(t, s.Remove("Doe2020.pdf"))
}

func TestWriteOverwrites(t *testing.T) {
	s := newAttachmentStore(t)

	require.NoError(t, s.Write("Lee2021.pdf", []byte("v1")))
	require.NoError(t, s.Write("Lee2021.pdf", []byte("v2")))

	data, err := os.ReadFile(s.Path("Lee2021.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}
