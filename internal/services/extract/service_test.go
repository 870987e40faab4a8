package extract_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/services/extract"
)

func newService(t *testing.T) *extract.Service {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	return extract.NewService(logger)
}

func TestTextMissingFile(t *testing.T) {
	s := newService(t)
	assert.Empty(t, s.Text(filepath.Join(t.TempDir(), "nope.pdf")))
}

func TestTextCorruptFile(t *testing.T) {
	s := newService(t)

	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0644))

	assert.Empty(t, s.Text(path))
}

func TestTextTruncatedHeader(t *testing.T) {
	s := newService(t)

	// Valid magic bytes but nothing behind them.
	path := filepath.Join(t.TempDir(), "truncated.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n"), 0644))

	assert.Empty(t, s.Text(path))
}

func TestTextEmptyFile(t *testing.T) {
	s := newService(t)

	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	assert.Empty(t, s.Text(path))
}
