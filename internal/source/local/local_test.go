package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestSource_List_SortedJSONKeys(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "song_data/B/A/B/TRBAB.json", "{}")
	writeFile(t, root, "song_data/A/B/C/TRABC.json", "{}")
	writeFile(t, root, "song_data/A/B/C/notes.txt", "ignored")
	writeFile(t, root, "log_data/2018-11-01-events.json", "{}")

	src := New(root, zap.NewNop())

	keys, err := src.List(context.Background(), "song_data/")

	require.NoError(t, err)
	assert.Equal(t, []string{"song_data/A/B/C/TRABC.json", "song_data/B/A/B/TRBAB.json"}, keys)
}

func TestSource_List_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "log_data"), 0o755))

	src := New(root, zap.NewNop())

	keys, err := src.List(context.Background(), "log_data/")

	assert.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSource_List_MissingPrefix(t *testing.T) {
	src := New(t.TempDir(), zap.NewNop())

	_, err := src.List(context.Background(), "song_data/")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list")
}

func TestSource_List_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "log_data/a.json", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(root, zap.NewNop()).List(ctx, "log_data/")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Open(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "log_data/a.json", `{"page":"NextSong"}`)

	src := New(root, zap.NewNop())

	rc, err := src.Open(context.Background(), "log_data/a.json")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"page":"NextSong"}`, string(data))

	_, err = src.Open(context.Background(), "log_data/missing.json")
	assert.Error(t, err)
}
