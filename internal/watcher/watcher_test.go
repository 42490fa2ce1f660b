package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(root, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Start(ctx) }()
	t.Cleanup(func() { _ = w.Stop() })

	// Let the recursive watch registration settle.
	time.Sleep(100 * time.Millisecond)
	return w
}

func waitForBatch(t *testing.T, w *Watcher) []string {
	t.Helper()
	select {
	case batch := <-w.Changes():
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func TestWatcherReportsMarkdownChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "faq"), 0o755))

	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "faq", "budget.md"), []byte("補助說明"), 0o644))

	batch := waitForBatch(t, w)
	assert.Contains(t, batch, "faq/budget.md")
}

func TestWatcherDebouncesBurst(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	path := filepath.Join(root, "note.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("版本"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	batch := waitForBatch(t, w)
	assert.Equal(t, []string{"note.md"}, batch)
}

func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.md"), []byte("內容"), 0o644))

	batch := waitForBatch(t, w)
	assert.Equal(t, []string{"doc.md"}, batch)
}

func TestWatcherIgnoresHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".sbirkb"), 0o755))

	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, ".sbirkb", "state.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.md"), []byte("內容"), 0o644))

	batch := waitForBatch(t, w)
	assert.Equal(t, []string{"doc.md"}, batch)
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	dir := filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "proposal.md"), []byte("範本"), 0o644))

	batch := waitForBatch(t, w)
	assert.Contains(t, batch, "templates/proposal.md")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), 0, nil)
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, open := <-w.Changes()
	assert.False(t, open)
}
