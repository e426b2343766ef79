package attachments

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestSaveWritesFileWithExtension(t *testing.T) {
	store, dir := newTestStore(t)

	ref, err := store.Save([]byte("payload"), "png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, ref))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestSaveReferencesAreUnique(t *testing.T) {
	store, _ := newTestStore(t)

	first, err := store.Save([]byte("a"), "gif")
	require.NoError(t, err)
	second, err := store.Save([]byte("b"), "gif")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSaveRejectsUnsupportedFormatBeforeWriting(t *testing.T) {
	store, dir := newTestStore(t)

	_, err := store.Save([]byte("payload"), "bmp")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	ref, err := store.Save([]byte("payload"), "jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ref))
	require.NoError(t, store.Delete(ref))
	require.NoError(t, store.Delete("never-existed.png"))
}

func TestOpenResolvesSavedReference(t *testing.T) {
	store, _ := newTestStore(t)

	ref, err := store.Save([]byte("payload"), "jpg")
	require.NoError(t, err)

	file, err := store.Open(ref)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestPathTraversalReferencesRejected(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Open("../secrets.txt")
	assert.ErrorIs(t, err, ErrBadReference)
	assert.ErrorIs(t, store.Delete("../secrets.txt"), ErrBadReference)
	assert.ErrorIs(t, store.Delete(""), ErrBadReference)
}
