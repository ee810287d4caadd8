package chunkstore

import (
	"bytes"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobvault/blobvault-go/fault"
)

func tempChunkStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "objects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// putObject stages and commits an object from chunks, returning its metadata.
func putObject(t *testing.T, s *Store, owner, filename string, chunks ...[]byte) *ObjectMeta {
	t.Helper()
	h, err := s.Open(owner, filename, "application/pdf", 0, false)
	require.NoError(t, err)
	var size int64
	for _, c := range chunks {
		require.NoError(t, h.Append(c))
		size += int64(len(c))
	}
	meta, err := h.Commit("checksum", size)
	require.NoError(t, err)
	return meta
}

// readObject streams an object's ciphertext back fully.
func readObject(t *testing.T, s *Store, caller, owner, filename string) []byte {
	t.Helper()
	r, _, err := s.OpenReadStream(caller, owner, filename)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

// --- Write lifecycle tests ---

func TestWriteCommitRead(t *testing.T) {
	store := tempChunkStore(t)

	chunks := [][]byte{[]byte("first-chunk"), []byte("second"), []byte("third!")}
	meta := putObject(t, store, "owner-a", "report.pdf", chunks...)

	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, "owner-a", meta.OwnerID)
	assert.Equal(t, "report.pdf", meta.Filename)
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.EqualValues(t, 3, meta.ChunkCount)
	assert.EqualValues(t, 23, meta.PlaintextSize)
	assert.False(t, meta.CreatedAt.IsZero())
	assert.Equal(t, meta.CreatedAt, meta.ModifiedAt)

	got := readObject(t, store, "owner-a", "owner-a", "report.pdf")
	assert.Equal(t, bytes.Join(chunks, nil), got, "chunks concatenate in append order")
}

func TestObjectInvisibleUntilCommit(t *testing.T) {
	store := tempChunkStore(t)

	h, err := store.Open("owner-a", "staged.pdf", "application/pdf", 0, false)
	require.NoError(t, err)
	require.NoError(t, h.Append([]byte("partial")))

	// No torn reads: nothing is listed or readable before commit.
	list, err := store.ListByOwner("owner-a")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, _, err = store.OpenReadStream("owner-a", "owner-a", "staged.pdf")
	assert.ErrorIs(t, err, fault.ErrNotFound)

	_, err = h.Commit("c", 7)
	require.NoError(t, err)

	list, err = store.ListByOwner("owner-a")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOpen_Conflict(t *testing.T) {
	store := tempChunkStore(t)
	putObject(t, store, "owner-a", "taken.pdf", []byte("x"))

	_, err := store.Open("owner-a", "taken.pdf", "application/pdf", 0, false)
	assert.ErrorIs(t, err, ErrObjectExists)
	assert.ErrorIs(t, err, fault.ErrConflict)

	// The same filename is free under a different owner.
	h, err := store.Open("owner-b", "taken.pdf", "application/pdf", 0, false)
	require.NoError(t, err)
	require.NoError(t, h.Abort())
}

func TestOpen_ConcurrentWriteConflict(t *testing.T) {
	store := tempChunkStore(t)

	h1, err := store.Open("owner-a", "racing.pdf", "application/pdf", 0, false)
	require.NoError(t, err)

	_, err = store.Open("owner-a", "racing.pdf", "application/pdf", 0, false)
	assert.ErrorIs(t, err, ErrConcurrentWrite)
	assert.ErrorIs(t, err, fault.ErrConflict)

	// Aborting the first handle frees the slot.
	require.NoError(t, h1.Abort())
	h2, err := store.Open("owner-a", "racing.pdf", "application/pdf", 0, false)
	require.NoError(t, err)
	require.NoError(t, h2.Abort())
}

func TestOpen_MissingFields(t *testing.T) {
	store := tempChunkStore(t)
	_, err := store.Open("", "f.pdf", "application/pdf", 0, false)
	assert.ErrorIs(t, err, fault.ErrValidation)
	_, err = store.Open("o", "", "application/pdf", 0, false)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestOverwrite(t *testing.T) {
	store := tempChunkStore(t)
	first := putObject(t, store, "owner-a", "doc.pdf", []byte("old-content"))

	h, err := store.Open("owner-a", "doc.pdf", "application/pdf", 0, true)
	require.NoError(t, err)
	require.NoError(t, h.Append([]byte("new")))
	second, err := h.Commit("c2", 3)
	require.NoError(t, err)

	// Creation time survives an overwrite; content and id do not.
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []byte("new"), readObject(t, store, "owner-a", "owner-a", "doc.pdf"))

	// The replaced object's chunks are gone.
	stats, err := store.Stats("owner-a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Chunks)
}

func TestAbort_DiscardsChunks(t *testing.T) {
	store := tempChunkStore(t)

	h, err := store.Open("owner-a", "aborted.pdf", "application/pdf", 0, false)
	require.NoError(t, err)
	require.NoError(t, h.Append([]byte("chunk-one")))
	require.NoError(t, h.Append([]byte("chunk-two")))
	require.NoError(t, h.Abort())

	_, _, err = store.OpenReadStream("owner-a", "owner-a", "aborted.pdf")
	assert.ErrorIs(t, err, fault.ErrNotFound)

	// The pair is immediately reusable and the discarded chunks are gone.
	meta := putObject(t, store, "owner-a", "aborted.pdf", []byte("fresh"))
	assert.EqualValues(t, 1, meta.ChunkCount)
	assert.Equal(t, []byte("fresh"), readObject(t, store, "owner-a", "owner-a", "aborted.pdf"))
}

func TestHandle_ClosedAfterCommit(t *testing.T) {
	store := tempChunkStore(t)

	h, err := store.Open("owner-a", "done.pdf", "application/pdf", 0, false)
	require.NoError(t, err)
	require.NoError(t, h.Append([]byte("x")))
	_, err = h.Commit("c", 1)
	require.NoError(t, err)

	assert.ErrorIs(t, h.Append([]byte("late")), ErrHandleClosed)
	_, err = h.Commit("c", 1)
	assert.ErrorIs(t, err, ErrHandleClosed)
	assert.NoError(t, h.Abort(), "abort after close is a no-op")
}

func TestAppend_EmptyChunk(t *testing.T) {
	store := tempChunkStore(t)
	h, err := store.Open("owner-a", "empty.pdf", "application/pdf", 0, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Abort() })

	assert.ErrorIs(t, h.Append(nil), ErrEmptyChunk)
}

// --- Ownership tests ---

func TestOpenReadStream_ForeignCallerForbidden(t *testing.T) {
	store := tempChunkStore(t)
	putObject(t, store, "owner-a", "report.pdf", []byte("secret"))

	// Owner B naming A's namespace is forbidden, distinctly from not-found.
	_, _, err := store.OpenReadStream("owner-b", "owner-a", "report.pdf")
	assert.ErrorIs(t, err, ErrOwnerMismatch)
	assert.ErrorIs(t, err, fault.ErrForbidden)

	// B's own namespace simply has no such object.
	_, _, err = store.OpenReadStream("owner-b", "owner-b", "report.pdf")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestDelete_ForeignCallerForbidden(t *testing.T) {
	store := tempChunkStore(t)
	putObject(t, store, "owner-a", "report.pdf", []byte("secret"))

	err := store.Delete("owner-b", "owner-a", "report.pdf")
	assert.ErrorIs(t, err, fault.ErrForbidden)

	// The object is untouched.
	list, err := store.ListByOwner("owner-a")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListByOwner_Scoped(t *testing.T) {
	store := tempChunkStore(t)
	putObject(t, store, "owner-a", "a1.pdf", []byte("x"))
	putObject(t, store, "owner-a", "a2.pdf", []byte("y"))
	putObject(t, store, "owner-b", "b1.pdf", []byte("z"))

	a, err := store.ListByOwner("owner-a")
	require.NoError(t, err)
	assert.Len(t, a, 2)
	for _, meta := range a {
		assert.Equal(t, "owner-a", meta.OwnerID)
	}

	b, err := store.ListByOwner("owner-b")
	require.NoError(t, err)
	assert.Len(t, b, 1)

	none, err := store.ListByOwner("owner-c")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none, "no objects is an empty list, not an error")
}

func TestListByOwner_UnderConcurrentWrites(t *testing.T) {
	store := tempChunkStore(t)

	var wg sync.WaitGroup
	for _, owner := range []string{"owner-a", "owner-b"} {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(owner string, i int) {
				defer wg.Done()
				name := string(rune('a'+i)) + ".pdf"
				h, err := store.Open(owner, name, "application/pdf", 0, false)
				if err != nil {
					t.Error(err)
					return
				}
				if err := h.Append([]byte(owner + name)); err != nil {
					t.Error(err)
					return
				}
				if _, err := h.Commit("c", 1); err != nil {
					t.Error(err)
				}
			}(owner, i)
		}
	}
	wg.Wait()

	a, err := store.ListByOwner("owner-a")
	require.NoError(t, err)
	assert.Len(t, a, 8)
	for _, meta := range a {
		assert.Equal(t, "owner-a", meta.OwnerID, "listing must never leak a foreign object")
	}
}

// --- Delete tests ---

func TestDelete(t *testing.T) {
	store := tempChunkStore(t)
	putObject(t, store, "owner-a", "gone.pdf", []byte("c1"), []byte("c2"))

	require.NoError(t, store.Delete("owner-a", "owner-a", "gone.pdf"))

	_, _, err := store.OpenReadStream("owner-a", "owner-a", "gone.pdf")
	assert.ErrorIs(t, err, fault.ErrNotFound)

	err = store.Delete("owner-a", "owner-a", "gone.pdf")
	assert.ErrorIs(t, err, fault.ErrNotFound)

	// Metadata and chunks went together.
	stats, err := store.Stats("owner-a")
	require.NoError(t, err)
	assert.Zero(t, stats.Objects)
	assert.Zero(t, stats.Chunks)

	// The pair is free for reuse after deletion completes.
	meta := putObject(t, store, "owner-a", "gone.pdf", []byte("again"))
	assert.Equal(t, []byte("again"), readObject(t, store, "owner-a", "owner-a", "gone.pdf"))
	assert.EqualValues(t, 1, meta.ChunkCount)
}

// --- Stats tests ---

func TestStats(t *testing.T) {
	store := tempChunkStore(t)
	putObject(t, store, "owner-a", "one.pdf", []byte("aaaa"))
	putObject(t, store, "owner-a", "two.pdf", []byte("bb"), []byte("cc"))

	stats, err := store.Stats("owner-a")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Objects)
	assert.EqualValues(t, 3, stats.Chunks)
	assert.EqualValues(t, 8, stats.PlaintextBytes)
}
