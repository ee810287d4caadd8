package vault

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/blobvault/blobvault-go/chunkstore"
	"github.com/blobvault/blobvault-go/sniff"
	"github.com/blobvault/blobvault-go/streamcrypt"
)

// File is one upload entry. DeclaredType is what the client claims the
// content is; it is untrusted and recorded nowhere — the stored content type
// is always the sniffed one.
type File struct {
	Filename     string
	Content      io.Reader
	DeclaredType string
	Overwrite    bool
}

// sniffLimit caps how many files are type-checked concurrently.
const sniffLimit = 4

// pipelineDepth is the bounded-buffer capacity between the encrypting
// producer and the persisting consumer. A slow store suspends encryption
// instead of buffering the stream.
const pipelineDepth = 4

// Upload stores a batch of files for callerID, encrypted under the
// passphrase of keyID. The whole batch is type-validated before any byte is
// persisted: one disallowed file rejects all of them. Cancelling ctx or any
// mid-stream fault discards the chunks of the in-flight object; a partially
// written object never becomes visible.
func (v *Vault) Upload(ctx context.Context, callerID, keyID, passphrase string, files []File) ([]*chunkstore.ObjectMeta, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, f := range files {
		if f.Filename == "" || f.Content == nil {
			return nil, ErrMissingFile
		}
	}

	if _, err := v.Gate.Authorize(callerID, keyID, passphrase); err != nil {
		return nil, err
	}

	// Validation pass: sniff every entry up front, all-or-nothing. Readers
	// are wrapped so the peeked bytes are replayed during encryption.
	buffered := make([]*bufio.Reader, len(files))
	detected := make([]string, len(files))

	g := errgroup.Group{}
	g.SetLimit(sniffLimit)
	for i, f := range files {
		g.Go(func() error {
			br := bufio.NewReaderSize(f.Content, sniff.SniffLen)
			head, err := br.Peek(sniff.SniffLen)
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("vault: read %q: %w", f.Filename, err)
			}
			mt, err := v.Sniffer.Check(f.Filename, head)
			if err != nil {
				return err
			}
			buffered[i] = br
			detected[i] = mt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metas := make([]*chunkstore.ObjectMeta, 0, len(files))
	for i, f := range files {
		meta, err := v.uploadOne(ctx, callerID, passphrase, f, detected[i], buffered[i])
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// uploadOne encrypts one validated file through a bounded chunk pipeline
// into a write handle, committing checksum and measured size on success and
// aborting on any failure.
func (v *Vault) uploadOne(ctx context.Context, callerID, passphrase string, f File, contentType string, content io.Reader) (*chunkstore.ObjectMeta, error) {
	handle, err := v.Objects.Open(callerID, f.Filename, contentType, 0, f.Overwrite)
	if err != nil {
		return nil, err
	}

	hasher := sha256.New()
	counted := &countingReader{r: io.TeeReader(content, hasher)}

	chunks := make(chan []byte, pipelineDepth)
	g, gctx := errgroup.WithContext(ctx)

	// Producer: encrypt the plaintext stream and slice the ciphertext into
	// store-sized chunks.
	g.Go(func() error {
		defer close(chunks)

		cw := &chunkWriter{ctx: gctx, ch: chunks, size: v.cfg.ChunkSize}
		enc, err := streamcrypt.NewEncryptor(cw, passphrase, v.cryptoParams())
		if err != nil {
			return err
		}
		if _, err := io.Copy(enc, counted); err != nil {
			return fmt.Errorf("vault: encrypt %q: %w", f.Filename, err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("vault: finalize %q: %w", f.Filename, err)
		}
		return cw.flush()
	})

	// Consumer: append chunks in order. Each append is durable before the
	// next is attempted.
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case chunk, ok := <-chunks:
				if !ok {
					return nil
				}
				if err := handle.Append(chunk); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		_ = handle.Abort()
		return nil, err
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	meta, err := handle.Commit(checksum, counted.n)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// chunkWriter accumulates ciphertext and forwards fixed-size chunks over a
// bounded channel, suspending when the consumer is behind.
type chunkWriter struct {
	ctx  context.Context
	ch   chan<- []byte
	size int
	buf  []byte
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for len(w.buf) >= w.size {
		chunk := make([]byte, w.size)
		copy(chunk, w.buf[:w.size])
		if err := w.send(chunk); err != nil {
			return 0, err
		}
		w.buf = append(w.buf[:0], w.buf[w.size:]...)
	}
	return len(p), nil
}

// flush forwards the final short chunk, if any.
func (w *chunkWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	chunk := make([]byte, len(w.buf))
	copy(chunk, w.buf)
	w.buf = w.buf[:0]
	return w.send(chunk)
}

func (w *chunkWriter) send(chunk []byte) error {
	select {
	case <-w.ctx.Done():
		return w.ctx.Err()
	case w.ch <- chunk:
		return nil
	}
}

// countingReader counts plaintext bytes as they stream through.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
