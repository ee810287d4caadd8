package streamcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// Encryptor encrypts a plaintext stream into the self-contained blobvault
// format. It buffers at most one chunk of plaintext; ciphertext frames are
// emitted to the underlying writer as chunks fill. Close seals the final
// frame and must be called for the stream to be decryptable.
//
// An Encryptor is exclusively owned by one writer and is not safe for
// concurrent use.
type Encryptor struct {
	w      io.Writer
	aead   cipher.AEAD
	hdr    *header
	aad    []byte
	buf    []byte
	n      int
	seq    uint32
	frame  []byte
	closed bool
}

// NewEncryptor derives a key from passphrase with fresh random salt and
// nonce material, writes the stream header to w, and returns an encryptor
// wrapping w.
func NewEncryptor(w io.Writer, passphrase string, params Params) (*Encryptor, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if !params.valid() {
		return nil, ErrInvalidParams
	}

	h := &header{params: params}
	if _, err := rand.Read(h.salt[:]); err != nil {
		return nil, fmt.Errorf("streamcrypt: generate salt: %w", err)
	}
	if _, err := rand.Read(h.noncePrefix[:]); err != nil {
		return nil, fmt.Errorf("streamcrypt: generate nonce prefix: %w", err)
	}

	aead, err := newAEAD(deriveKey(passphrase, h.salt[:], params))
	if err != nil {
		return nil, err
	}

	raw := h.marshal()
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("streamcrypt: write header: %w", err)
	}

	return &Encryptor{
		w:     w,
		aead:  aead,
		aad:   raw,
		buf:   make([]byte, params.ChunkSize),
		frame: make([]byte, 0, 4+params.ChunkSize+aead.Overhead()),
		hdr:   h,
	}, nil
}

// Write buffers p, sealing and emitting a frame each time a full chunk
// accumulates.
func (e *Encryptor) Write(p []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}

	written := 0
	for len(p) > 0 {
		n := copy(e.buf[e.n:], p)
		e.n += n
		p = p[n:]
		written += n

		if e.n == len(e.buf) {
			if err := e.flush(false); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Close seals whatever plaintext remains (possibly none) as the final frame.
// Close does not close the underlying writer.
func (e *Encryptor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.flush(true)
}

// flush seals the buffered plaintext as one frame. A non-final flush always
// carries a full chunk; the final flush may be short or empty.
func (e *Encryptor) flush(final bool) error {
	if e.seq&finalBit != 0 {
		return ErrStreamTooLong
	}

	nonce := chunkNonce(e.hdr.noncePrefix, e.seq, final)
	ct := e.aead.Seal(e.frame[4:4], nonce, e.buf[:e.n], e.aad)

	frameLen := uint32(len(ct))
	if final {
		frameLen |= finalBit
	}
	binary.BigEndian.PutUint32(e.frame[:4], frameLen)

	if _, err := e.w.Write(e.frame[:4+len(ct)]); err != nil {
		return fmt.Errorf("streamcrypt: write frame: %w", err)
	}

	e.seq++
	e.n = 0
	return nil
}

// newAEAD builds the AES-256-GCM AEAD for a derived key.
func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("streamcrypt: AES cipher creation failed: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("streamcrypt: GCM creation failed: %w", err)
	}
	return aead, nil
}
