package streamcrypt

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Decryptor decrypts a blobvault ciphertext stream. Each chunk is fully
// authenticated before any of its plaintext is served; a tag failure, a
// malformed frame, or a stream that ends before the final marker surfaces
// as an authentication error with no further plaintext emitted.
//
// A Decryptor is exclusively owned by one reader and is not safe for
// concurrent use.
type Decryptor struct {
	r     io.Reader
	aead  cipher.AEAD
	hdr   *header
	aad   []byte
	plain []byte
	off   int
	seq   uint32
	done  bool
	err   error
}

// NewDecryptor reads and validates the stream header from r and derives the
// key from passphrase with the salt and costs recorded in the header. The
// passphrase is not verified until the first chunk is read.
func NewDecryptor(r io.Reader, passphrase string) (*Decryptor, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	h, raw, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(deriveKey(passphrase, h.salt[:], h.params))
	if err != nil {
		return nil, err
	}

	return &Decryptor{
		r:    r,
		aead: aead,
		hdr:  h,
		aad:  raw,
	}, nil
}

// Read serves authenticated plaintext. It returns io.EOF only after the
// final chunk has verified.
func (d *Decryptor) Read(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}

	for d.off == len(d.plain) {
		if d.done {
			return 0, io.EOF
		}
		if err := d.readChunk(); err != nil {
			d.err = err
			return 0, err
		}
	}

	n := copy(p, d.plain[d.off:])
	d.off += n
	return n, nil
}

// readChunk reads, authenticates and buffers the next frame.
func (d *Decryptor) readChunk() error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return fmt.Errorf("streamcrypt: read frame length: %w", err)
	}

	frameLen := binary.BigEndian.Uint32(lenBuf[:])
	final := frameLen&finalBit != 0
	ctLen := int(frameLen &^ finalBit)

	maxFrame := d.hdr.params.ChunkSize + d.aead.Overhead()
	if ctLen < d.aead.Overhead() || ctLen > maxFrame {
		return fmt.Errorf("%w: frame length %d", ErrInvalidFormat, ctLen)
	}

	ct := make([]byte, ctLen)
	if _, err := io.ReadFull(d.r, ct); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return fmt.Errorf("streamcrypt: read frame: %w", err)
	}

	nonce := chunkNonce(d.hdr.noncePrefix, d.seq, final)
	plain, err := d.aead.Open(ct[:0], nonce, ct, d.aad)
	if err != nil {
		return ErrAuthenticationFailed
	}

	// Every non-final chunk carries exactly one full chunk of plaintext;
	// anything else means frames were spliced from another position.
	if !final && len(plain) != d.hdr.params.ChunkSize {
		return fmt.Errorf("%w: short interior chunk", ErrInvalidFormat)
	}

	d.seq++
	d.done = final
	d.plain = plain
	d.off = 0
	return nil
}
