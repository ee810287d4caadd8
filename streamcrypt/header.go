package streamcrypt

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Version is the current stream format version.
	Version = 1

	headerLen = 4 + 1 + 4 + 4 + 1 + 4 + SaltLen + NoncePrefixLen

	// finalBit marks the last frame of a stream, in both the frame length
	// word and the nonce counter.
	finalBit = uint32(1) << 31
)

var magic = [4]byte{'B', 'V', 'L', 'T'}

// header is the plaintext stream preamble. It is written verbatim at the
// start of the stream and bound into every chunk as AAD.
type header struct {
	params      Params
	salt        [SaltLen]byte
	noncePrefix [NoncePrefixLen]byte
}

// marshal encodes the header into its wire form.
func (h *header) marshal() []byte {
	buf := make([]byte, 0, headerLen)
	buf = append(buf, magic[:]...)
	buf = append(buf, Version)
	buf = binary.BigEndian.AppendUint32(buf, h.params.Time)
	buf = binary.BigEndian.AppendUint32(buf, h.params.MemoryKB)
	buf = append(buf, h.params.Parallelism)
	buf = binary.BigEndian.AppendUint32(buf, uint32(h.params.ChunkSize))
	buf = append(buf, h.salt[:]...)
	buf = append(buf, h.noncePrefix[:]...)
	return buf
}

// readHeader consumes and validates a stream header from r, returning the
// parsed header and its raw bytes (needed as AAD).
func readHeader(r io.Reader) (*header, []byte, error) {
	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("%w: short header: %v", ErrInvalidFormat, err)
	}

	if [4]byte(raw[:4]) != magic {
		return nil, nil, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	if raw[4] != Version {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, raw[4])
	}

	h := &header{
		params: Params{
			Time:        binary.BigEndian.Uint32(raw[5:9]),
			MemoryKB:    binary.BigEndian.Uint32(raw[9:13]),
			Parallelism: raw[13],
			ChunkSize:   int(binary.BigEndian.Uint32(raw[14:18])),
		},
	}
	copy(h.salt[:], raw[18:18+SaltLen])
	copy(h.noncePrefix[:], raw[18+SaltLen:])

	// Refuse headers that would drive the KDF or allocations beyond sane
	// bounds; a legitimate stream never carries them.
	if !h.params.valid() || h.params.Time > maxKDFTime || h.params.MemoryKB > maxKDFMemoryKB {
		return nil, nil, fmt.Errorf("%w: unreasonable parameters", ErrInvalidFormat)
	}

	return h, raw, nil
}

// chunkNonce builds the 12-byte GCM nonce for chunk seq. The final chunk
// sets the top counter bit so a truncated or reordered stream cannot verify.
func chunkNonce(prefix [NoncePrefixLen]byte, seq uint32, final bool) []byte {
	nonce := make([]byte, NoncePrefixLen+4)
	copy(nonce, prefix[:])
	ctr := seq
	if final {
		ctr |= finalBit
	}
	binary.BigEndian.PutUint32(nonce[NoncePrefixLen:], ctr)
	return nonce
}
