package vault

import (
	"fmt"
	"io"

	"github.com/blobvault/blobvault-go/chunkstore"
	"github.com/blobvault/blobvault-go/streamcrypt"
)

// Download opens one of the caller's objects and returns the decrypted
// plaintext stream plus its metadata. Ownership is enforced by the store; a
// wrong passphrase or tampered ciphertext fails on the first read with an
// authentication error, before a single plaintext byte is released.
func (v *Vault) Download(callerID, filename, passphrase string) (io.ReadCloser, *chunkstore.ObjectMeta, error) {
	ciphertext, meta, err := v.Objects.OpenReadStream(callerID, callerID, filename)
	if err != nil {
		return nil, nil, err
	}

	dec, err := streamcrypt.NewDecryptor(ciphertext, passphrase)
	if err != nil {
		_ = ciphertext.Close()
		return nil, nil, fmt.Errorf("vault: open %q: %w", filename, err)
	}

	return &decryptedStream{Reader: dec, closer: ciphertext}, meta, nil
}

// decryptedStream couples the decryptor with the underlying chunk stream so
// closing the download releases both.
type decryptedStream struct {
	io.Reader
	closer io.Closer
}

func (d *decryptedStream) Close() error {
	return d.closer.Close()
}
