// Package vault is the shared business logic layer of blobvault. It composes
// the key vault, the type sniffer, the streaming crypto engine and the chunk
// store behind one facade: authorize, validate, encrypt, persist.
package vault

import (
	"fmt"
	"path/filepath"

	"github.com/blobvault/blobvault-go/chunkstore"
	"github.com/blobvault/blobvault-go/config"
	"github.com/blobvault/blobvault-go/gate"
	"github.com/blobvault/blobvault-go/keyvault"
	"github.com/blobvault/blobvault-go/sniff"
	"github.com/blobvault/blobvault-go/streamcrypt"
)

// Vault owns the stores and gates every operation by caller identity. The
// caller id is an opaque, already-verified value from an external auth
// layer; the vault trusts it and enforces only passphrase and ownership
// checks on top.
type Vault struct {
	Keys    *keyvault.Store
	Objects *chunkstore.Store
	Gate    *gate.Gate
	Sniffer *sniff.Sniffer

	cfg config.Config
}

// New opens a vault rooted at cfg.DataDir, creating the key and object
// databases as needed.
func New(cfg config.Config) (*Vault, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	keys, err := keyvault.Open(filepath.Join(cfg.DataDir, "keys.db"), keyvault.KDFParams{
		Time:        cfg.KDFTime,
		MemoryKB:    cfg.KDFMemoryKB,
		Parallelism: cfg.KDFParallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("vault: open key store: %w", err)
	}

	objects, err := chunkstore.OpenStore(filepath.Join(cfg.DataDir, "objects.db"))
	if err != nil {
		_ = keys.Close()
		return nil, fmt.Errorf("vault: open object store: %w", err)
	}

	return &Vault{
		Keys:    keys,
		Objects: objects,
		Gate:    gate.New(keys),
		Sniffer: sniff.New(cfg.AllowedTypes),
		cfg:     cfg,
	}, nil
}

// Close releases both databases.
func (v *Vault) Close() error {
	keysErr := v.Keys.Close()
	objectsErr := v.Objects.Close()
	if keysErr != nil {
		return fmt.Errorf("vault: close key store: %w", keysErr)
	}
	if objectsErr != nil {
		return fmt.Errorf("vault: close object store: %w", objectsErr)
	}
	return nil
}

// CreateKey registers a new passphrase key for callerID.
func (v *Vault) CreateKey(callerID, name, passphrase, confirm string) (*keyvault.KeyRecord, error) {
	return v.Keys.CreateKey(callerID, name, passphrase, confirm)
}

// ListKeys returns the caller's key records.
func (v *Vault) ListKeys(callerID string) ([]*keyvault.KeyRecord, error) {
	return v.Keys.ListByOwner(callerID)
}

// List returns the caller's committed objects. Passphrase and key material
// never appear in the returned metadata.
func (v *Vault) List(callerID string) ([]*chunkstore.ObjectMeta, error) {
	return v.Objects.ListByOwner(callerID)
}

// Stats summarizes the caller's committed storage.
func (v *Vault) Stats(callerID string) (chunkstore.OwnerStats, error) {
	return v.Objects.Stats(callerID)
}

// Delete removes one of the caller's objects, metadata and chunks together.
func (v *Vault) Delete(callerID, filename string) error {
	return v.Objects.Delete(callerID, callerID, filename)
}

// cryptoParams returns the stream encryption parameters from configuration.
func (v *Vault) cryptoParams() streamcrypt.Params {
	return streamcrypt.Params{
		Time:        v.cfg.KDFTime,
		MemoryKB:    v.cfg.KDFMemoryKB,
		Parallelism: v.cfg.KDFParallelism,
		ChunkSize:   v.cfg.ChunkSize,
	}
}
