// Package gate binds a caller identity and a passphrase to a key record
// before any storage operation is permitted. The caller identity is an
// opaque, already-verified value supplied by an external auth layer.
package gate

import (
	"github.com/blobvault/blobvault-go/keyvault"
)

// AuthorizedContext proves that a caller presented the correct passphrase
// for a key they own. It carries no key material.
type AuthorizedContext struct {
	CallerID string
	KeyID    string
	KeyName  string
}

// Gate authorizes callers against a key vault.
type Gate struct {
	keys *keyvault.Store
}

// New returns a Gate backed by keys.
func New(keys *keyvault.Store) *Gate {
	return &Gate{keys: keys}
}

// Authorize verifies that callerID owns keyID and that passphrase matches.
// Outcomes are distinguishable: an unknown key is not-found, a foreign key is
// forbidden, a wrong passphrase is an authentication failure. Ownership is
// checked before the passphrase so a foreign caller neither spends KDF time
// on someone else's key nor bumps its usage counter.
func (g *Gate) Authorize(callerID, keyID, passphrase string) (*AuthorizedContext, error) {
	if callerID == "" || keyID == "" {
		return nil, ErrMissingIdentity
	}

	rec, err := g.keys.Get(keyID)
	if err != nil {
		return nil, err
	}

	if rec.OwnerID != callerID {
		return nil, ErrNotKeyOwner
	}

	if err := g.keys.VerifyPassphrase(keyID, passphrase); err != nil {
		return nil, err
	}

	return &AuthorizedContext{
		CallerID: callerID,
		KeyID:    keyID,
		KeyName:  rec.Name,
	}, nil
}
