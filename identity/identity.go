package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Size is the length of a derived ID in bytes.
const Size = sha256.Size

// ID is a deterministic 32-byte object identifier.
// The zero value is not a valid id of any object.
type ID [Size]byte

// String returns the lowercase hex encoding of the id.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the id as a byte slice, for use as a derivation input.
func (id ID) Bytes() []byte {
	return id[:]
}

// IsZero reports whether the id is the all-zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// ParseID decodes a 64-character hex string into an ID.
func ParseID(s string) (ID, error) {
	var id ID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("identity: invalid id %q: %w", s, err)
	}
	if len(raw) != Size {
		return ID{}, fmt.Errorf("identity: id must be %d bytes, got %d", Size, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// Identity is an opaque account identifier: the address of a registry, a
// node instance, or an owner. Identities are compared byte-for-byte and
// participate verbatim in id derivation.
type Identity string

// New mints a fresh random identity.
// Deployments that carry externally-issued addresses construct Identity
// values directly instead.
func New() Identity {
	return Identity(uuid.NewString())
}

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i == ""
}

// Bytes returns the identity as a byte slice, for use as a derivation input.
func (i Identity) Bytes() []byte {
	return []byte(i)
}

// DeriveID computes the deterministic id for the given input parts:
// a SHA-256 digest over their in-order concatenation.
//
// The part boundaries themselves are not encoded; callers are expected to
// use the fixed derivation helpers (TypeID, PropertyID, DocumentID,
// RelationID) so that every party concatenates the same inputs in the same
// order.
func DeriveID(parts ...[]byte) ID {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// TypeID derives the id of a node type or edge type registered under the
// given registry identity. Registering the same name twice therefore
// collides structurally.
func TypeID(registry Identity, name string) ID {
	return DeriveID(registry.Bytes(), []byte(name))
}

// PropertyID derives the id of a property declared on the type with id
// owner, scoped to the given identity (the registry identity for schema
// properties, or a node address for node-local ones).
func PropertyID(scope Identity, owner ID, name string) ID {
	return DeriveID(scope.Bytes(), owner.Bytes(), []byte(name))
}

// NodeID derives the self-record id of a node instance from its address.
func NodeID(addr Identity) ID {
	return DeriveID(addr.Bytes())
}

// DocumentID derives the id of a document attached by the given owner.
func DocumentID(owner Identity, url string) ID {
	return DeriveID(owner.Bytes(), []byte(url))
}

// RelationID derives the id of a relation of the given edge type toward
// the target address. The descriptor disambiguates multiple relations of
// the same type/target pair; it is part of the hash, so relations differing
// only in descriptor coexist under distinct ids.
func RelationID(edgeType ID, target Identity, descriptor string) ID {
	return DeriveID(edgeType.Bytes(), target.Bytes(), []byte(descriptor))
}
