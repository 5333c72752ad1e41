package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIDDeterminism(t *testing.T) {
	tests := []struct {
		name  string
		parts [][]byte
	}{
		{
			name:  "single part",
			parts: [][]byte{[]byte("registry-1")},
		},
		{
			name:  "two parts",
			parts: [][]byte{[]byte("registry-1"), []byte("Organization")},
		},
		{
			name:  "three parts with empty middle",
			parts: [][]byte{[]byte("a"), {}, []byte("c")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := DeriveID(tt.parts...)
			id2 := DeriveID(tt.parts...)
			id3 := DeriveID(tt.parts...)

			assert.Equal(t, id1, id2)
			assert.Equal(t, id1, id3)
			assert.False(t, id1.IsZero())
		})
	}
}

func TestDeriveIDSensitivity(t *testing.T) {
	base := DeriveID([]byte("a"), []byte("b"), []byte("c"))

	// Changing any single argument changes the result.
	assert.NotEqual(t, base, DeriveID([]byte("x"), []byte("b"), []byte("c")))
	assert.NotEqual(t, base, DeriveID([]byte("a"), []byte("x"), []byte("c")))
	assert.NotEqual(t, base, DeriveID([]byte("a"), []byte("b"), []byte("x")))

	// Concatenation order is part of the contract.
	assert.NotEqual(t, base, DeriveID([]byte("c"), []byte("b"), []byte("a")))
	assert.NotEqual(t, base, DeriveID([]byte("b"), []byte("a"), []byte("c")))
}

func TestDeriveIDNoCollisionsAcrossCorpus(t *testing.T) {
	reg := Identity("registry")
	names := []string{"Organization", "Persona", "WORKS_AT", "OWNS", "Name", "Founded", ""}

	seen := make(map[ID]string)
	for _, n := range names {
		id := TypeID(reg, n)
		prev, dup := seen[id]
		require.False(t, dup, "collision between %q and %q", n, prev)
		seen[id] = n
	}
}

func TestDerivationHelpers(t *testing.T) {
	reg := Identity("registry")
	typeID := TypeID(reg, "Organization")

	t.Run("type id matches raw derivation", func(t *testing.T) {
		assert.Equal(t, DeriveID([]byte("registry"), []byte("Organization")), typeID)
	})

	t.Run("property id scoped by owner type", func(t *testing.T) {
		p1 := PropertyID(reg, typeID, "Name")
		p2 := PropertyID(reg, TypeID(reg, "Persona"), "Name")
		assert.NotEqual(t, p1, p2)

		// Same (scope, type, name) collides structurally.
		assert.Equal(t, p1, PropertyID(reg, typeID, "Name"))
	})

	t.Run("document id scoped by owner", func(t *testing.T) {
		d1 := DocumentID(Identity("alice"), "https://example.com/a.pdf")
		d2 := DocumentID(Identity("bob"), "https://example.com/a.pdf")
		assert.NotEqual(t, d1, d2)
	})

	t.Run("relation id includes descriptor", func(t *testing.T) {
		target := Identity("node-addr")
		r1 := RelationID(typeID, target, "ceo")
		r2 := RelationID(typeID, target, "cto")
		assert.NotEqual(t, r1, r2)
		assert.Equal(t, r1, RelationID(typeID, target, "ceo"))
	})

	t.Run("node id from address", func(t *testing.T) {
		assert.Equal(t, DeriveID([]byte("addr")), NodeID(Identity("addr")))
	})
}

func TestParseIDRoundTrip(t *testing.T) {
	id := DeriveID([]byte("round"), []byte("trip"))

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseIDInvalid(t *testing.T) {
	_, err := ParseID("zz")
	require.Error(t, err)

	_, err = ParseID("abcd")
	require.Error(t, err, "short ids must be rejected")
}

func TestNewIdentity(t *testing.T) {
	a := New()
	b := New()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b)
}
