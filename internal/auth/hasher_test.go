package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Deterministic(t *testing.T) {
	h := NewHasher("test-secret")

	first := h.Derive("salt", "password")
	second := h.Derive("salt", "password")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex-encoded SHA-256 digest
}

func TestDerive_SaltPerturbsOutput(t *testing.T) {
	h := NewHasher("test-secret")

	assert.NotEqual(t, h.Derive("salt-one", "password"), h.Derive("salt-two", "password"))
}

func TestDerive_OrderSensitive(t *testing.T) {
	h := NewHasher("test-secret")

	// The key is salt + "/" + password; swapping the two must change the digest.
	assert.NotEqual(t, h.Derive("alpha", "beta"), h.Derive("beta", "alpha"))
}

func TestDerive_SecretPerturbsOutput(t *testing.T) {
	one := NewHasher("secret-one")
	two := NewHasher("secret-two")

	assert.NotEqual(t, one.Derive("salt", "password"), two.Derive("salt", "password"))
}

func TestGenerateSalt_FreshAndWellFormed(t *testing.T) {
	first := GenerateSalt()
	second := GenerateSalt()

	assert.NotEqual(t, first, second)

	raw, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, raw, 128)
}
