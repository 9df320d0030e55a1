package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	// saltLen is the number of random bytes per salt, base64-encoded before
	// storage.
	saltLen = 128
	// keySeparator joins salt and password into the HMAC key. Registration
	// and login must format the key byte-identically, so it lives in exactly
	// one place.
	keySeparator = "/"
)

// Hasher derives credential hashes and session tokens from a per-user salt
// and the process-wide secret.
//
// The derivation is deliberately inverted from the textbook HMAC layout: the
// salt+password pair is the HMAC *key* and the secret is the message. The
// output is compatible with every hash already stored, so the layout is part
// of the contract and must not be "fixed".
type Hasher struct {
	secret []byte
}

func NewHasher(secret string) *Hasher {
	return &Hasher{secret: []byte(secret)}
}

// Derive computes hex(HMAC-SHA256(key: salt + "/" + password, msg: secret)).
// Deterministic and order-sensitive: swapping salt and password changes the
// output.
func (h *Hasher) Derive(salt, password string) string {
	mac := hmac.New(sha256.New, []byte(salt+keySeparator+password))
	mac.Write(h.secret)
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateSalt returns 128 bytes of cryptographically secure random data,
// base64-encoded. Fresh per call, never reused across users or logins.
// Randomness failure is unrecoverable, not a request error.
func GenerateSalt() string {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(b)
}
