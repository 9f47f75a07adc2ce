package auth

import "golang.org/x/crypto/bcrypt"

// DefaultCost matches the work factor used for existing user rows.
const DefaultCost = 10

// MaxPasswordBytes is as far as bcrypt reads. Longer input is cut to this
// length, the same way the digests of existing rows were produced.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt. Every Hash call draws a
// fresh salt, so hashing the same password twice gives different digests.
type Hasher struct {
	Cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{Cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(clamp(plaintext), h.Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is a
// mismatch, never an error.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), clamp(plaintext)) == nil
}

func clamp(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
