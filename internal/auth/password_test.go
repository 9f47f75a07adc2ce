package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashIsSaltedAndVerifies(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		digest, err := h.Hash("Passw0rd!")
		require.NoError(t, err)
		assert.False(t, seen[digest], "digest repeated")
		seen[digest] = true
		assert.True(t, h.Verify("Passw0rd!", digest))
	}
}

func TestHasher_VerifyRejects(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	digest, err := h.Hash("Passw0rd!")
	require.NoError(t, err)

	assert.False(t, h.Verify("wrongpass", digest))
	assert.False(t, h.Verify("Passw0rd!", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify("Passw0rd!", ""))
}

func TestNewHasher_OutOfRangeCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).Cost)
	assert.Equal(t, DefaultCost, NewHasher(bcrypt.MaxCost+1).Cost)
	assert.Equal(t, 12, NewHasher(12).Cost)
}

func TestHasher_LongMultibytePassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	long := strings.Repeat("😀", 20)
	require.Greater(t, len(long), MaxPasswordBytes)

	digest, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Verify(long, digest))

	// Only the first MaxPasswordBytes take part.
	samePrefix := strings.Repeat("😀", 18) + "zz"
	assert.True(t, h.Verify(samePrefix, digest))
	assert.False(t, h.Verify(strings.Repeat("😀", 17), digest))
}
