package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	require.True(t, hasher.Verify("secret1", digest))
	require.False(t, hasher.Verify("secret2", digest))
}

func TestHasher_DigestsAreSalted(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, hasher.Verify("same-password", first))
	require.True(t, hasher.Verify("same-password", second))
}

func TestHasher_MalformedDigest(t *testing.T) {
	t.Parallel()

	hasher, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	require.False(t, hasher.Verify("anything", ""))
	require.False(t, hasher.Verify("anything", "not-a-bcrypt-digest"))
	require.False(t, hasher.Verify("anything", "$2a$garbage"))
}

func TestHasher_VerifiesDigestWithDifferentCost(t *testing.T) {
	t.Parallel()

	old, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	digest, err := old.Hash("secret1")
	require.NoError(t, err)

	// The cost rides inside the digest, so a hasher configured with a new
	// cost still verifies digests written with the old one.
	current, err := NewHasher(bcrypt.MinCost + 2)
	require.NoError(t, err)
	require.True(t, current.Verify("secret1", digest))
}

func TestNewHasher_RejectsCostOutOfRange(t *testing.T) {
	t.Parallel()

	_, err := NewHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)

	_, err = NewHasher(-1)
	require.Error(t, err)
}
