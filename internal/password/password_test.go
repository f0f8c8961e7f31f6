package password_test

import (
	"testing"

	"task-service/internal/password"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHash_VerifyRoundTrip(t *testing.T) {
	hash, err := password.Hash("secret1")
	require.NoError(t, err)

	require.True(t, password.Verify("secret1", hash))
	require.False(t, password.Verify("wrong", hash))
}

func TestHash_IsSaltedWithFixedCost(t *testing.T) {
	first, err := password.Hash("secret1")
	require.NoError(t, err)
	second, err := password.Hash("secret1")
	require.NoError(t, err)

	require.NotEqual(t, first, second)

	cost, err := bcrypt.Cost([]byte(first))
	require.NoError(t, err)
	require.Equal(t, password.Cost, cost)
}

func TestVerify_MalformedHash(t *testing.T) {
	require.False(t, password.Verify("secret1", "not-a-bcrypt-hash"))
	require.False(t, password.Verify("secret1", ""))
}
