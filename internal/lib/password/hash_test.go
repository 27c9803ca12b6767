package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, Verify(hash, "correct horse battery staple"))
	assert.False(t, Verify(hash, "wrong password"))
	assert.False(t, Verify("not a bcrypt hash", "anything"))
}

func TestHash_DifferentSalts(t *testing.T) {
	first, err := Hash("secret")
	require.NoError(t, err)
	second, err := Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
