package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	digest, err := Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(digest, "$argon2id$"))
	assert.True(t, Verify(digest, "correct horse battery staple"))
	assert.False(t, Verify(digest, "correct horse battery stapl"))
	assert.False(t, Verify(digest, ""))
}

func TestHashEmbedsFreshSalt(t *testing.T) {
	first, err := Hash("pw123456")
	require.NoError(t, err)
	second, err := Hash("pw123456")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify(first, "pw123456"))
	assert.True(t, Verify(second, "pw123456"))
}

func TestVerifyMalformedDigest(t *testing.T) {
	digests := []string{
		"",
		"not a digest",
		"$argon2id$",
		"$argon2i$v=19$m=65536,t=3,p=4$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=banana$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaGhhc2g",
		"$argon2id$v=19$m=65536,t=3,p=4$c2FsdHNhbHQ$!!!",
	}

	for _, digest := range digests {
		assert.False(t, Verify(digest, "anything"), "digest %q should not verify", digest)
	}
}
