package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	require.NoError(t, err)

	sealed, err := c.Encrypt(`{"access_token":"ya29.secret"}`)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "secret")

	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"access_token":"ya29.secret"}`, opened)
}

func TestCipher_NoncesDiffer(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	require.NoError(t, err)

	a, err := c.Encrypt("same input")
	require.NoError(t, err)
	b, err := c.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipher_WrongKey(t *testing.T) {
	c1, err := NewCipher("key-one")
	require.NoError(t, err)
	c2, err := NewCipher("key-two")
	require.NoError(t, err)

	sealed, err := c1.Encrypt("payload")
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestCipher_BadInput(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("aGk=") // valid base64, too short for a nonce
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewCipher_EmptyPassphrase(t *testing.T) {
	_, err := NewCipher("")
	require.Error(t, err)
}
