package cryptoutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestAESGCMEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := enc.Encrypt("ya29.access-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefixV1))
	assert.NotContains(t, sealed, "ya29")

	opened, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", opened)
}

func TestAESGCMEncryptor_NonceIsRandom(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)

	a, err := enc.Encrypt("same")
	require.NoError(t, err)
	b, err := enc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAESGCMEncryptor_LegacyPlaintextPassesThrough(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)

	opened, err := enc.Decrypt("raw-refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "raw-refresh-token", opened)
}

func TestAESGCMEncryptor_WrongKeyFails(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)
	sealed, err := enc.Encrypt("secret")
	require.NoError(t, err)

	other, err := NewAESGCMEncryptorFromString("a different secret")
	require.NoError(t, err)
	_, err = other.Decrypt(sealed)
	require.Error(t, err)
}

func TestAESGCMEncryptor_InvalidKey(t *testing.T) {
	_, err := NewAESGCMEncryptor([]byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")

	_, err = NewAESGCMEncryptorFromString("")
	require.Error(t, err)
}

func TestNewAESGCMEncryptorFromString_HexKey(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)
	fromHex, err := NewAESGCMEncryptorFromString(hexKey)
	require.NoError(t, err)

	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = 0xab
	}
	fromRaw, err := NewAESGCMEncryptor(raw)
	require.NoError(t, err)

	sealed, err := fromHex.Encrypt("x")
	require.NoError(t, err)
	opened, err := fromRaw.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "x", opened)
}

func TestPlainEncryptor(t *testing.T) {
	var enc PlainEncryptor
	out, err := enc.Encrypt("token")
	require.NoError(t, err)
	assert.Equal(t, "token", out)

	_, err = enc.Decrypt(sealedPrefixV1 + "AAAA")
	require.Error(t, err)
}

func TestSealOpenPtr(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)

	got, err := SealPtr(enc, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	v := "refresh"
	sealed, err := SealPtr(enc, &v)
	require.NoError(t, err)
	require.NotNil(t, sealed)

	opened, err := OpenPtr(enc, sealed)
	require.NoError(t, err)
	require.NotNil(t, opened)
	assert.Equal(t, "refresh", *opened)
}
