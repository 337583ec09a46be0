package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sealed, err := EncryptString("binance-api-key")
	require.NoError(t, err)
	require.NotEqual(t, "binance-api-key", sealed)

	plain, err := DecryptString(sealed)
	require.NoError(t, err)
	require.Equal(t, "binance-api-key", plain)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := EncryptString("secret")
	require.NoError(t, err)
	b, err := EncryptString("secret")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := DecryptString("not base64 at all!!")
	require.Error(t, err)

	_, err = DecryptString("YWJj")
	require.Error(t, err, "too short to hold a nonce")
}
