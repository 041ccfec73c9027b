package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressDerivationIsDeterministic(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	a1 := priv.PubKey().Address()
	a2 := DeriveAddress(AccountPrefix, priv.PubKey().key)
	require.True(t, a1.Equal(a2))
}

func TestAddressBech32RoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	addr := priv.PubKey().Address()
	decoded, err := DecodeAddress(addr.String())
	require.NoError(t, err)
	require.True(t, addr.Equal(decoded))
}

func TestSignAndVerify(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	msg := []byte("block-header-hash")
	sig := priv.Sign(msg)
	require.True(t, priv.PubKey().Verify(msg, sig))

	sig[0] ^= 0xFF
	require.False(t, priv.PubKey().Verify(msg, sig))
}

func TestVerifySignatureRejectsAddressMismatch(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)
	other, err := GeneratePrivateKey()
	require.NoError(t, err)

	msg := []byte("payload")
	sig := priv.Sign(msg)
	err = VerifySignature(msg, sig, priv.PubKey().Bytes(), other.PubKey().Address())
	require.Error(t, err)

	require.NoError(t, VerifySignature(msg, sig, priv.PubKey().Bytes(), priv.PubKey().Address()))
}
