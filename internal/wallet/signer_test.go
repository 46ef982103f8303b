package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestSignerHexRoundTrip(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)

	restored, err := SignerFromHex(signer.PrivateKeyHex())
	assert.NoError(t, err)
	assert.Equal(t, signer.Address, restored.Address)
	assert.Equal(t, signer.PrivateKeyHex(), restored.PrivateKeyHex())
}

func TestSignerFromHexRejectsGarbage(t *testing.T) {
	_, err := SignerFromHex("0xnothex")
	assert.Error(t, err)

	_, err = SignerFromHex("")
	assert.Error(t, err)
}

func TestSignHashRecoversAddress(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)

	digest := crypto.Keccak256([]byte("payload"))
	sig, err := signer.SignHash(digest)
	assert.NoError(t, err)
	assert.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[crypto.RecoveryIDOffset])

	// Undo the on-chain V offset and recover the signing key.
	recoverable := make([]byte, len(sig))
	copy(recoverable, sig)
	recoverable[crypto.RecoveryIDOffset] -= 27

	pub, err := crypto.SigToPub(digest, recoverable)
	assert.NoError(t, err)
	assert.Equal(t, signer.Address, crypto.PubkeyToAddress(*pub))
}

func TestSignHashRejectsBadDigest(t *testing.T) {
	signer, err := NewSigner()
	assert.NoError(t, err)

	_, err = signer.SignHash([]byte("short"))
	assert.Error(t, err)
}
