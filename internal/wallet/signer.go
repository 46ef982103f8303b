package wallet

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Signer is a secp256k1 keypair with its derived address. A signer is
// immutable once created and belongs to exactly one role (owner or session).
type Signer struct {
	key     *ecdsa.PrivateKey
	Address common.Address
}

// NewSigner generates a fresh keypair.
func NewSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}
	return &Signer{
		key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// SignerFromHex restores a signer from its persisted hex-encoded private key.
func SignerFromHex(privateKeyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}
	return &Signer{
		key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// PrivateKeyHex returns the 0x-prefixed hex encoding of the private key.
// Plaintext by design of the current persistence format; encrypting key
// material at rest is a mandatory hardening item before production use.
func (s *Signer) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(s.key))
}

// SignHash signs a 32-byte digest and returns the 65-byte [R || S || V]
// signature with V in {27, 28}, the form on-chain validators expect.
func (s *Signer) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.Errorf("expected 32-byte digest, got %d bytes", len(hash))
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign digest")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
