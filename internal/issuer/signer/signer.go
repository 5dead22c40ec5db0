// Package signer holds the issuer's secp256k1 key and the matching verifier.
//
// Signatures follow the personal-message convention: the 32-byte payload
// digest is wrapped with the "\x19Ethereum Signed Message:\n32" prefix,
// hashed with Keccak-256, and signed. The result is 65 bytes r||s||v with
// v in {27, 28}. A signer's identity is its checksummed address.
package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureSize is the length of r||s||v.
	SignatureSize = 65

	recoveryOffset = 27
)

var (
	ErrInvalidKey       = errors.New("signer: invalid private key")
	ErrInvalidSignature = errors.New("signer: malformed signature")
	ErrInvalidDigest    = errors.New("signer: digest must be 32 bytes")
)

// Signer signs payload digests.
type Signer interface {
	Sign(ctx context.Context, digest []byte) ([]byte, error)
	Identity() string
}

// KeySigner signs with a private key held in memory.
type KeySigner struct {
	key      *ecdsa.PrivateKey
	identity string
}

// NewKeySigner parses a hex-encoded secp256k1 private key, with or without 0x.
func NewKeySigner(hexKey string) (*KeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, ErrInvalidKey
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &KeySigner{
		key:      key,
		identity: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

// GenerateKeyHex returns a fresh private key as 0x-prefixed hex.
func GenerateKeyHex() (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(crypto.FromECDSA(key)), nil
}

func (s *KeySigner) Identity() string {
	return s.identity
}

func (s *KeySigner) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}
	sig, err := crypto.Sign(accounts.TextHash(digest), s.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += recoveryOffset
	return sig, nil
}

// Recover returns the address that produced signature over digest.
func Recover(signature, digest []byte) (common.Address, error) {
	if len(signature) != SignatureSize {
		return common.Address{}, ErrInvalidSignature
	}
	if len(digest) != 32 {
		return common.Address{}, ErrInvalidDigest
	}
	sig := make([]byte, SignatureSize)
	copy(sig, signature)
	switch sig[crypto.RecoveryIDOffset] {
	case recoveryOffset, recoveryOffset + 1:
		sig[crypto.RecoveryIDOffset] -= recoveryOffset
	case 0, 1:
	default:
		return common.Address{}, ErrInvalidSignature
	}
	pub, err := crypto.SigToPub(accounts.TextHash(digest), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether signature over digest was produced by identity.
func Verify(signature, digest []byte, identity string) (bool, error) {
	if !common.IsHexAddress(identity) {
		return false, fmt.Errorf("signer: invalid identity %q", identity)
	}
	addr, err := Recover(signature, digest)
	if err != nil {
		return false, err
	}
	return addr == common.HexToAddress(identity), nil
}

// VerifyHex is Verify over 0x-prefixed hex strings as they appear on certificates.
func VerifyHex(signatureHex, digestHex, identity string) (bool, error) {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	digest, err := hexutil.Decode(digestHex)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	return Verify(sig, digest, identity)
}
