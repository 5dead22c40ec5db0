// Package payload builds the bytes an issuer signs for a lesson completion.
//
// The encoding is the Solidity ABI encoding of (string title, string
// protocolTag, uint256 issuedAtMillis), the same bytes abi.encode produces
// on-chain, and the digest is Keccak-256 of that encoding. Both are pure and
// deterministic so anyone holding a certificate can recompute its hash.
package payload

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// DigestSize is the length of a payload digest in bytes.
const DigestSize = 32

// ErrNegativeTimestamp is returned for timestamps before the unix epoch, which uint256 cannot hold.
var ErrNegativeTimestamp = errors.New("payload: issuedAtMillis must not be negative")

var arguments = abi.Arguments{
	{Name: "lessonTitle", Type: mustType("string")},
	{Name: "protocolTag", Type: mustType("string")},
	{Name: "issuedAt", Type: mustType("uint256")},
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Encode returns the ABI encoding of the completion event.
func Encode(lessonTitle, protocolTag string, issuedAtMillis int64) ([]byte, error) {
	if issuedAtMillis < 0 {
		return nil, ErrNegativeTimestamp
	}
	return arguments.Pack(lessonTitle, protocolTag, big.NewInt(issuedAtMillis))
}

// Digest returns the Keccak-256 digest of an encoded payload.
func Digest(encoded []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(encoded)
	return h.Sum(nil)
}

// Hash is Digest(Encode(...)).
func Hash(lessonTitle, protocolTag string, issuedAtMillis int64) ([]byte, error) {
	encoded, err := Encode(lessonTitle, protocolTag, issuedAtMillis)
	if err != nil {
		return nil, err
	}
	return Digest(encoded), nil
}
