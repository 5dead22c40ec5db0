package signer

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entangledu/internal/issuer/payload"
)

// Well-known development key; its address is fixed.
const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func newTestSigner(t *testing.T) *KeySigner {
	t.Helper()
	s, err := NewKeySigner(devKey)
	require.NoError(t, err)
	return s
}

func testDigest(t *testing.T) []byte {
	t.Helper()
	d, err := payload.Hash("Holographic Principle", "ENTANGLEDU_V1", 1700000000000)
	require.NoError(t, err)
	return d
}

func TestNewKeySigner(t *testing.T) {
	t.Run("identity is the checksummed address", func(t *testing.T) {
		assert.Equal(t, devAddress, newTestSigner(t).Identity())
	})

	t.Run("accepts keys without 0x", func(t *testing.T) {
		s, err := NewKeySigner(devKey[2:])
		require.NoError(t, err)
		assert.Equal(t, devAddress, s.Identity())
	})

	for _, bad := range []string{"", "0x", "not-hex", "0x1234"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := NewKeySigner(bad)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestSign(t *testing.T) {
	s := newTestSigner(t)
	digest := testDigest(t)

	sig, err := s.Sign(context.Background(), digest)
	require.NoError(t, err)
	require.Len(t, sig, SignatureSize)
	assert.Contains(t, []byte{27, 28}, sig[64])

	t.Run("recovers to signer identity", func(t *testing.T) {
		ok, err := Verify(sig, digest, s.Identity())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("deterministic for the same digest", func(t *testing.T) {
		again, err := s.Sign(context.Background(), digest)
		require.NoError(t, err)
		assert.Equal(t, sig, again)
	})

	t.Run("rejects short digests", func(t *testing.T) {
		_, err := s.Sign(context.Background(), digest[:31])
		assert.ErrorIs(t, err, ErrInvalidDigest)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Sign(ctx, digest)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestVerify(t *testing.T) {
	s := newTestSigner(t)
	digest := testDigest(t)
	sig, err := s.Sign(context.Background(), digest)
	require.NoError(t, err)

	t.Run("other identity does not verify", func(t *testing.T) {
		otherKey, err := GenerateKeyHex()
		require.NoError(t, err)
		other, err := NewKeySigner(otherKey)
		require.NoError(t, err)

		ok, err := Verify(sig, digest, other.Identity())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered digest does not verify", func(t *testing.T) {
		tampered := append([]byte(nil), digest...)
		tampered[0] ^= 0xff
		ok, err := Verify(sig, tampered, s.Identity())
		if err == nil {
			assert.False(t, ok)
		}
	})

	t.Run("identity comparison ignores case", func(t *testing.T) {
		ok, err := Verify(sig, digest, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("bad recovery byte", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[64] = 5
		_, err := Verify(bad, digest, s.Identity())
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("invalid identity", func(t *testing.T) {
		_, err := Verify(sig, digest, "anonymous")
		assert.Error(t, err)
	})
}

func TestVerifyHex(t *testing.T) {
	s := newTestSigner(t)
	digest := testDigest(t)
	sig, err := s.Sign(context.Background(), digest)
	require.NoError(t, err)

	ok, err := VerifyHex(hexutil.Encode(sig), hexutil.Encode(digest), s.Identity())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = VerifyHex("zz", hexutil.Encode(digest), s.Identity())
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
