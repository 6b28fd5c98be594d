package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress_Checksummed(t *testing.T) {
	// EIP-55 reference vectors.
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		addr, err := ParseAddress(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, ChecksumAddress(addr))
	}
}

func TestParseAddress_SingleCase(t *testing.T) {
	lower := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	upper := "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"

	a, err := ParseAddress(lower)
	require.NoError(t, err)
	b, err := ParseAddress(upper)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", ChecksumAddress(a))
}

func TestParseAddress_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no prefix", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"short", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeA"},
		{"long", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00"},
		{"not hex", "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"bad checksum", "0x5aaEb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.in)
			require.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestParseHash(t *testing.T) {
	const valid = "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"
	h, err := ParseHash(valid)
	require.NoError(t, err)
	assert.Equal(t, valid, h.Hex())

	for _, in := range []string{"", "88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b", "0x1234", "0xzz"} {
		_, err := ParseHash(in)
		assert.ErrorIs(t, err, ErrInvalidHash, in)
	}
}

func TestNodeError_Is(t *testing.T) {
	err := fmt.Errorf("broadcast: %w", &NodeError{Method: "eth_sendRawTransaction", Code: -32000, Message: "nonce too low"})
	assert.True(t, errors.Is(err, ErrNodeError))
	assert.False(t, errors.Is(err, ErrNetworkUnreachable))

	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, -32000, nodeErr.Code)
	assert.Contains(t, err.Error(), "nonce too low")
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(fmt.Errorf("x: %w", ErrInvalidAmount)))
	assert.True(t, IsValidationError(ErrKeyNotFound))
	assert.True(t, IsValidationError(ErrInvalidHash))
	assert.False(t, IsValidationError(ErrTimeout))
}
