package common

import (
	"encoding/hex"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// ParseAddress validates a 0x-prefixed 20-byte hex address.
// All-lowercase and all-uppercase input is accepted as is; mixed case
// must be a valid EIP-55 checksum.
func ParseAddress(s string) (ethcommon.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return ethcommon.Address{}, fmt.Errorf("%w: %q must start with 0x", ErrInvalidAddress, s)
	}
	if !ethcommon.IsHexAddress(s) {
		return ethcommon.Address{}, fmt.Errorf("%w: %q is not 20 hex-encoded bytes", ErrInvalidAddress, s)
	}

	addr := ethcommon.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if addr.Hex()[2:] != body {
			return ethcommon.Address{}, fmt.Errorf("%w: %q has a bad checksum", ErrInvalidAddress, s)
		}
	}
	return addr, nil
}

// ChecksumAddress returns the EIP-55 display form of addr.
func ChecksumAddress(addr ethcommon.Address) string {
	return addr.Hex()
}

// ParseHash validates a 0x-prefixed 32-byte hex transaction hash.
func ParseHash(s string) (ethcommon.Hash, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return ethcommon.Hash{}, fmt.Errorf("%w: %q must start with 0x", ErrInvalidHash, s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil || len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("%w: %q is not 32 hex-encoded bytes", ErrInvalidHash, s)
	}
	return ethcommon.BytesToHash(b), nil
}
