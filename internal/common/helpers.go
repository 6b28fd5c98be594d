package common

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

const (
	EtherDecimals = 18 // 1 ETH = 10^18 wei
	GweiDecimals  = 9  // 1 gwei = 10^9 wei
)

// WeiToEther converts wei to an ETH string without float precision loss
func WeiToEther(wei *uint256.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// EtherToWei converts an ETH string to wei without float precision loss
func EtherToWei(ether string) (*uint256.Int, error) {
	return ParseUnits(ether, EtherDecimals)
}

// WeiToGwei converts wei to a gwei string, used for gas prices in logs and responses
func WeiToGwei(wei *uint256.Int) string {
	return FormatUnits(wei, GweiDecimals)
}

// FormatUnits converts an integer amount to a decimal string by inserting the decimal point.
// Trailing fractional zeros are trimmed but at least one fractional digit is kept.
// Example: FormatUnits(300000000000000000, 18) = "0.3", FormatUnits(10^18, 18) = "1.0"
func FormatUnits(value *uint256.Int, decimals int) string {
	if value == nil {
		value = new(uint256.Int)
	}
	s := value.Dec()

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	pos := len(s) - decimals
	whole, frac := s[:pos], strings.TrimRight(s[pos:], "0")
	if frac == "" {
		frac = "0"
	}
	return whole + "." + frac
}

// ParseUnits converts a decimal string to an integer amount by removing the decimal point.
// Unlike a float parse it never rounds: non-zero digits beyond decimals, a sign,
// or a value beyond 2^256-1 are rejected with ErrInvalidAmount.
// Example: ParseUnits("0.3", 18) = 300000000000000000
func ParseUnits(s string, decimals int) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if s[0] == '-' {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: invalid decimal format %q", ErrInvalidAmount, s)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: invalid decimal format %q", ErrInvalidAmount, s)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if len(frac) > decimals {
		if strings.TrimRight(frac[decimals:], "0") != "" {
			return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, s, decimals)
		}
		frac = frac[:decimals]
	}

	// Pad fractional part to exact decimals and combine
	combined := whole + frac + strings.Repeat("0", decimals-len(frac))
	combined = strings.TrimLeft(combined, "0")
	if combined == "" {
		return new(uint256.Int), nil
	}

	value, err := uint256.FromDecimal(combined)
	if err != nil {
		return nil, fmt.Errorf("%w: %q exceeds the 256-bit range", ErrInvalidAmount, s)
	}
	return value, nil
}

// CompareEtherAmounts compares two ETH decimal string amounts without float precision loss.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b, and error if parsing fails
func CompareEtherAmounts(a, b string) (int, error) {
	aVal, err := EtherToWei(a)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}

	bVal, err := EtherToWei(b)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}

	return aVal.Cmp(bVal), nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
