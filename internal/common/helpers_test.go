package common

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxUint256Ether = "115792089237316195423570985008687907853269984665640564039457.584007913129639935"

func TestEtherRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		ether string
		wei   string
	}{
		{"one wei", "0.000000000000000001", "1"},
		{"one gwei", "0.000000001", "1000000000"},
		{"fractional", "0.3", "300000000000000000"},
		{"remainder", "0.7", "700000000000000000"},
		{"one ether", "1.0", "1000000000000000000"},
		{"mixed", "123.456", "123456000000000000000"},
		{"all digits", "1.123456789012345678", "1123456789012345678"},
		{"large", "1000000000.0", "1000000000000000000000000000"},
		{"uint64 ceiling", "18.446744073709551615", "18446744073709551615"},
		{"uint256 ceiling", maxUint256Ether, "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wei, err := EtherToWei(tt.ether)
			require.NoError(t, err)
			assert.Equal(t, tt.wei, wei.Dec())
			assert.Equal(t, tt.ether, WeiToEther(wei))
		})
	}
}

func TestParseUnits_Accepted(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{" 2.5 ", "2500000000000000000"},
		{".5", "500000000000000000"},
		{"5.", "5000000000000000000"},
		{"0", "0"},
		{"0.000", "0"},
		{"007.10", "7100000000000000000"},
		{"0.1000000000000000000", "100000000000000000"},
		{"1.000000000000000001000", "1000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := EtherToWei(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Dec())
		})
	}
}

func TestParseUnits_Rejected(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"negative", "-1"},
		{"negative fraction", "-0.1"},
		{"plus sign", "+1"},
		{"too precise", "0.0000000000000000001"},
		{"two points", "1.2.3"},
		{"lone point", "."},
		{"letters", "1e18"},
		{"comma", "1,5"},
		{"overflow", "115792089237316195423570985008687907853269984665640564039457.584007913129639936"},
		{"overflow whole", "1000000000000000000000000000000000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EtherToWei(tt.in)
			require.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.0", FormatUnits(nil, EtherDecimals))
	assert.Equal(t, "0.0", FormatUnits(uint256.NewInt(0), EtherDecimals))
	assert.Equal(t, "21.0", WeiToGwei(uint256.NewInt(21_000_000_000)))
	assert.Equal(t, "0.000021", WeiToEther(uint256.NewInt(21_000_000_000_000)))
}

func TestCompareEtherAmounts(t *testing.T) {
	cmp, err := CompareEtherAmounts("0.3", "0.30")
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	cmp, err = CompareEtherAmounts("0.000000000000000001", "0")
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	_, err = CompareEtherAmounts("abc", "1")
	require.Error(t, err)
}
