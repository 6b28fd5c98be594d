package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NetworkDev is the in-process simulated node used by --simulate and tests.
const NetworkDev = "dev"

// Network is a named chain preset.
type Network struct {
	Name    string
	ChainID uint64
	// URLTemplate takes the API key; empty for networks without a hosted endpoint.
	URLTemplate string
	// CoinID is the CoinGecko id of the native coin.
	CoinID string
}

var networks = map[string]Network{
	"mainnet": {Name: "mainnet", ChainID: 1, URLTemplate: "https://mainnet.infura.io/v3/%s", CoinID: "ethereum"},
	"sepolia": {Name: "sepolia", ChainID: 11155111, URLTemplate: "https://sepolia.infura.io/v3/%s", CoinID: "ethereum"},
	"holesky": {Name: "holesky", ChainID: 17000, URLTemplate: "https://holesky.infura.io/v3/%s", CoinID: "ethereum"},
	NetworkDev: {Name: NetworkDev, ChainID: 1337, CoinID: "ethereum"},
}

// LookupNetwork returns the preset registered under name.
func LookupNetwork(name string) (Network, bool) {
	n, ok := networks[strings.ToLower(name)]
	return n, ok
}

// NetworkNames returns the known preset names in sorted order.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExpectedChainID returns CHAIN_ID when set, otherwise the preset's chain id.
func (c *Config) ExpectedChainID() uint64 {
	if c.ChainID != 0 {
		return c.ChainID
	}
	n, _ := LookupNetwork(c.Network)
	return n.ChainID
}

// Endpoint resolves the JSON-RPC endpoint URL.
// An explicit RPC_URL wins; otherwise the preset template is filled with the API key.
func (c *Config) Endpoint() (string, error) {
	if c.RPCURL != "" {
		return c.RPCURL, nil
	}
	n, ok := LookupNetwork(c.Network)
	if !ok {
		return "", fmt.Errorf("unknown network %q", c.Network)
	}
	if n.URLTemplate == "" {
		return "", fmt.Errorf("network %q has no hosted endpoint: set RPC_URL or use --simulate", n.Name)
	}
	key := c.GetAPIKey()
	if key == "" {
		return "", errors.New("RPC API key is not set")
	}
	return fmt.Sprintf(n.URLTemplate, key), nil
}
