package networks

// Network describes one supported EVM chain. RPC is the default public
// endpoint; deployments can override it per network via configuration.
type Network struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	RPC         string `json:"rpc"`
	ChainID     int64  `json:"chain_id"`
	Token       string `json:"token"`
	CoinGeckoID string `json:"coingecko_id"`
	Explorer    string `json:"explorer"`
}

// registry lists the supported networks in display order. Several L2s
// settle gas in ETH, so they share the ethereum CoinGecko id.
var registry = []Network{
	{
		Key:         "ethereum",
		Name:        "Ethereum",
		RPC:         "https://eth.llamarpc.com",
		ChainID:     1,
		Token:       "ETH",
		CoinGeckoID: "ethereum",
		Explorer:    "https://etherscan.io",
	},
	{
		Key:         "polygon",
		Name:        "Polygon",
		RPC:         "https://polygon-rpc.com",
		ChainID:     137,
		Token:       "MATIC",
		CoinGeckoID: "matic-network",
		Explorer:    "https://polygonscan.com",
	},
	{
		Key:         "arbitrum",
		Name:        "Arbitrum One",
		RPC:         "https://arb1.arbitrum.io/rpc",
		ChainID:     42161,
		Token:       "ETH",
		CoinGeckoID: "ethereum",
		Explorer:    "https://arbiscan.io",
	},
	{
		Key:         "optimism",
		Name:        "Optimism",
		RPC:         "https://mainnet.optimism.io",
		ChainID:     10,
		Token:       "ETH",
		CoinGeckoID: "ethereum",
		Explorer:    "https://optimistic.etherscan.io",
	},
	{
		Key:         "bsc",
		Name:        "BNB Smart Chain",
		RPC:         "https://bsc-dataseed.binance.org",
		ChainID:     56,
		Token:       "BNB",
		CoinGeckoID: "binancecoin",
		Explorer:    "https://bscscan.com",
	},
	{
		Key:         "base",
		Name:        "Base",
		RPC:         "https://mainnet.base.org",
		ChainID:     8453,
		Token:       "ETH",
		CoinGeckoID: "ethereum",
		Explorer:    "https://basescan.org",
	},
	{
		Key:         "zksync",
		Name:        "zkSync Era",
		RPC:         "https://mainnet.era.zksync.io",
		ChainID:     324,
		Token:       "ETH",
		CoinGeckoID: "ethereum",
		Explorer:    "https://explorer.zksync.io",
	},
	{
		Key:         "avalanche",
		Name:        "Avalanche C-Chain",
		RPC:         "https://api.avax.network/ext/bc/C/rpc",
		ChainID:     43114,
		Token:       "AVAX",
		CoinGeckoID: "avalanche-2",
		Explorer:    "https://snowtrace.io",
	},
}

var byKey = make(map[string]Network, len(registry))

func init() {
	for _, n := range registry {
		byKey[n.Key] = n
	}
}

// All returns the supported networks in display order.
func All() []Network {
	out := make([]Network, len(registry))
	copy(out, registry)
	return out
}

// Keys returns the supported network keys in display order.
func Keys() []string {
	keys := make([]string, len(registry))
	for i, n := range registry {
		keys[i] = n.Key
	}
	return keys
}

// Get returns the network for a key such as "ethereum" or "base".
func Get(key string) (Network, bool) {
	n, ok := byKey[key]
	return n, ok
}

// IsSupported reports whether key names a known network.
func IsSupported(key string) bool {
	_, ok := byKey[key]
	return ok
}

// TxType describes a transaction profile used for cost estimates.
type TxType struct {
	Key  string  `json:"key"`
	Name string  `json:"name"`
	Gas  float64 `json:"gas"`
}

// txTypes holds typical gas usage per transaction profile.
var txTypes = []TxType{
	{Key: "simple", Name: "Simple Transfer", Gas: 21000},
	{Key: "erc20", Name: "ERC-20 Transfer", Gas: 65000},
	{Key: "swap", Name: "DEX Swap", Gas: 150000},
	{Key: "nft_mint", Name: "NFT Mint", Gas: 100000},
	{Key: "nft_transfer", Name: "NFT Transfer", Gas: 85000},
}

// TxTypes returns the known transaction profiles in display order.
func TxTypes() []TxType {
	out := make([]TxType, len(txTypes))
	copy(out, txTypes)
	return out
}

// GasUnits returns the gas units for a transaction profile, falling
// back to a simple transfer for unknown keys.
func GasUnits(key string) float64 {
	for _, t := range txTypes {
		if t.Key == key {
			return t.Gas
		}
	}
	return txTypes[0].Gas
}
