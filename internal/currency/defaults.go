package currency

var defaultCurrencies = []Currency{
	{ID: "bitcoin", Ticker: "BTC", Name: "Bitcoin", Kind: KindCrypto, Magnitude: 8},
	{ID: "ethereum", Ticker: "ETH", Name: "Ethereum", Kind: KindCrypto, Magnitude: 18},
	{ID: "litecoin", Ticker: "LTC", Name: "Litecoin", Kind: KindCrypto, Magnitude: 8},
	{ID: "dogecoin", Ticker: "DOGE", Name: "Dogecoin", Kind: KindCrypto, Magnitude: 8},
	{ID: "tezos", Ticker: "XTZ", Name: "Tezos", Kind: KindCrypto, Magnitude: 6},
	{ID: "ethereum/erc20/dai_stablecoin_v2_0", Ticker: "DAI", Name: "Dai Stablecoin v2.0", Kind: KindToken, Magnitude: 18},
	{ID: "ethereum/erc20/usd__coin", Ticker: "USDC", Name: "USD Coin", Kind: KindToken, Magnitude: 6},
	{ID: "ethereum/erc20/wrapped_ether", Ticker: "WETH", Name: "Wrapped Ether", Kind: KindToken, Magnitude: 18, DisableCountervalue: true},
	{ID: "ethereum/erc20/ethereum_token", Ticker: "ETH", Name: "Ethereum Token", Kind: KindToken, Magnitude: 18},
	{ID: "USD", Ticker: "USD", Name: "US Dollar", Kind: KindFiat, Magnitude: 2},
	{ID: "EUR", Ticker: "EUR", Name: "Euro", Kind: KindFiat, Magnitude: 2},
	{ID: "GBP", Ticker: "GBP", Name: "British Pound", Kind: KindFiat, Magnitude: 2},
	{ID: "CHF", Ticker: "CHF", Name: "Swiss Franc", Kind: KindFiat, Magnitude: 2},
	{ID: "JPY", Ticker: "JPY", Name: "Japanese Yen", Kind: KindFiat, Magnitude: 0},
	{ID: "TRY", Ticker: "TRY", Name: "Turkish Lira", Kind: KindFiat, Magnitude: 2},
}

// DefaultRegistry returns a registry loaded with the built-in currencies.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultCurrencies...)
}
