package model

// PoolState is a serializable snapshot of one pool. Big integers are
// string-encoded so records survive JSON round-trips without precision loss.
type PoolState struct {
	Address      string `json:"address"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	TickSpacing  int    `json:"tick_spacing"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int    `json:"tick"`
	Liquidity    string `json:"liquidity"`
	Balance0     string `json:"balance0"`
	Balance1     string `json:"balance1"`
}
