package model

// Op kinds recorded by the scenario runner.
const (
	KindMint = "mint"
	KindBurn = "burn"
	KindSwap = "swap"
)

// EventRecord is one executed pool operation with its outcome. Amounts are
// signed decimal strings: positive flowed into the pool, negative out of it.
type EventRecord struct {
	Seq           int    `json:"seq"`
	Kind          string `json:"kind"`
	Owner         string `json:"owner"`
	Recipient     string `json:"recipient,omitempty"`
	TickLower     int    `json:"tick_lower,omitempty"`
	TickUpper     int    `json:"tick_upper,omitempty"`
	Liquidity     string `json:"liquidity,omitempty"`
	Amount0       string `json:"amount0"`
	Amount1       string `json:"amount1"`
	SqrtPriceX96  string `json:"sqrt_price_x96"`
	Tick          int    `json:"tick"`
	PoolLiquidity string `json:"pool_liquidity"`
	ExecutedAt    string `json:"executed_at"`
}
