package sim

import (
	"encoding/json"
	"fmt"
	"os"
)

// PoolSpec declares the pool a scenario runs against. The starting price is
// given either as a plain token1/token0 ratio or directly as a Q64.96 sqrt
// price.
type PoolSpec struct {
	Address      string `json:"address,omitempty"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	TickSpacing  int    `json:"tick_spacing"`
	Price        string `json:"price,omitempty"`
	SqrtPriceX96 string `json:"sqrt_price_x96,omitempty"`
}

// Account pre-funds a payer on the scenario's token ledgers.
type Account struct {
	Address  string `json:"address"`
	Balance0 string `json:"balance0,omitempty"`
	Balance1 string `json:"balance1,omitempty"`
}

// Op is one pool operation to execute. Fields are interpreted per type:
// mint/burn use the range and liquidity fields, swap uses the direction,
// amount, and limit fields.
type Op struct {
	Type              string `json:"type"`
	Owner             string `json:"owner"`
	Recipient         string `json:"recipient,omitempty"`
	TickLower         int    `json:"tick_lower,omitempty"`
	TickUpper         int    `json:"tick_upper,omitempty"`
	Liquidity         string `json:"liquidity,omitempty"`
	ZeroForOne        bool   `json:"zero_for_one,omitempty"`
	Amount            string `json:"amount,omitempty"`
	SqrtPriceLimitX96 string `json:"sqrt_price_limit_x96,omitempty"`
	MinAmountOut      string `json:"min_amount_out,omitempty"`
}

// Scenario is an ordered, deterministic op sequence against one pool.
type Scenario struct {
	Pool    PoolSpec  `json:"pool"`
	Funding []Account `json:"funding,omitempty"`
	Ops     []Op      `json:"ops"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks the scenario for structural problems before any op runs.
func (sc Scenario) Validate() error {
	if sc.Pool.Token0 == "" || sc.Pool.Token1 == "" {
		return fmt.Errorf("pool token symbols are required")
	}
	if sc.Pool.TickSpacing <= 0 {
		return fmt.Errorf("pool tick spacing must be positive")
	}
	if sc.Pool.Price == "" && sc.Pool.SqrtPriceX96 == "" {
		return fmt.Errorf("pool price or sqrt_price_x96 is required")
	}
	for i, op := range sc.Ops {
		switch op.Type {
		case "mint", "burn":
			if op.Liquidity == "" {
				return fmt.Errorf("op %d: %s requires liquidity", i, op.Type)
			}
		case "swap":
			if op.Amount == "" {
				return fmt.Errorf("op %d: swap requires amount", i)
			}
		default:
			return fmt.Errorf("op %d: unknown type %q", i, op.Type)
		}
		if op.Owner == "" {
			return fmt.Errorf("op %d: owner is required", i)
		}
	}
	return nil
}
