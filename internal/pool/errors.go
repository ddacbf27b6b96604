package pool

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"clpool/internal/fixedpoint"
)

var (
	// Caller input errors, rejected before any state mutation.
	ErrInvalidTickRange   = errors.New("invalid tick range")
	ErrInvalidTickSpacing = errors.New("tick not aligned to tick spacing")
	ErrZeroLiquidity      = errors.New("zero liquidity")
	ErrZeroAmount         = errors.New("zero swap amount")
	ErrInvalidPriceLimit  = errors.New("invalid sqrt price limit")

	// Settlement errors, detected after tentative mutation and rolled back.
	ErrInsufficientInputAmount = errors.New("insufficient input amount")

	// Market errors, detected during the swap loop.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// Internal consistency errors. These indicate a bug in position
	// accounting, not a caller mistake.
	ErrLiquidityUnderflow   = errors.New("tick liquidity underflow")
	ErrInsufficientPosition = errors.New("insufficient position liquidity")

	ErrReentrantCall = errors.New("reentrant call into pool")
)

// SlippageError reports a swap rejected by the caller's price limit or
// minimum-output bound. Amounts are the signed deltas the swap would have
// produced (positive owed to the pool, negative owed to the caller).
type SlippageError struct {
	Amount0 *uint256.Int
	Amount1 *uint256.Int
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("slippage check failed: amount0=%s amount1=%s",
		fixedpoint.SignedString(e.Amount0), fixedpoint.SignedString(e.Amount1))
}
