package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clpool/internal/swapmath"
	"clpool/internal/tickmath"
)

// SwapParams describes one swap request. AmountSpecified is signed two's
// complement: positive trades an exact input, negative requests an exact
// output. A zero SqrtPriceLimitX96 means no caller limit; a zero
// MinAmountOut skips the minimum-output check.
type SwapParams struct {
	ZeroForOne        bool
	AmountSpecified   *uint256.Int
	SqrtPriceLimitX96 *uint256.Int
	MinAmountOut      *uint256.Int
	Recipient         common.Address
	Data              []byte
}

// swapState is the loop-local view of the pool while a swap walks the curve.
// Nothing is committed until the walk finishes.
type swapState struct {
	amountRemaining  *uint256.Int
	amountCalculated *uint256.Int
	sqrtPriceX96     *uint256.Int
	tick             int
	liquidity        *uint256.Int
}

type swapStep struct {
	sqrtPriceStartX96 *uint256.Int
	nextTick          int
	initialized       bool
	sqrtPriceNextX96  *uint256.Int
	amountIn          *uint256.Int
	amountOut         *uint256.Int
}

// Swap trades against the pool's liquidity, walking the price across
// initialized ticks until the specified amount is exhausted or a limit is
// reached. On success it returns the signed token deltas (positive owed to
// the pool, negative paid to the recipient), settles the output, and
// verifies the input payment made by the swap callback. Any failure leaves
// the pool unchanged.
func (p *Pool) Swap(params SwapParams) (*uint256.Int, *uint256.Int, error) {
	if err := p.begin(); err != nil {
		return nil, nil, err
	}
	defer p.mu.Unlock()

	if params.AmountSpecified == nil || params.AmountSpecified.IsZero() {
		return nil, nil, ErrZeroAmount
	}

	limit, limitProvided, err := p.priceLimit(params)
	if err != nil {
		return nil, nil, err
	}

	exactIn := params.AmountSpecified.Sign() >= 0
	state := swapState{
		amountRemaining:  new(uint256.Int).Set(params.AmountSpecified),
		amountCalculated: new(uint256.Int),
		sqrtPriceX96:     new(uint256.Int).Set(p.sqrtPriceX96),
		tick:             p.tick,
		liquidity:        new(uint256.Int).Set(p.liquidity),
	}

	for !state.amountRemaining.IsZero() && !state.sqrtPriceX96.Eq(limit) {
		var step swapStep
		step.sqrtPriceStartX96 = new(uint256.Int).Set(state.sqrtPriceX96)
		step.nextTick, step.initialized = p.bitmap.NextInitializedTickWithinOneWord(state.tick, params.ZeroForOne)

		if step.nextTick < tickmath.MinTick {
			step.nextTick = tickmath.MinTick
		} else if step.nextTick > tickmath.MaxTick {
			step.nextTick = tickmath.MaxTick
		}

		step.sqrtPriceNextX96, err = tickmath.SqrtRatioAtTick(step.nextTick)
		if err != nil {
			return nil, nil, err
		}

		target := step.sqrtPriceNextX96
		if params.ZeroForOne {
			if step.sqrtPriceNextX96.Lt(limit) {
				target = limit
			}
		} else {
			if step.sqrtPriceNextX96.Gt(limit) {
				target = limit
			}
		}

		state.sqrtPriceX96, step.amountIn, step.amountOut = swapmath.ComputeSwapStep(
			state.sqrtPriceX96, target, state.liquidity, state.amountRemaining)

		if exactIn {
			state.amountRemaining.Sub(state.amountRemaining, step.amountIn)
			state.amountCalculated.Sub(state.amountCalculated, step.amountOut)
		} else {
			state.amountRemaining.Add(state.amountRemaining, step.amountOut)
			state.amountCalculated.Add(state.amountCalculated, step.amountIn)
		}

		switch {
		case state.sqrtPriceX96.Eq(step.sqrtPriceNextX96):
			// Reached the next tick. Crossing the lowest or highest
			// representable tick with amount left means the curve has no
			// more liquidity to offer.
			if !state.amountRemaining.IsZero() &&
				(step.nextTick == tickmath.MinTick || step.nextTick == tickmath.MaxTick) {
				return nil, nil, ErrInsufficientLiquidity
			}
			if step.initialized {
				liquidityNet := p.ticks.cross(step.nextTick)
				if params.ZeroForOne {
					state.liquidity.Sub(state.liquidity, liquidityNet)
				} else {
					state.liquidity.Add(state.liquidity, liquidityNet)
				}
			}
			if params.ZeroForOne {
				state.tick = step.nextTick - 1
			} else {
				state.tick = step.nextTick
			}
		case !state.sqrtPriceX96.Eq(step.sqrtPriceStartX96):
			state.tick, err = tickmath.TickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	amount0, amount1 := settleAmounts(params.AmountSpecified, &state, params.ZeroForOne, exactIn)

	if !state.amountRemaining.IsZero() {
		if limitProvided {
			return nil, nil, &SlippageError{Amount0: amount0, Amount1: amount1}
		}
		return nil, nil, ErrInsufficientLiquidity
	}
	if params.MinAmountOut != nil && !params.MinAmountOut.IsZero() {
		out := amount1
		if !params.ZeroForOne {
			out = amount0
		}
		received := new(uint256.Int).Neg(out)
		if received.Lt(params.MinAmountOut) {
			return nil, nil, &SlippageError{Amount0: amount0, Amount1: amount1}
		}
	}

	saved := p.snapshot()
	p.sqrtPriceX96 = state.sqrtPriceX96
	p.tick = state.tick
	p.liquidity = state.liquidity

	if err := p.settle(params, amount0, amount1); err != nil {
		p.restore(saved)
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// priceLimit resolves the effective sqrt price limit, defaulting to the edge
// of the representable range in the trade direction.
func (p *Pool) priceLimit(params SwapParams) (*uint256.Int, bool, error) {
	provided := params.SqrtPriceLimitX96 != nil && !params.SqrtPriceLimitX96.IsZero()
	if !provided {
		if params.ZeroForOne {
			return new(uint256.Int).AddUint64(tickmath.MinSqrtRatio, 1), false, nil
		}
		return new(uint256.Int).SubUint64(tickmath.MaxSqrtRatio, 1), false, nil
	}

	limit := new(uint256.Int).Set(params.SqrtPriceLimitX96)
	if params.ZeroForOne {
		if !limit.Lt(p.sqrtPriceX96) || !limit.Gt(tickmath.MinSqrtRatio) {
			return nil, false, ErrInvalidPriceLimit
		}
	} else {
		if !limit.Gt(p.sqrtPriceX96) || !limit.Lt(tickmath.MaxSqrtRatio) {
			return nil, false, ErrInvalidPriceLimit
		}
	}
	return limit, true, nil
}

// settleAmounts folds the loop accumulators into signed per-token deltas.
func settleAmounts(amountSpecified *uint256.Int, state *swapState, zeroForOne, exactIn bool) (*uint256.Int, *uint256.Int) {
	specifiedUsed := new(uint256.Int).Sub(amountSpecified, state.amountRemaining)
	calculated := new(uint256.Int).Set(state.amountCalculated)
	if zeroForOne == exactIn {
		return specifiedUsed, calculated
	}
	return calculated, specifiedUsed
}

// settle requests the input through the swap callback, verifies the pool
// actually received it, and only then pushes the output to the recipient.
func (p *Pool) settle(params SwapParams, amount0, amount1 *uint256.Int) error {
	balance0Before := p.Balance0()
	balance1Before := p.Balance1()
	p.invokeSwapCallback(amount0, amount1, params.Data)

	if amount0.Sign() > 0 {
		want := new(uint256.Int).Add(balance0Before, amount0)
		if p.Balance0().Lt(want) {
			return ErrInsufficientInputAmount
		}
	}
	if amount1.Sign() > 0 {
		want := new(uint256.Int).Add(balance1Before, amount1)
		if p.Balance1().Lt(want) {
			return ErrInsufficientInputAmount
		}
	}

	if amount0.Sign() < 0 {
		owed := new(uint256.Int).Neg(amount0)
		if err := p.cfg.Token0.Transfer(p.cfg.Address, params.Recipient, owed); err != nil {
			return err
		}
	}
	if amount1.Sign() < 0 {
		owed := new(uint256.Int).Neg(amount1)
		if err := p.cfg.Token1.Transfer(p.cfg.Address, params.Recipient, owed); err != nil {
			return err
		}
	}
	return nil
}
