package swapmath

import (
	"github.com/holiman/uint256"

	"clpool/internal/fixedpoint"
)

var maxUint160 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 160), 1)

// Amount0Delta returns the amount of token0 held between two sqrt prices for
// the given liquidity: liquidity * (1/sqrtA - 1/sqrtB), computed as
// liquidity<<96 * (sqrtB - sqrtA) / sqrtB / sqrtA.
func Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) *uint256.Int {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		return fixedpoint.DivRoundingUp(
			fixedpoint.MulDivRoundingUp(numerator1, numerator2, sqrtRatioBX96),
			sqrtRatioAX96,
		)
	}
	res := fixedpoint.MulDiv(numerator1, numerator2, sqrtRatioBX96)
	return res.Div(res, sqrtRatioAX96)
}

// Amount1Delta returns the amount of token1 held between two sqrt prices for
// the given liquidity: liquidity * (sqrtB - sqrtA).
func Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) *uint256.Int {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	diff := new(uint256.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return fixedpoint.MulDivRoundingUp(liquidity, diff, fixedpoint.Q96)
	}
	return fixedpoint.MulDiv(liquidity, diff, fixedpoint.Q96)
}

// SignedAmount0Delta is Amount0Delta for a signed (two's complement)
// liquidity delta: removals round down and come back negative, additions
// round up so the pool never undercharges.
func SignedAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidityDelta *uint256.Int) *uint256.Int {
	if liquidityDelta.Sign() < 0 {
		abs := new(uint256.Int).Neg(liquidityDelta)
		return new(uint256.Int).Neg(Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, abs, false))
	}
	return Amount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidityDelta, true)
}

// SignedAmount1Delta is the token1 counterpart of SignedAmount0Delta.
func SignedAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidityDelta *uint256.Int) *uint256.Int {
	if liquidityDelta.Sign() < 0 {
		abs := new(uint256.Int).Neg(liquidityDelta)
		return new(uint256.Int).Neg(Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, abs, false))
	}
	return Amount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidityDelta, true)
}

// NextSqrtPriceFromInput returns the sqrt price after consuming amountIn of
// the input token at the given liquidity, rounding so the pool never quotes
// a better price than the exact one.
func NextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) *uint256.Int {
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the sqrt price after producing amountOut of
// the output token at the given liquidity.
func NextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) *uint256.Int {
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

func nextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) *uint256.Int {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPX96)
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)

	if add {
		// liquidity<<96 * sqrtP / (liquidity<<96 + amount * sqrtP), falling
		// back to the overflow-safe form when the product wraps.
		product := new(uint256.Int).Mul(amount, sqrtPX96)
		if new(uint256.Int).Div(product, amount).Eq(sqrtPX96) {
			denominator := new(uint256.Int).Add(numerator1, product)
			if !denominator.Lt(numerator1) {
				return fixedpoint.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		return fixedpoint.DivRoundingUp(numerator1, new(uint256.Int).Add(new(uint256.Int).Div(numerator1, sqrtPX96), amount))
	}

	product := new(uint256.Int).Mul(amount, sqrtPX96)
	denominator := new(uint256.Int).Sub(numerator1, product)
	return fixedpoint.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
}

func nextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) *uint256.Int {
	if add {
		var quotient *uint256.Int
		if amount.Cmp(maxUint160) <= 0 {
			quotient = new(uint256.Int).Div(new(uint256.Int).Lsh(amount, 96), liquidity)
		} else {
			quotient = fixedpoint.MulDiv(amount, fixedpoint.Q96, liquidity)
		}
		return new(uint256.Int).Add(sqrtPX96, quotient)
	}
	quotient := fixedpoint.MulDivRoundingUp(amount, fixedpoint.Q96, liquidity)
	return new(uint256.Int).Sub(sqrtPX96, quotient)
}

// ComputeSwapStep advances the price from sqrtRatioCurrentX96 toward
// sqrtRatioTargetX96 given the active liquidity and the signed remaining
// amount (positive exact-in, negative exact-out). It returns the price
// reached and the unsigned input consumed and output produced by the step.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int) (sqrtRatioNextX96, amountIn, amountOut *uint256.Int) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0

	if exactIn {
		if zeroForOne {
			amountIn = Amount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			amountIn = Amount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if amountRemaining.Cmp(amountIn) >= 0 {
			sqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			sqrtRatioNextX96 = NextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, amountRemaining, zeroForOne)
		}
	} else {
		if zeroForOne {
			amountOut = Amount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			amountOut = Amount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		want := new(uint256.Int).Neg(amountRemaining)
		if want.Cmp(amountOut) >= 0 {
			sqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			sqrtRatioNextX96 = NextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, want, zeroForOne)
		}
	}

	reachedTarget := sqrtRatioTargetX96.Eq(sqrtRatioNextX96)

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			amountIn = Amount0Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
		}
		if !(reachedTarget && !exactIn) {
			amountOut = Amount1Delta(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
		}
	} else {
		if !(reachedTarget && exactIn) {
			amountIn = Amount1Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, true)
		}
		if !(reachedTarget && !exactIn) {
			amountOut = Amount0Delta(sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, false)
		}
	}

	// Exact-out steps never hand out more than was asked for.
	if !exactIn {
		want := new(uint256.Int).Neg(amountRemaining)
		if amountOut.Gt(want) {
			amountOut = want
		}
	}
	return sqrtRatioNextX96, amountIn, amountOut
}
