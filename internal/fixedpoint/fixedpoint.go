package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Q64.96 fixed-point constants. Sqrt prices carry 96 fractional bits so that
// swap math stays multiplication-only inside 256-bit arithmetic.
var (
	One        = uint256.NewInt(1)
	Q96        = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	Q192       = new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	MaxUint256 = new(uint256.Int).Not(uint256.NewInt(0))
)

// MulDiv computes a*b/denominator with a 512-bit intermediate product.
// Panics on overflow of the final result; callers are expected to stay
// within the domain bounds enforced by tickmath.
func MulDiv(a, b, denominator *uint256.Int) *uint256.Int {
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		panic("fixedpoint: muldiv overflow")
	}
	return result
}

// MulDivRoundingUp is MulDiv rounding the quotient up instead of down.
func MulDivRoundingUp(a, b, denominator *uint256.Int) *uint256.Int {
	if a.IsZero() || b.IsZero() {
		return new(uint256.Int)
	}
	result := MulDiv(a, b, denominator)
	if rem := new(uint256.Int).MulMod(a, b, denominator); !rem.IsZero() {
		result.Add(result, One)
	}
	return result
}

// DivRoundingUp computes a/denominator rounding up.
func DivRoundingUp(a, denominator *uint256.Int) *uint256.Int {
	result := new(uint256.Int).Div(a, denominator)
	if rem := new(uint256.Int).Mod(a, denominator); !rem.IsZero() {
		result.Add(result, One)
	}
	return result
}

// EncodeSqrtRatioX96 returns sqrt(amount1/amount0) as a Q64.96, using an
// integer square root over the ratio scaled into the fixed-point domain so
// the result is deterministic across platforms.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) *uint256.Int {
	numerator := new(big.Int).Lsh(amount1, 192)
	ratio := new(big.Int).Div(numerator, amount0)
	root := new(big.Int).Sqrt(ratio)
	out, overflow := uint256.FromBig(root)
	if overflow {
		panic("fixedpoint: sqrt ratio overflows uint256")
	}
	return out
}

// SignedBig interprets x as a two's-complement signed 256-bit value and
// returns it as a big.Int.
func SignedBig(x *uint256.Int) *big.Int {
	if x.Sign() >= 0 {
		return x.ToBig()
	}
	return new(big.Int).Neg(new(uint256.Int).Neg(x).ToBig())
}

// SignedString formats x under the two's-complement interpretation.
func SignedString(x *uint256.Int) string {
	return SignedBig(x).String()
}
