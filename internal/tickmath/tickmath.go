package tickmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"clpool/internal/fixedpoint"
)

const (
	// MinTick is the lowest tick with a representable sqrt price.
	MinTick = -887272
	// MaxTick is the highest tick with a representable sqrt price.
	MaxTick = 887272
)

var (
	// MinSqrtRatio is the sqrt price at MinTick.
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt price at MaxTick.
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("sqrt price out of range")
	ErrPriceNotPositive    = errors.New("price must be positive")
)

// ratioSteps[i] is sqrt(1.0001)^(2^i) in UQ128.128, the per-bit factor used
// to decompose |tick| without floating point. ratioOne is 1 in UQ128.128.
var (
	ratioOne   = uint256.MustFromHex("0x100000000000000000000000000000000")
	ratioSteps = [20]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}
)

// SqrtRatioAtTick returns sqrt(1.0001)^tick as a Q64.96.
// It is strictly monotonic over the supported tick range.
func SqrtRatioAtTick(tick int) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	ratio := new(uint256.Int).Set(ratioOne)
	if absTick&0x1 != 0 {
		ratio.Set(ratioSteps[0])
	}
	for i := 1; i < len(ratioSteps); i++ {
		if absTick&(1<<i) != 0 {
			ratio.Mul(ratio, ratioSteps[i]).Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(fixedpoint.MaxUint256, ratio)
	}

	// Down to Q96, rounding up so the ratio at a tick never understates it.
	rem := new(uint256.Int).And(ratio, uint256.NewInt(0xffffffff))
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.Add(ratio, fixedpoint.One)
	}
	return ratio, nil
}

// TickAtSqrtRatio returns the greatest tick such that
// SqrtRatioAtTick(tick) <= sqrtPriceX96. Binary search over the ladder keeps
// the result bit-exact with SqrtRatioAtTick, so round-trips are identities.
func TickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtPriceOutOfRange
	}

	lo, hi := MinTick, MaxTick
	tick := MinTick
	for lo <= hi {
		mid := (lo + hi) / 2
		ratio, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return tick, nil
}

// TickAtPrice returns the tick for a plain token1/token0 price ratio,
// flooring so repeated round-trips are idempotent.
func TickAtPrice(price *big.Int) (int, error) {
	if price == nil || price.Sign() <= 0 {
		return 0, ErrPriceNotPositive
	}
	sqrtPriceX96 := fixedpoint.EncodeSqrtRatioX96(price, big.NewInt(1))
	return TickAtSqrtRatio(sqrtPriceX96)
}
