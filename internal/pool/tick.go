package pool

import (
	"github.com/holiman/uint256"
)

// TickInfo is the per-tick liquidity accounting. LiquidityGross tracks the
// total liquidity of positions referencing the tick as a boundary and
// decides initialization. LiquidityNet is the signed (two's complement)
// delta applied to active liquidity when the price crosses the tick moving
// up.
type TickInfo struct {
	Initialized    bool
	LiquidityGross *uint256.Int
	LiquidityNet   *uint256.Int
}

// ticks holds accounting records for every initialized tick.
type ticks struct {
	byIndex map[int]*TickInfo
}

func newTicks() *ticks {
	return &ticks{byIndex: make(map[int]*TickInfo)}
}

// get returns a copy of the record, zero-valued when the tick is not
// initialized.
func (t *ticks) get(tick int) TickInfo {
	if info, ok := t.byIndex[tick]; ok {
		return TickInfo{
			Initialized:    true,
			LiquidityGross: new(uint256.Int).Set(info.LiquidityGross),
			LiquidityNet:   new(uint256.Int).Set(info.LiquidityNet),
		}
	}
	return TickInfo{LiquidityGross: new(uint256.Int), LiquidityNet: new(uint256.Int)}
}

// update applies a signed liquidity delta to the tick. Gross moves by
// |delta|; net moves by +delta for a lower boundary and -delta for an upper
// boundary, which is what makes upward crossings add net liquidity
// uniformly. Returns whether the tick flipped between initialized and not.
func (t *ticks) update(tick int, liquidityDelta *uint256.Int, upper bool) (flipped bool, err error) {
	info, ok := t.byIndex[tick]
	if !ok {
		info = &TickInfo{
			LiquidityGross: new(uint256.Int),
			LiquidityNet:   new(uint256.Int),
		}
	}

	grossBefore := new(uint256.Int).Set(info.LiquidityGross)
	if liquidityDelta.Sign() < 0 {
		abs := new(uint256.Int).Neg(liquidityDelta)
		if info.LiquidityGross.Lt(abs) {
			return false, ErrLiquidityUnderflow
		}
		info.LiquidityGross.Sub(info.LiquidityGross, abs)
	} else {
		info.LiquidityGross.Add(info.LiquidityGross, liquidityDelta)
	}

	if upper {
		info.LiquidityNet.Sub(info.LiquidityNet, liquidityDelta)
	} else {
		info.LiquidityNet.Add(info.LiquidityNet, liquidityDelta)
	}

	flipped = grossBefore.IsZero() != info.LiquidityGross.IsZero()
	if info.LiquidityGross.IsZero() {
		delete(t.byIndex, tick)
	} else {
		t.byIndex[tick] = info
	}
	return flipped, nil
}

// cross returns the signed net liquidity of the tick being crossed. The
// caller adds it when moving up and subtracts it when moving down.
func (t *ticks) cross(tick int) *uint256.Int {
	if info, ok := t.byIndex[tick]; ok {
		return new(uint256.Int).Set(info.LiquidityNet)
	}
	return new(uint256.Int)
}

func (t *ticks) clone() *ticks {
	out := newTicks()
	for tick, info := range t.byIndex {
		out.byIndex[tick] = &TickInfo{
			LiquidityGross: new(uint256.Int).Set(info.LiquidityGross),
			LiquidityNet:   new(uint256.Int).Set(info.LiquidityNet),
		}
	}
	return out
}
