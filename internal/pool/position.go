package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PositionKey identifies a liquidity position by owner and range.
type PositionKey struct {
	Owner common.Address
	Lower int
	Upper int
}

// positions is the per-(owner, range) liquidity ledger. Records accumulate
// across repeat mints and persist at zero liquidity after a full burn.
type positions struct {
	byKey map[PositionKey]*uint256.Int
}

func newPositions() *positions {
	return &positions{byKey: make(map[PositionKey]*uint256.Int)}
}

// get returns the position's liquidity; unknown keys read as zero.
func (p *positions) get(key PositionKey) *uint256.Int {
	if liquidity, ok := p.byKey[key]; ok {
		return new(uint256.Int).Set(liquidity)
	}
	return new(uint256.Int)
}

// update applies a signed liquidity delta to the key's record. Nothing is
// stored until the delta is known to be valid.
func (p *positions) update(key PositionKey, liquidityDelta *uint256.Int) error {
	liquidity, ok := p.byKey[key]
	if !ok {
		liquidity = new(uint256.Int)
	}

	if liquidityDelta.Sign() < 0 {
		abs := new(uint256.Int).Neg(liquidityDelta)
		if liquidity.Lt(abs) {
			return ErrInsufficientPosition
		}
		p.byKey[key] = new(uint256.Int).Sub(liquidity, abs)
		return nil
	}
	p.byKey[key] = new(uint256.Int).Add(liquidity, liquidityDelta)
	return nil
}

func (p *positions) clone() *positions {
	out := newPositions()
	for key, liquidity := range p.byKey {
		out.byKey[key] = new(uint256.Int).Set(liquidity)
	}
	return out
}
