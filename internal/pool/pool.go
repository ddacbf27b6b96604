package pool

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"clpool/internal/swapmath"
	"clpool/internal/tickmath"
)

// Token is the custody surface the engine needs from an asset: it verifies
// settlement by re-reading balances and pushes owed funds out itself.
// Transfer execution and bookkeeping live outside the engine.
type Token interface {
	BalanceOf(owner common.Address) *uint256.Int
	Transfer(from, to common.Address, amount *uint256.Int) error
}

// MintCallbackFunc requests payment of the amounts a mint owes the pool.
// The return value is not consulted; correctness is established by
// re-reading custody balances afterwards.
type MintCallbackFunc func(amount0, amount1 *uint256.Int, data []byte)

// SwapCallbackFunc requests payment of the input side of a swap. Amounts are
// signed two's complement: positive is owed to the pool, negative is owed to
// the caller.
type SwapCallbackFunc func(amount0, amount1 *uint256.Int, data []byte)

// Config holds the dependencies and fixed parameters of one pool instance.
type Config struct {
	Address      common.Address
	Token0       Token
	Token1       Token
	TickSpacing  int
	SqrtPriceX96 *uint256.Int
	MintCallback MintCallbackFunc
	SwapCallback SwapCallbackFunc
}

func (c *Config) validate() error {
	if c.Token0 == nil || c.Token1 == nil {
		return errors.New("token0 and token1 are required")
	}
	if c.TickSpacing <= 0 {
		return errors.New("tick spacing must be positive")
	}
	if c.SqrtPriceX96 == nil || c.SqrtPriceX96.IsZero() {
		return errors.New("starting sqrt price is required")
	}
	if c.MintCallback == nil {
		return errors.New("mint callback is required")
	}
	if c.SwapCallback == nil {
		return errors.New("swap callback is required")
	}
	return nil
}

// Pool is a single concentrated-liquidity pool: the tick-indexed liquidity
// ledger, the initialized-tick bitmap, the spot price, and the mint/swap
// orchestration over them. Operations are serialized per instance and either
// fully commit or leave no observable change.
type Pool struct {
	cfg Config

	mu         sync.Mutex
	inCallback atomic.Bool

	sqrtPriceX96 *uint256.Int
	tick         int
	liquidity    *uint256.Int

	ticks     *ticks
	bitmap    *tickBitmap
	positions *positions
}

// New builds a pool at the configured starting price.
func New(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tick, err := tickmath.TickAtSqrtRatio(cfg.SqrtPriceX96)
	if err != nil {
		return nil, err
	}
	return &Pool{
		cfg:          cfg,
		sqrtPriceX96: new(uint256.Int).Set(cfg.SqrtPriceX96),
		tick:         tick,
		liquidity:    new(uint256.Int),
		ticks:        newTicks(),
		bitmap:       newTickBitmap(cfg.TickSpacing),
		positions:    newPositions(),
	}, nil
}

// Slot0 returns the current sqrt price and tick.
func (p *Pool) Slot0() (*uint256.Int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.sqrtPriceX96), p.tick
}

// Liquidity returns the liquidity active at the current tick.
func (p *Pool) Liquidity() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.liquidity)
}

// Position returns the liquidity of an (owner, range) position; unknown
// positions read as zero.
func (p *Pool) Position(owner common.Address, lower, upper int) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions.get(PositionKey{Owner: owner, Lower: lower, Upper: upper})
}

// Tick returns the accounting record of a tick.
func (p *Pool) Tick(tick int) TickInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks.get(tick)
}

// TickBitmapWord returns the 256-bit initialization word at wordPos.
func (p *Pool) TickBitmapWord(wordPos int16) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bitmap.Word(wordPos)
}

// TickSpacing returns the pool's tick spacing.
func (p *Pool) TickSpacing() int { return p.cfg.TickSpacing }

// Address returns the pool's custody identity.
func (p *Pool) Address() common.Address { return p.cfg.Address }

// Balance0 returns the pool's token0 custody balance.
func (p *Pool) Balance0() *uint256.Int { return p.cfg.Token0.BalanceOf(p.cfg.Address) }

// Balance1 returns the pool's token1 custody balance.
func (p *Pool) Balance1() *uint256.Int { return p.cfg.Token1.BalanceOf(p.cfg.Address) }

// snapshot captures every piece of mutable pool state so a failed operation
// can be discarded with a single restore instead of manual undo.
type snapshot struct {
	sqrtPriceX96 *uint256.Int
	tick         int
	liquidity    *uint256.Int
	ticks        *ticks
	bitmapWords  map[int16]*uint256.Int
	positions    *positions
}

func (p *Pool) snapshot() snapshot {
	words := make(map[int16]*uint256.Int, len(p.bitmap.words))
	for pos, word := range p.bitmap.words {
		words[pos] = new(uint256.Int).Set(word)
	}
	return snapshot{
		sqrtPriceX96: new(uint256.Int).Set(p.sqrtPriceX96),
		tick:         p.tick,
		liquidity:    new(uint256.Int).Set(p.liquidity),
		ticks:        p.ticks.clone(),
		bitmapWords:  words,
		positions:    p.positions.clone(),
	}
}

func (p *Pool) restore(s snapshot) {
	p.sqrtPriceX96 = s.sqrtPriceX96
	p.tick = s.tick
	p.liquidity = s.liquidity
	p.ticks = s.ticks
	p.bitmap.words = s.bitmapWords
	p.positions = s.positions
}

// begin rejects calls issued from inside a settlement callback before they
// can deadlock on the instance mutex.
func (p *Pool) begin() error {
	if p.inCallback.Load() {
		return ErrReentrantCall
	}
	p.mu.Lock()
	return nil
}

func (p *Pool) invokeMintCallback(amount0, amount1 *uint256.Int, data []byte) {
	p.inCallback.Store(true)
	defer p.inCallback.Store(false)
	p.cfg.MintCallback(amount0, amount1, data)
}

func (p *Pool) invokeSwapCallback(amount0, amount1 *uint256.Int, data []byte) {
	p.inCallback.Store(true)
	defer p.inCallback.Store(false)
	p.cfg.SwapCallback(amount0, amount1, data)
}

func (p *Pool) checkTicks(lower, upper int) error {
	if lower >= upper || lower < tickmath.MinTick || upper > tickmath.MaxTick {
		return ErrInvalidTickRange
	}
	if lower%p.cfg.TickSpacing != 0 || upper%p.cfg.TickSpacing != 0 {
		return ErrInvalidTickSpacing
	}
	return nil
}

// Mint adds liquidity to the (owner, lower, upper) position, requests the
// owed amounts through the mint callback, and verifies custody balances
// grew accordingly. Returns the amounts of token0 and token1 the position
// required at the current price. Mint never moves the price.
func (p *Pool) Mint(owner common.Address, lower, upper int, amount *uint256.Int, data []byte) (*uint256.Int, *uint256.Int, error) {
	if err := p.begin(); err != nil {
		return nil, nil, err
	}
	defer p.mu.Unlock()

	if err := p.checkTicks(lower, upper); err != nil {
		return nil, nil, err
	}
	if amount == nil || amount.IsZero() || amount.Sign() < 0 {
		return nil, nil, ErrZeroLiquidity
	}

	saved := p.snapshot()
	amount0, amount1, err := p.modifyPosition(owner, lower, upper, amount)
	if err != nil {
		p.restore(saved)
		return nil, nil, err
	}

	balance0Before := p.Balance0()
	balance1Before := p.Balance1()
	p.invokeMintCallback(amount0, amount1, data)

	if !amount0.IsZero() {
		want := new(uint256.Int).Add(balance0Before, amount0)
		if p.Balance0().Lt(want) {
			p.restore(saved)
			return nil, nil, ErrInsufficientInputAmount
		}
	}
	if !amount1.IsZero() {
		want := new(uint256.Int).Add(balance1Before, amount1)
		if p.Balance1().Lt(want) {
			p.restore(saved)
			return nil, nil, ErrInsufficientInputAmount
		}
	}
	return amount0, amount1, nil
}

// Burn removes liquidity from the (owner, lower, upper) position and
// transfers the freed amounts from pool custody to the owner. The position
// record persists at zero liquidity after a full burn.
func (p *Pool) Burn(owner common.Address, lower, upper int, amount *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if err := p.begin(); err != nil {
		return nil, nil, err
	}
	defer p.mu.Unlock()

	if err := p.checkTicks(lower, upper); err != nil {
		return nil, nil, err
	}
	if amount == nil || amount.IsZero() || amount.Sign() < 0 {
		return nil, nil, ErrZeroLiquidity
	}

	saved := p.snapshot()
	delta := new(uint256.Int).Neg(amount)
	amount0, amount1, err := p.modifyPosition(owner, lower, upper, delta)
	if err != nil {
		p.restore(saved)
		return nil, nil, err
	}

	// modifyPosition returns negative amounts for removals; the pool owes
	// their magnitudes to the owner.
	owed0 := new(uint256.Int).Neg(amount0)
	owed1 := new(uint256.Int).Neg(amount1)
	if !owed0.IsZero() {
		if err := p.cfg.Token0.Transfer(p.cfg.Address, owner, owed0); err != nil {
			p.restore(saved)
			return nil, nil, err
		}
	}
	if !owed1.IsZero() {
		if err := p.cfg.Token1.Transfer(p.cfg.Address, owner, owed1); err != nil {
			p.restore(saved)
			return nil, nil, err
		}
	}
	return owed0, owed1, nil
}

// modifyPosition applies a signed liquidity delta to a position and its
// boundary ticks and returns the signed token amounts the change is worth at
// the current price. Ranges straddling the current tick also move active
// liquidity; the price itself never changes here.
func (p *Pool) modifyPosition(owner common.Address, lower, upper int, liquidityDelta *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if err := p.positions.update(PositionKey{Owner: owner, Lower: lower, Upper: upper}, liquidityDelta); err != nil {
		return nil, nil, err
	}

	flippedLower, err := p.ticks.update(lower, liquidityDelta, false)
	if err != nil {
		return nil, nil, err
	}
	flippedUpper, err := p.ticks.update(upper, liquidityDelta, true)
	if err != nil {
		return nil, nil, err
	}
	if flippedLower {
		if err := p.bitmap.Flip(lower); err != nil {
			return nil, nil, err
		}
	}
	if flippedUpper {
		if err := p.bitmap.Flip(upper); err != nil {
			return nil, nil, err
		}
	}

	sqrtRatioLower, err := tickmath.SqrtRatioAtTick(lower)
	if err != nil {
		return nil, nil, err
	}
	sqrtRatioUpper, err := tickmath.SqrtRatioAtTick(upper)
	if err != nil {
		return nil, nil, err
	}

	amount0 := new(uint256.Int)
	amount1 := new(uint256.Int)
	switch {
	case p.tick < lower:
		// Range entirely above the current price: worth token0 only.
		amount0 = swapmath.SignedAmount0Delta(sqrtRatioLower, sqrtRatioUpper, liquidityDelta)
	case p.tick < upper:
		amount0 = swapmath.SignedAmount0Delta(p.sqrtPriceX96, sqrtRatioUpper, liquidityDelta)
		amount1 = swapmath.SignedAmount1Delta(sqrtRatioLower, p.sqrtPriceX96, liquidityDelta)
		p.liquidity.Add(p.liquidity, liquidityDelta)
	default:
		// Range entirely below the current price: worth token1 only.
		amount1 = swapmath.SignedAmount1Delta(sqrtRatioLower, sqrtRatioUpper, liquidityDelta)
	}
	return amount0, amount1, nil
}
