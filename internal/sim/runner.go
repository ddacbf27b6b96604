package sim

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"clpool/internal/fixedpoint"
	"clpool/internal/model"
	"clpool/internal/pool"
	"clpool/internal/storage"
	"clpool/internal/token"
)

// Runner executes a scenario's ops against a freshly built pool, logging and
// recording each outcome. The same scenario always yields the same records.
type Runner struct {
	scenario Scenario
	storage  storage.Storage
	logger   *zap.Logger

	pool    *pool.Pool
	ledger0 *token.Ledger
	ledger1 *token.Ledger
	token0  common.Address
	token1  common.Address
}

// NewRunner builds the pool, the token ledgers, and the settlement callbacks
// for a scenario.
func NewRunner(sc Scenario, sink storage.Storage, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		scenario: sc,
		storage:  sink,
		logger:   logger,
		ledger0:  token.NewLedger(sc.Pool.Token0),
		ledger1:  token.NewLedger(sc.Pool.Token1),
		token0:   tokenAddress(sc.Pool.Token0),
		token1:   tokenAddress(sc.Pool.Token1),
	}

	poolAddr := poolAddress(sc.Pool)
	sqrtPriceX96, err := startingPrice(sc.Pool)
	if err != nil {
		return nil, err
	}

	p, err := pool.New(pool.Config{
		Address:      poolAddr,
		Token0:       r.ledger0,
		Token1:       r.ledger1,
		TickSpacing:  sc.Pool.TickSpacing,
		SqrtPriceX96: sqrtPriceX96,
		MintCallback: r.payMint,
		SwapCallback: r.paySwap,
	})
	if err != nil {
		return nil, fmt.Errorf("build pool: %w", err)
	}
	r.pool = p

	for _, account := range sc.Funding {
		addr := common.HexToAddress(account.Address)
		if account.Balance0 != "" {
			amount, err := uint256.FromDecimal(account.Balance0)
			if err != nil {
				return nil, fmt.Errorf("funding %s balance0: %w", account.Address, err)
			}
			r.ledger0.Mint(addr, amount)
		}
		if account.Balance1 != "" {
			amount, err := uint256.FromDecimal(account.Balance1)
			if err != nil {
				return nil, fmt.Errorf("funding %s balance1: %w", account.Address, err)
			}
			r.ledger1.Mint(addr, amount)
		}
	}

	return r, nil
}

// Pool exposes the runner's pool for inspection after a run.
func (r *Runner) Pool() *pool.Pool { return r.pool }

// Run executes the scenario ops in order and writes the resulting event
// records to storage.
func (r *Runner) Run(ctx context.Context) ([]model.EventRecord, error) {
	records := make([]model.EventRecord, 0, len(r.scenario.Ops))

	for i, op := range r.scenario.Ops {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		record, err := r.apply(i, op)
		if err != nil {
			return records, fmt.Errorf("op %d (%s): %w", i, op.Type, err)
		}
		records = append(records, record)
	}

	if r.storage != nil {
		if err := r.storage.PutEventBatch(records); err != nil {
			return records, fmt.Errorf("store events: %w", err)
		}
	}
	return records, nil
}

func (r *Runner) apply(seq int, op Op) (model.EventRecord, error) {
	owner := common.HexToAddress(op.Owner)
	record := model.EventRecord{
		Seq:        seq,
		Kind:       op.Type,
		Owner:      owner.Hex(),
		ExecutedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	var amount0, amount1 *uint256.Int
	switch op.Type {
	case model.KindMint:
		liquidity, err := uint256.FromDecimal(op.Liquidity)
		if err != nil {
			return record, fmt.Errorf("liquidity: %w", err)
		}
		data, err := pool.PackCallbackData(pool.CallbackData{
			Token0: r.token0,
			Token1: r.token1,
			Payer:  owner,
		})
		if err != nil {
			return record, err
		}
		amount0, amount1, err = r.pool.Mint(owner, op.TickLower, op.TickUpper, liquidity, data)
		if err != nil {
			return record, err
		}
		record.TickLower = op.TickLower
		record.TickUpper = op.TickUpper
		record.Liquidity = liquidity.Dec()

	case model.KindBurn:
		liquidity, err := uint256.FromDecimal(op.Liquidity)
		if err != nil {
			return record, fmt.Errorf("liquidity: %w", err)
		}
		owed0, owed1, err := r.pool.Burn(owner, op.TickLower, op.TickUpper, liquidity)
		if err != nil {
			return record, err
		}
		amount0 = new(uint256.Int).Neg(owed0)
		amount1 = new(uint256.Int).Neg(owed1)
		record.TickLower = op.TickLower
		record.TickUpper = op.TickUpper
		record.Liquidity = liquidity.Dec()

	case model.KindSwap:
		params, err := r.swapParams(op, owner)
		if err != nil {
			return record, err
		}
		record.Recipient = params.Recipient.Hex()
		amount0, amount1, err = r.pool.Swap(params)
		if err != nil {
			return record, err
		}

	default:
		return record, fmt.Errorf("unknown op type %q", op.Type)
	}

	sqrtPriceX96, tick := r.pool.Slot0()
	record.Amount0 = fixedpoint.SignedString(amount0)
	record.Amount1 = fixedpoint.SignedString(amount1)
	record.SqrtPriceX96 = sqrtPriceX96.Dec()
	record.Tick = tick
	record.PoolLiquidity = r.pool.Liquidity().Dec()

	r.logger.Info("op applied",
		zap.Int("seq", seq),
		zap.String("kind", op.Type),
		zap.String("amount0", record.Amount0),
		zap.String("amount1", record.Amount1),
		zap.Int("tick", tick),
	)
	return record, nil
}

func (r *Runner) swapParams(op Op, owner common.Address) (pool.SwapParams, error) {
	amount, err := signedFromDecimal(op.Amount)
	if err != nil {
		return pool.SwapParams{}, fmt.Errorf("amount: %w", err)
	}

	params := pool.SwapParams{
		ZeroForOne:      op.ZeroForOne,
		AmountSpecified: amount,
		Recipient:       owner,
	}
	if op.Recipient != "" {
		params.Recipient = common.HexToAddress(op.Recipient)
	}
	if op.SqrtPriceLimitX96 != "" {
		limit, err := uint256.FromDecimal(op.SqrtPriceLimitX96)
		if err != nil {
			return pool.SwapParams{}, fmt.Errorf("sqrt price limit: %w", err)
		}
		params.SqrtPriceLimitX96 = limit
	}
	if op.MinAmountOut != "" {
		minOut, err := uint256.FromDecimal(op.MinAmountOut)
		if err != nil {
			return pool.SwapParams{}, fmt.Errorf("min amount out: %w", err)
		}
		params.MinAmountOut = minOut
	}

	params.Data, err = pool.PackCallbackData(pool.CallbackData{
		Token0: r.token0,
		Token1: r.token1,
		Payer:  owner,
	})
	if err != nil {
		return pool.SwapParams{}, err
	}
	return params, nil
}

// payMint settles a mint by moving the owed amounts from the payer into pool
// custody. Failures are logged only; the engine detects shortfalls itself by
// re-reading balances.
func (r *Runner) payMint(amount0, amount1 *uint256.Int, data []byte) {
	payload, err := pool.UnpackCallbackData(data)
	if err != nil {
		r.logger.Warn("mint callback data", zap.Error(err))
		return
	}
	if !amount0.IsZero() {
		if err := r.ledger0.Transfer(payload.Payer, r.pool.Address(), amount0); err != nil {
			r.logger.Warn("mint payment token0", zap.Error(err))
		}
	}
	if !amount1.IsZero() {
		if err := r.ledger1.Transfer(payload.Payer, r.pool.Address(), amount1); err != nil {
			r.logger.Warn("mint payment token1", zap.Error(err))
		}
	}
}

// paySwap settles the input side of a swap from the payer.
func (r *Runner) paySwap(amount0, amount1 *uint256.Int, data []byte) {
	payload, err := pool.UnpackCallbackData(data)
	if err != nil {
		r.logger.Warn("swap callback data", zap.Error(err))
		return
	}
	if amount0.Sign() > 0 {
		if err := r.ledger0.Transfer(payload.Payer, r.pool.Address(), amount0); err != nil {
			r.logger.Warn("swap payment token0", zap.Error(err))
		}
	}
	if amount1.Sign() > 0 {
		if err := r.ledger1.Transfer(payload.Payer, r.pool.Address(), amount1); err != nil {
			r.logger.Warn("swap payment token1", zap.Error(err))
		}
	}
}

// State returns the pool's serializable snapshot.
func (r *Runner) State() model.PoolState {
	sqrtPriceX96, tick := r.pool.Slot0()
	return model.PoolState{
		Address:      r.pool.Address().Hex(),
		Token0:       r.scenario.Pool.Token0,
		Token1:       r.scenario.Pool.Token1,
		TickSpacing:  r.pool.TickSpacing(),
		SqrtPriceX96: sqrtPriceX96.Dec(),
		Tick:         tick,
		Liquidity:    r.pool.Liquidity().Dec(),
		Balance0:     r.pool.Balance0().Dec(),
		Balance1:     r.pool.Balance1().Dec(),
	}
}

func startingPrice(spec PoolSpec) (*uint256.Int, error) {
	if spec.SqrtPriceX96 != "" {
		sqrtPriceX96, err := uint256.FromDecimal(spec.SqrtPriceX96)
		if err != nil {
			return nil, fmt.Errorf("sqrt_price_x96: %w", err)
		}
		return sqrtPriceX96, nil
	}
	price, ok := new(big.Int).SetString(spec.Price, 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("invalid pool price %q", spec.Price)
	}
	return fixedpoint.EncodeSqrtRatioX96(price, big.NewInt(1)), nil
}

func signedFromDecimal(s string) (*uint256.Int, error) {
	if len(s) > 0 && s[0] == '-' {
		abs, err := uint256.FromDecimal(s[1:])
		if err != nil {
			return nil, err
		}
		return new(uint256.Int).Neg(abs), nil
	}
	return uint256.FromDecimal(s)
}

func tokenAddress(symbol string) common.Address {
	hash := crypto.Keccak256([]byte("clpool/token/" + symbol))
	return common.BytesToAddress(hash[12:])
}

func poolAddress(spec PoolSpec) common.Address {
	if spec.Address != "" {
		return common.HexToAddress(spec.Address)
	}
	hash := crypto.Keccak256([]byte("clpool/pool/" + spec.Token0 + "/" + spec.Token1))
	return common.BytesToAddress(hash[12:])
}
