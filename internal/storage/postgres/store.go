package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clpool/internal/model"
)

// Store provides Postgres persistence for pool states and events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPoolState inserts or updates the snapshot row for a pool.
func (s *Store) UpsertPoolState(ctx context.Context, state model.PoolState) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_states (
			pool_address, token0, token1, tick_spacing,
			sqrt_price_x96, tick, liquidity, balance0, balance1, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick = EXCLUDED.tick,
			liquidity = EXCLUDED.liquidity,
			balance0 = EXCLUDED.balance0,
			balance1 = EXCLUDED.balance1,
			updated_at = now()
	`,
		state.Address,
		state.Token0,
		state.Token1,
		state.TickSpacing,
		state.SqrtPriceX96,
		state.Tick,
		state.Liquidity,
		state.Balance0,
		state.Balance1,
	)
	return err
}

// InsertEvents appends executed operation records for a pool.
func (s *Store) InsertEvents(ctx context.Context, poolAddress string, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO pool_events (
				pool_address, seq, kind, owner, recipient,
				tick_lower, tick_upper, liquidity,
				amount0, amount1, sqrt_price_x96, tick, pool_liquidity, executed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (pool_address, seq) DO NOTHING
		`,
			poolAddress,
			e.Seq,
			e.Kind,
			e.Owner,
			e.Recipient,
			e.TickLower,
			e.TickUpper,
			e.Liquidity,
			e.Amount0,
			e.Amount1,
			e.SqrtPriceX96,
			e.Tick,
			e.PoolLiquidity,
			e.ExecutedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
