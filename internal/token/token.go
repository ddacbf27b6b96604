// Package token provides an in-memory asset ledger implementing the custody
// surface the pool engine settles against. Real deployments would back this
// with actual token transfers; the engine only ever reads balances and asks
// for transfers.
package token

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrInsufficientBalance = errors.New("insufficient token balance")

// Ledger is a single asset's balance book.
type Ledger struct {
	symbol string

	mu       sync.RWMutex
	balances map[common.Address]*uint256.Int
}

func NewLedger(symbol string) *Ledger {
	return &Ledger{
		symbol:   symbol,
		balances: make(map[common.Address]*uint256.Int),
	}
}

func (l *Ledger) Symbol() string { return l.symbol }

// Mint credits freshly issued units to an account.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[to]
	if !ok {
		balance = new(uint256.Int)
		l.balances[to] = balance
	}
	balance.Add(balance, amount)
}

// BalanceOf returns the account's balance; unknown accounts read as zero.
func (l *Ledger) BalanceOf(owner common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if balance, ok := l.balances[owner]; ok {
		return new(uint256.Int).Set(balance)
	}
	return new(uint256.Int)
}

// Transfer moves amount between accounts.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance, ok := l.balances[from]
	if !ok || fromBalance.Lt(amount) {
		return ErrInsufficientBalance
	}
	toBalance, ok := l.balances[to]
	if !ok {
		toBalance = new(uint256.Int)
		l.balances[to] = toBalance
	}
	fromBalance.Sub(fromBalance, amount)
	toBalance.Add(toBalance, amount)
	return nil
}
