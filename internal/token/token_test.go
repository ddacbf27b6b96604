package token

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestLedger(t *testing.T) {
	ledger := NewLedger("WETH")
	if ledger.Symbol() != "WETH" {
		t.Fatalf("symbol = %q, want WETH", ledger.Symbol())
	}

	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")

	ledger.Mint(alice, uint256.NewInt(1000))
	ledger.Mint(alice, uint256.NewInt(500))
	if got := ledger.BalanceOf(alice); got.Uint64() != 1500 {
		t.Fatalf("alice balance = %s, want 1500", got.Dec())
	}
	if got := ledger.BalanceOf(bob); !got.IsZero() {
		t.Fatalf("bob balance = %s, want 0", got.Dec())
	}

	if err := ledger.Transfer(alice, bob, uint256.NewInt(600)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.BalanceOf(alice); got.Uint64() != 900 {
		t.Fatalf("alice balance = %s, want 900", got.Dec())
	}
	if got := ledger.BalanceOf(bob); got.Uint64() != 600 {
		t.Fatalf("bob balance = %s, want 600", got.Dec())
	}
}

func TestLedgerTransferInsufficient(t *testing.T) {
	ledger := NewLedger("USDC")
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")
	ledger.Mint(alice, uint256.NewInt(100))

	if err := ledger.Transfer(alice, bob, uint256.NewInt(200)); err != ErrInsufficientBalance {
		t.Fatalf("overdraft err = %v, want %v", err, ErrInsufficientBalance)
	}
	// A failed transfer must not move anything.
	if got := ledger.BalanceOf(alice); got.Uint64() != 100 {
		t.Fatalf("alice balance = %s, want 100", got.Dec())
	}
	if err := ledger.Transfer(bob, alice, uint256.NewInt(1)); err != ErrInsufficientBalance {
		t.Fatalf("unknown sender err = %v, want %v", err, ErrInsufficientBalance)
	}
}

func TestLedgerBalanceCopies(t *testing.T) {
	ledger := NewLedger("WETH")
	alice := common.HexToAddress("0x01")
	ledger.Mint(alice, uint256.NewInt(100))

	balance := ledger.BalanceOf(alice)
	balance.SetUint64(0)
	if got := ledger.BalanceOf(alice); got.Uint64() != 100 {
		t.Fatalf("caller mutated the ledger through a returned balance")
	}
}
