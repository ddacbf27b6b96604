package pool

import (
	"testing"

	"github.com/holiman/uint256"
)

func bitSet(word *uint256.Int, pos uint) bool {
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), pos)
	return !new(uint256.Int).And(word, mask).IsZero()
}

func TestBitmapFlipAndWord(t *testing.T) {
	b := newTickBitmap(10)

	if err := b.Flip(84220); err != nil {
		t.Fatalf("flip 84220: %v", err)
	}
	// 84220/10 = 8422, word 32, bit 230.
	word := b.Word(32)
	if word.IsZero() {
		t.Fatalf("word 32 still zero after flip")
	}
	if !bitSet(word, 230) {
		t.Fatalf("bit 230 of word 32 not set")
	}

	if err := b.Flip(84220); err != nil {
		t.Fatalf("second flip: %v", err)
	}
	if !b.Word(32).IsZero() {
		t.Fatalf("word 32 not cleared after flipping the bit back")
	}
	if len(b.words) != 0 {
		t.Fatalf("empty word kept in the map")
	}
}

func TestBitmapFlipMisaligned(t *testing.T) {
	b := newTickBitmap(10)
	if err := b.Flip(84225); err != ErrInvalidTickSpacing {
		t.Fatalf("misaligned flip err = %v, want %v", err, ErrInvalidTickSpacing)
	}
}

func TestBitmapNegativeTicks(t *testing.T) {
	b := newTickBitmap(10)
	if err := b.Flip(-10); err != nil {
		t.Fatalf("flip -10: %v", err)
	}
	// Compressed -1 lives in word -1 at bit 255.
	if !bitSet(b.Word(-1), 255) {
		t.Fatalf("bit 255 of word -1 not set for tick -10")
	}

	next, initialized := b.NextInitializedTickWithinOneWord(-5, true)
	if !initialized || next != -10 {
		t.Fatalf("search down from -5 = (%d, %v), want (-10, true)", next, initialized)
	}
}

func TestBitmapNextInitializedDown(t *testing.T) {
	b := newTickBitmap(10)
	for _, tick := range []int{84220, 85170, 86130} {
		if err := b.Flip(tick); err != nil {
			t.Fatalf("flip %d: %v", tick, err)
		}
	}

	next, initialized := b.NextInitializedTickWithinOneWord(85176, true)
	if !initialized || next != 85170 {
		t.Fatalf("search down from 85176 = (%d, %v), want (85170, true)", next, initialized)
	}

	// A tick sitting exactly on an initialized boundary finds itself.
	next, initialized = b.NextInitializedTickWithinOneWord(85170, true)
	if !initialized || next != 85170 {
		t.Fatalf("search down from 85170 = (%d, %v), want (85170, true)", next, initialized)
	}

	// 84220 lives in the previous word, so a one-word search from 85160
	// stops uninitialized at the word's lower edge.
	next, initialized = b.NextInitializedTickWithinOneWord(85160, true)
	if initialized || next != 84480 {
		t.Fatalf("search down from 85160 = (%d, %v), want (84480, false)", next, initialized)
	}
}

func TestBitmapNextInitializedUp(t *testing.T) {
	b := newTickBitmap(10)
	for _, tick := range []int{84220, 85170, 86130} {
		if err := b.Flip(tick); err != nil {
			t.Fatalf("flip %d: %v", tick, err)
		}
	}

	next, initialized := b.NextInitializedTickWithinOneWord(85176, false)
	if !initialized || next != 86130 {
		t.Fatalf("search up from 85176 = (%d, %v), want (86130, true)", next, initialized)
	}

	// Upward searches are strict: starting on an initialized tick skips it.
	next, initialized = b.NextInitializedTickWithinOneWord(85170, false)
	if !initialized || next != 86130 {
		t.Fatalf("search up from 85170 = (%d, %v), want (86130, true)", next, initialized)
	}

	next, initialized = b.NextInitializedTickWithinOneWord(84210, false)
	if !initialized || next != 84220 {
		t.Fatalf("search up from 84210 = (%d, %v), want (84220, true)", next, initialized)
	}
}

func TestBitmapSearchStopsAtWordBoundary(t *testing.T) {
	b := newTickBitmap(10)

	// Empty bitmap: the search reports the edge of the current word so the
	// caller can continue in the next one.
	next, initialized := b.NextInitializedTickWithinOneWord(85176, true)
	if initialized {
		t.Fatalf("empty bitmap reported an initialized tick at %d", next)
	}
	// 8517 >> 8 = 33; word 33 starts at compressed 8448.
	if next != 84480 {
		t.Fatalf("downward boundary = %d, want 84480", next)
	}

	next, initialized = b.NextInitializedTickWithinOneWord(85176, false)
	if initialized {
		t.Fatalf("empty bitmap reported an initialized tick at %d", next)
	}
	// Word 33 ends at compressed 8703.
	if next != 87030 {
		t.Fatalf("upward boundary = %d, want 87030", next)
	}
}
