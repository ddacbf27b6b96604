package pool

import (
	"github.com/holiman/uint256"
)

// tickBitmap marks initialized ticks with one bit per tick, grouped into
// 256-tick words keyed by word position. Ticks are compressed by the pool's
// tick spacing before indexing, so a bit covers one usable tick.
type tickBitmap struct {
	words       map[int16]*uint256.Int
	tickSpacing int
}

func newTickBitmap(tickSpacing int) *tickBitmap {
	return &tickBitmap{
		words:       make(map[int16]*uint256.Int),
		tickSpacing: tickSpacing,
	}
}

// position splits a compressed tick into its word index and in-word bit.
// The arithmetic shift floors for negative ticks; the low byte is the bit.
func position(compressed int) (wordPos int16, bitPos uint) {
	return int16(compressed >> 8), uint(compressed & 0xff)
}

func (b *tickBitmap) compress(tick int) int {
	compressed := tick / b.tickSpacing
	if tick < 0 && tick%b.tickSpacing != 0 {
		compressed--
	}
	return compressed
}

// Flip toggles the initialized bit for tick. The tick must lie on a spacing
// boundary.
func (b *tickBitmap) Flip(tick int) error {
	if tick%b.tickSpacing != 0 {
		return ErrInvalidTickSpacing
	}
	wordPos, bitPos := position(tick / b.tickSpacing)

	word, ok := b.words[wordPos]
	if !ok {
		word = new(uint256.Int)
		b.words[wordPos] = word
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), bitPos)
	word.Xor(word, mask)
	if word.IsZero() {
		delete(b.words, wordPos)
	}
	return nil
}

// Word returns the 256-bit word at wordPos; absent words read as zero.
func (b *tickBitmap) Word(wordPos int16) *uint256.Int {
	if word, ok := b.words[wordPos]; ok {
		return new(uint256.Int).Set(word)
	}
	return new(uint256.Int)
}

// NextInitializedTickWithinOneWord searches one word for the next
// initialized tick from tick, toward lower ticks when lte is true and toward
// strictly higher ticks otherwise. When the word holds no such bit the
// returned tick is the word boundary and initialized is false; the caller
// continues from there into the adjacent word.
func (b *tickBitmap) NextInitializedTickWithinOneWord(tick int, lte bool) (next int, initialized bool) {
	compressed := b.compress(tick)

	if lte {
		wordPos, bitPos := position(compressed)
		word := b.Word(wordPos)

		// Bits at or below the current position.
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), bitPos)
		mask.Add(mask.Sub(mask, uint256.NewInt(1)), new(uint256.Int).Lsh(uint256.NewInt(1), bitPos))
		masked := word.And(word, mask)

		if masked.IsZero() {
			return (compressed - int(bitPos)) * b.tickSpacing, false
		}
		msb := masked.BitLen() - 1
		return (compressed - int(bitPos) + msb) * b.tickSpacing, true
	}

	wordPos, bitPos := position(compressed + 1)
	word := b.Word(wordPos)

	// Bits at or above the next position.
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), bitPos)
	mask.Sub(mask, uint256.NewInt(1))
	mask.Not(mask)
	masked := word.And(word, mask)

	if masked.IsZero() {
		return (compressed + 1 + int(255-bitPos)) * b.tickSpacing, false
	}
	lsb := leastSignificantBit(masked)
	return (compressed + 1 + int(lsb)-int(bitPos)) * b.tickSpacing, true
}

func leastSignificantBit(x *uint256.Int) uint {
	isolated := new(uint256.Int).And(x, new(uint256.Int).Neg(x))
	return uint(isolated.BitLen() - 1)
}
