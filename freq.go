package huffpack

import (
	"math"
	"math/bits"
)

// Occurrence count of each byte value
type Frequencies [256]uint64

// A distinct symbol together with its number of occurrences
type FreqEntry struct {
	Symbol byte
	Count  uint64
}

// Counts the occurrences of each byte in data.
func CountFrequencies(data []byte) *Frequencies {
	var f Frequencies
	for _, b := range data {
		f[b]++
	}
	return &f
}

// Returns an entry for each symbol that occurs, by ascending symbol value.
//
// This order is the insertion order BuildTree uses to break ties.
func (f *Frequencies) Entries() []FreqEntry {
	ret := []FreqEntry{}
	for i, c := range f {
		if c == 0 {
			continue
		}
		ret = append(ret, FreqEntry{Symbol: byte(i), Count: c})
	}
	return ret
}

// Total number of symbols counted.
func (f *Frequencies) Total() uint64 {
	var n uint64
	for _, c := range f {
		n += c
	}
	return n
}

// Returns the number of bits needed to pack symbols with the given
// frequencies using codes.
//
// Saturates at math.MaxUint64 instead of overflowing.
func EncodedBits(f *Frequencies, codes Codebook) uint64 {
	var n uint64
	for s, entry := range codes {
		hi, lo := bits.Mul64(f[s], uint64(entry.Length))
		if hi != 0 {
			return math.MaxUint64
		}

		var carry uint64
		n, carry = bits.Add64(n, lo, 0)
		if carry != 0 {
			return math.MaxUint64
		}
	}
	return n
}
