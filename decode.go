package huffpack

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Option configures Decode.
type Option func(*decodeConfig)

type decodeConfig struct {
	lookupTree   bool
	skipChecksum bool
}

// WithLookupTree makes Decode walk a binary tree built from the table
// instead of probing codeword lengths. The result is the same.
func WithLookupTree() Option {
	return func(c *decodeConfig) {
		c.lookupTree = true
	}
}

// WithoutChecksum skips verification of the table's checksum. Tables
// without a checksum are never verified.
func WithoutChecksum() Option {
	return func(c *decodeConfig) {
		c.skipChecksum = true
	}
}

// Recovers one symbol at a time from a bitstream.
type symbolReader interface {
	next(br *bitReader) (byte, error)
}

// Decompresses packed, which must have been produced with the codes in t.
//
// Exactly t.Count symbols are decoded; the padding in the final byte is
// ignored.
func Decode(packed []byte, t *Table, opts ...Option) ([]byte, error) {
	var cfg decodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if t == nil {
		return nil, fmt.Errorf("%w: no table", ErrInvalidTable)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	// Every codeword is at least one bit long.
	if t.Count > 8*uint64(len(packed)) {
		return nil, fmt.Errorf(
			"%w: %d symbols do not fit in %d bytes",
			ErrCorruptStream,
			t.Count,
			len(packed),
		)
	}

	var sr symbolReader
	if cfg.lookupTree {
		sr = newLookupTree(t.Codes)
	} else {
		sr = newProbingReader(t.Codes)
	}

	br := newBitReader(packed)
	ret := make([]byte, t.Count)

	for i := range ret {
		s, err := sr.next(br)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
		ret[i] = s
	}

	log.Debugf(
		"decoded %d symbols from %d of %d bits",
		len(ret),
		br.Pos(),
		br.Len(),
	)

	if !cfg.skipChecksum && t.Checksum != nil && xxhash.Sum64(ret) != *t.Checksum {
		return nil, ErrChecksum
	}

	return ret, nil
}

// Finds codewords by trying each length in turn, shortest first.
//
// As the code is prefix free, at most one length matches at any position.
type probingReader struct {
	symbols []map[uint64]byte // codeword length → value → symbol
}

func newProbingReader(codes Codebook) *probingReader {
	r := &probingReader{
		symbols: make([]map[uint64]byte, codes.MaxLength()+1),
	}

	for s, entry := range codes {
		if r.symbols[entry.Length] == nil {
			r.symbols[entry.Length] = make(map[uint64]byte)
		}
		r.symbols[entry.Length][entry.Value] = s
	}

	return r
}

func (r *probingReader) next(br *bitReader) (byte, error) {
	for l := 1; l < len(r.symbols); l++ {
		value, ok := br.Peek(l)
		if !ok {
			return 0, fmt.Errorf(
				"%w: stream ends at bit %d",
				ErrCorruptStream,
				br.Len(),
			)
		}

		if s, ok := r.symbols[l][value]; ok {
			br.Skip(l)
			return s, nil
		}
	}

	return 0, fmt.Errorf(
		"%w: no codeword at bit %d",
		ErrCorruptStream,
		br.Pos(),
	)
}

// Binary tree used to decode
//
// Root is at index 0. lookupTree[i][b] is zero if no codeword continues
// with bit b from the ith node, treeLeaf | symbol if a codeword ends there,
// and the index of the next node otherwise.
type lookupTree [][2]uint16

const treeLeaf = 0x8000

func newLookupTree(codes Codebook) lookupTree {
	tree := lookupTree{{0, 0}}

	for s, entry := range codes {
		node := 0

		for i := int(entry.Length) - 1; i > 0; i-- {
			bit := entry.Value >> i & 1
			next := tree[node][bit]

			if next == 0 {
				next = uint16(len(tree))
				tree = append(tree, [2]uint16{0, 0})
				tree[node][bit] = next
			}

			node = int(next)
		}

		tree[node][entry.Value&1] = treeLeaf | uint16(s)
	}

	return tree
}

func (t lookupTree) next(br *bitReader) (byte, error) {
	start := br.Pos()
	node := 0

	for {
		bit, ok := br.ReadBit()
		if !ok {
			return 0, fmt.Errorf(
				"%w: stream ends at bit %d",
				ErrCorruptStream,
				br.Len(),
			)
		}

		next := t[node][bit]
		if next == 0 {
			return 0, fmt.Errorf(
				"%w: no codeword at bit %d",
				ErrCorruptStream,
				start,
			)
		}

		if next&treeLeaf != 0 {
			return byte(next), nil
		}

		node = int(next)
	}
}
