// Package huffpack compresses byte strings with a Huffman code.
//
// Compress packs the codewords MSB-first into a dense bitstream and
// returns the Table needed to reverse it. Decode recovers the original
// bytes from the bitstream and the Table.
package huffpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("huffpack")

var (
	ErrNoSymbols       = errors.New("no symbols to build a Huffman tree from")
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	ErrWeightOverflow  = errors.New("total weight overflows")
	ErrCodeTooLong     = errors.New("codeword too long")
	ErrMissingCode     = errors.New("no codeword for symbol")
	ErrInvalidTable    = errors.New("invalid decoding table")
	ErrCorruptStream   = errors.New("corrupt stream")
	ErrChecksum        = errors.New("checksum mismatch")
)

func init() {
	// Quiet unless a program configures logging itself.
	logging.SetLevel(logging.WARNING, "huffpack")
}

// Returns a compressed version of data together with the table to
// decompress it.
func Encode(data []byte) ([]byte, *Table, error) {
	buf := new(bytes.Buffer)
	t, err := Compress(buf, data)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), t, nil
}

// Writes a compressed version of data to w.
//
// Returns the table required to decompress it.
func Compress(w io.Writer, data []byte) (*Table, error) {
	codes, err := BuildCodebook(CountFrequencies(data))
	if err != nil {
		return nil, err
	}

	sum := xxhash.Sum64(data)
	t := &Table{
		Count:    uint64(len(data)),
		Codes:    codes,
		Checksum: &sum,
	}

	if err := Pack(w, data, codes); err != nil {
		return nil, err
	}

	return t, nil
}

// Writes the codewords of the bytes of data to w.
//
// The last byte is padded with zero bits.
func Pack(w io.Writer, data []byte, codes Codebook) error {
	var (
		lut  [256]Code
		have [256]bool
	)

	for s, entry := range codes {
		lut[s] = entry
		have[s] = true
	}

	bw := newBitWriter(w)

	for i, b := range data {
		if !have[b] {
			return fmt.Errorf("%w 0x%02x at offset %d", ErrMissingCode, b, i)
		}

		bw.WriteBits(lut[b].Value, int(lut[b].Length))
		if err := bw.Err(); err != nil {
			return err
		}
	}

	if err := bw.Close(); err != nil {
		return err
	}

	log.Debugf(
		"packed %d symbols into %d bits, %d distinct",
		len(data),
		bw.written,
		len(codes),
	)

	return nil
}
