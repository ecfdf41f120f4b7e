package huffpack

import (
	"bufio"
	"errors"
	"io"
)

// Reads bits MSB-first from a packed bitstream held in memory.
type bitReader struct {
	data []byte
	pos  uint64 // offset in bits from the start of data
}

// Writes bits MSB-first. The final byte is padded with zero bits.
type bitWriter struct {
	w       *bufio.Writer
	offset  int    // number of bits held in buf; less than 8 between calls
	buf     uint64 // held bits in the low end
	written uint64 // total number of bits written
	err     error
}

var errClosed = errors.New("bitWriter is closed")

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func newBitWriter(w io.Writer) *bitWriter {
	return &bitWriter{
		w: bufio.NewWriter(w),
	}
}

func (w *bitWriter) Err() error {
	return w.err
}

// Writes the held bits, padded with zeroes to a full byte, and flushes.
func (w *bitWriter) Close() error {
	if w.err != nil {
		return w.err
	}

	if w.offset > 0 {
		w.err = w.w.WriteByte(byte(w.buf << (8 - w.offset)))
		w.offset = 0
		w.buf = 0

		if w.err != nil {
			return w.err
		}
	}

	w.err = w.w.Flush()
	if w.err != nil {
		return w.err
	}

	w.err = errClosed
	return nil
}

// Writes the l least significant bits of bs, most significant first.
func (w *bitWriter) WriteBits(bs uint64, l int) {
	if w.err != nil {
		return
	}

	w.written += uint64(l)

	// With fewer than 8 bits held, 56 more still fit in buf.
	for l > 0 {
		k := min(l, 56)
		l -= k

		w.buf = w.buf<<k | (bs>>l)&(uint64(1)<<k-1)
		w.offset += k

		for w.offset >= 8 {
			w.offset -= 8
			w.err = w.w.WriteByte(byte(w.buf >> w.offset))
			if w.err != nil {
				return
			}
			w.buf &= uint64(1)<<w.offset - 1
		}
	}
}

// Number of bits in the stream.
func (r *bitReader) Len() uint64 {
	return 8 * uint64(len(r.data))
}

// Position of the cursor in bits.
func (r *bitReader) Pos() uint64 {
	return r.pos
}

// Returns the l ≤ 64 bits at the cursor as an MSB-first integer without
// advancing. Returns false if fewer than l bits remain.
func (r *bitReader) Peek(l int) (uint64, bool) {
	if r.pos+uint64(l) > r.Len() {
		return 0, false
	}

	var ret uint64
	pos := r.pos

	for l > 0 {
		avail := 8 - int(pos%8)
		k := min(avail, l)

		bs := uint64(r.data[pos/8]) >> (avail - k) & (uint64(1)<<k - 1)
		ret = ret<<k | bs

		pos += uint64(k)
		l -= k
	}

	return ret, true
}

func (r *bitReader) Skip(l int) {
	r.pos += uint64(l)
}

// Reads a single bit. Returns false at the end of the stream.
func (r *bitReader) ReadBit() (byte, bool) {
	if r.pos >= r.Len() {
		return 0, false
	}

	ret := r.data[r.pos/8] >> (7 - r.pos%8) & 1
	r.pos++

	return ret, true
}
