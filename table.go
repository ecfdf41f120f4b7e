package huffpack

import (
	"fmt"
	"io"
	"slices"
	"unicode"

	json "github.com/json-iterator/go"
)

// Everything needed besides the packed bitstream to recover the original
// bytes.
//
// A Table is never modified by Decode and may be shared between concurrent
// calls.
type Table struct {
	Count    uint64   `json:"count"`              // number of symbols in the original
	Codes    Codebook `json:"codes"`              // codeword of each symbol
	Checksum *uint64  `json:"checksum,omitempty"` // xxhash of the original, if known
}

// Sorted map keys make the serialized table reproducible.
var tableJSON = json.ConfigCompatibleWithStandardLibrary

// Writes t as indented JSON.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	data, err := tableJSON.MarshalIndent(t, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	n, err := w.Write(data)
	return int64(n), err
}

// Reads a table written by WriteTo and checks it with Validate.
func ReadTable(r io.Reader) (*Table, error) {
	var t Table

	if err := tableJSON.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

// Checks that the codewords form a prefix code and agree with the count.
func (t *Table) Validate() error {
	if (t.Count == 0) != (len(t.Codes) == 0) {
		return fmt.Errorf(
			"%w: %d symbols but %d codes",
			ErrInvalidTable,
			t.Count,
			len(t.Codes),
		)
	}

	type symbolCode struct {
		symbol byte
		Code
	}

	scs := make([]symbolCode, 0, len(t.Codes))
	for s, entry := range t.Codes {
		if entry.Length == 0 || entry.Length > MaxCodeLength {
			return fmt.Errorf(
				"%w: symbol 0x%02x has code length %d",
				ErrInvalidTable,
				s,
				entry.Length,
			)
		}

		if entry.Length < 64 && entry.Value>>entry.Length != 0 {
			return fmt.Errorf(
				"%w: symbol 0x%02x has value %d wider than %d bits",
				ErrInvalidTable,
				s,
				entry.Value,
				entry.Length,
			)
		}

		scs = append(scs, symbolCode{s, entry})
	}

	// In lexicographic order, a codeword that is a prefix of others is
	// directly followed by one of them.
	slices.SortFunc(scs, func(a, b symbolCode) int {
		ka, kb := a.Value<<(64-a.Length), b.Value<<(64-b.Length)
		if ka != kb {
			if ka < kb {
				return -1
			}
			return 1
		}
		return int(a.Length) - int(b.Length)
	})

	for i := 1; i < len(scs); i++ {
		a, b := scs[i-1], scs[i]
		if a.Length <= b.Length && b.Value>>(b.Length-a.Length) == a.Value {
			return fmt.Errorf(
				"%w: code %v of 0x%02x is a prefix of code %v of 0x%02x",
				ErrInvalidTable,
				a.Code,
				a.symbol,
				b.Code,
				b.symbol,
			)
		}
	}

	return nil
}

// Returns the length of the longest codeword.
func (t *Table) MaxLength() int {
	return t.Codes.MaxLength()
}

// Writes the codebook in human readable form, by ascending symbol.
func (t *Table) Print(w io.Writer) {
	symbols := make([]byte, 0, len(t.Codes))
	for s := range t.Codes {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	fmt.Fprintf(w, "symbols %d\n", t.Count)

	for _, s := range symbols {
		shown := '.'
		if r := rune(s); r < unicode.MaxASCII && unicode.IsPrint(r) {
			shown = r
		}

		entry := t.Codes[s]
		fmt.Fprintf(w, "0x%02x %c %2d %v\n", s, shown, entry.Length, entry)
	}
}
