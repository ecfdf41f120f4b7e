package huffpack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableJSON(t *testing.T) {
	data := []byte("she sells sea shells by the sea shore")
	packed, table, err := Encode(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := table.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	require.Contains(t, buf.String(), `"count": 37`)

	loaded, err := ReadTable(&buf)
	require.NoError(t, err)
	require.Equal(t, table, loaded)

	decoded, err := Decode(packed, loaded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestReadTable(t *testing.T) {
	for name, tc := range map[string]string{
		"not json":      `{"count": `,
		"count no code": `{"count": 3, "codes": {}, "checksum": 0}`,
		"code no count": `{"count": 0, "codes": {"65": {"value": 0, "bits": 1}}}`,
		"zero length":   `{"count": 1, "codes": {"65": {"value": 0, "bits": 0}}}`,
		"too long":      `{"count": 1, "codes": {"65": {"value": 0, "bits": 65}}}`,
		"too wide":      `{"count": 1, "codes": {"65": {"value": 4, "bits": 2}}}`,
		"duplicate": `{"count": 2, "codes": {
			"65": {"value": 1, "bits": 2},
			"66": {"value": 1, "bits": 2}}}`,
		"prefix": `{"count": 3, "codes": {
			"65": {"value": 0, "bits": 1},
			"66": {"value": 2, "bits": 2},
			"67": {"value": 1, "bits": 3}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tc))
			require.ErrorIs(t, err, ErrInvalidTable)
		})
	}

	twelve := uint64(12)
	table, err := ReadTable(strings.NewReader(`{"count": 2, "codes": {
		"65": {"value": 0, "bits": 1},
		"66": {"value": 1, "bits": 1}}, "checksum": 12}`))
	require.NoError(t, err)
	require.Equal(t, &Table{
		Count:    2,
		Codes:    Codebook{'A': {0, 1}, 'B': {1, 1}},
		Checksum: &twelve,
	}, table)
	require.Equal(t, 1, table.MaxLength())

	table, err = ReadTable(strings.NewReader(`{"count": 1, "codes": {"65": {"value": 0, "bits": 1}}}`))
	require.NoError(t, err)
	require.Nil(t, table.Checksum)

	var buf bytes.Buffer
	_, err = table.WriteTo(&buf)
	require.NoError(t, err)
	require.NotContains(t, buf.String(), "checksum")
}

func TestTablePrint(t *testing.T) {
	_, table, err := Encode([]byte("AAB\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	table.Print(&buf)
	require.Equal(t, "symbols 4\n"+
		"0x0a .  2 10\n"+
		"0x41 A  1 0\n"+
		"0x42 B  2 11\n", buf.String())
}
