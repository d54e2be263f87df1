package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fshare/internal/protocol/wire"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "table", want: FormatTable},
		{input: "", want: FormatTable},
		{input: "JSON", want: FormatJSON},
		{input: "yml", want: FormatYAML},
		{input: "  yaml ", want: FormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func sampleList() FileList {
	return NewFileList([]wire.FileRecord{
		{Filename: "report.pdf", Size: 1536, ModTime: 1700000000},
		{Filename: "notes.txt", Size: 12, ModTime: 1700000100},
	})
}

func TestFileList(t *testing.T) {
	list := sampleList()

	require.Len(t, list, 2)
	assert.Equal(t, "report.pdf", list[0].Name)
	assert.Equal(t, time.Unix(1700000000, 0), list[0].Modified)
	assert.Equal(t, uint64(1548), list.TotalSize())

	rows := list.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "1.50KiB", rows[0][1])
	assert.Equal(t, "12B", rows[1][1])
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(sampleList()))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "MODIFIED")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "notes.txt")
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(sampleList()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "report.pdf", decoded[0]["name"])
	assert.EqualValues(t, 1536, decoded[0]["size"])
}

func TestPrinterYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(sampleList()))

	assert.Contains(t, buf.String(), "- name: report.pdf")
	assert.Contains(t, buf.String(), "  size: 12")
}

func TestPrinterTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{{"Sessions", "2/10"}, {"Uptime", "5m 0s"}}))

	out := buf.String()
	assert.Contains(t, out, "Sessions")
	assert.Contains(t, out, "2/10")
	assert.Contains(t, out, "5m 0s")
}

func TestStatusMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)
	p.Success("uploaded")
	p.Warning("careful")
	p.Error("failed")
	assert.Equal(t, "uploaded\ncareful\nfailed\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Success("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", buf.String())
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0s", FormatUptime(-time.Second))
	assert.Equal(t, "42s", FormatUptime(42*time.Second))
	assert.Equal(t, "5m 3s", FormatUptime(5*time.Minute+3*time.Second))
	assert.Equal(t, "2h 0m 1s", FormatUptime(2*time.Hour+time.Second))
	assert.Equal(t, "3d 4h 5m 6s", FormatUptime(76*time.Hour+5*time.Minute+6*time.Second))
}
