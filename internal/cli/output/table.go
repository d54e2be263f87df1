package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/marmos91/fshare/internal/bytesize"
	"github.com/marmos91/fshare/internal/protocol/wire"
)

// TimeFormat is used for timestamps in tables.
const TimeFormat = "2006-01-02 15:04:05"

// TableRenderer is implemented by results that can print as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

func newTable(w io.Writer, columnSep string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(columnSep)
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// PrintTable writes data as a borderless table with upper-cased headers.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newTable(w, "")
	table.SetAutoFormatHeaders(true)
	table.SetHeader(data.Headers())
	table.AppendBulk(data.Rows())
	table.Render()
	return nil
}

// SimpleTable prints "key: value" pairs.
func SimpleTable(w io.Writer, pairs [][2]string) error {
	table := newTable(w, ":")
	table.SetAutoFormatHeaders(false)
	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
	return nil
}

// FileEntry is one row of a remote listing.
type FileEntry struct {
	Name     string    `json:"name" yaml:"name"`
	Size     uint64    `json:"size" yaml:"size"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

// FileList is a remote listing, printable in any format.
type FileList []FileEntry

// NewFileList converts wire records into a FileList.
func NewFileList(records []wire.FileRecord) FileList {
	list := make(FileList, 0, len(records))
	for _, r := range records {
		list = append(list, FileEntry{Name: r.Filename, Size: r.Size, Modified: r.ModifiedAt()})
	}
	return list
}

// Headers implements TableRenderer.
func (FileList) Headers() []string { return []string{"Name", "Size", "Modified"} }

// Rows implements TableRenderer.
func (l FileList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{
			e.Name,
			bytesize.ByteSize(e.Size).HumanString(),
			e.Modified.Local().Format(TimeFormat),
		})
	}
	return rows
}

// TotalSize sums the sizes of all entries.
func (l FileList) TotalSize() uint64 {
	var total uint64
	for _, e := range l {
		total += e.Size
	}
	return total
}

// FormatUptime renders d as "3d 4h 5m 6s", dropping leading zero units.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days, secs := secs/86400, secs%86400
	hours, secs := secs/3600, secs%3600
	mins, secs := secs/60, secs%60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, mins, secs)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, secs)
	default:
		return strconv.FormatInt(secs, 10) + "s"
	}
}
