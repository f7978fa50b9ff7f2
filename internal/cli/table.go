package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. maxWidth trims long cells such as tool
// diagnostics or error messages; zero leaves the cell as is.
type column struct {
	title    string
	right    bool
	maxWidth int
}

var (
	historyColumns = []column{
		{title: "Run"},
		{title: "Started"},
		{title: "Status", maxWidth: 48},
		{title: "Mode"},
		{title: "Length", right: true},
		{title: "Output"},
	}
	checkColumns = []column{
		{title: "Tool"},
		{title: "Command"},
		{title: "Status"},
		{title: "Used for"},
		{title: "Detail", maxWidth: 60},
	}
)

func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.right {
			cfg.Align = text.AlignRight
		}
		if c.maxWidth > 0 {
			cfg.WidthMax = c.maxWidth
			cfg.WidthMaxEnforcer = text.Trim
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
