package output

import (
	"encoding/csv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders rows for the text, table, markdown and csv modes.
// Callers handle json and yaml with structured values.
func (r *Renderer) Table(header []string, rows [][]string) error {
	if r.EffectiveMode() == ModeCSV {
		return r.writeCSV(header, rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		r.Println("")
		return nil
	}
	t.Render()
	return nil
}

// writeCSV writes RFC 4180 records: fields holding commas are quoted and
// otherwise left as is.
func (r *Renderer) writeCSV(header []string, rows [][]string) error {
	w := csv.NewWriter(r.out)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}
