package export

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// CSV renders items as comma-separated text. The header is taken from the
// first item's keys; later items missing a key get an empty cell. Rows are
// separated by "\n" without a trailing newline. An empty list renders as "".
func CSV[T Record](items []T) (string, error) {
	if len(items) == 0 {
		return "", nil
	}

	header := keys(items[0].Fields())
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, item := range items {
		if err := w.Write(row(header, Object(item.Fields()))); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Table flattens items into a header and rows of cell strings.
func Table[T Record](items []T) ([]string, [][]string) {
	if len(items) == 0 {
		return nil, nil
	}
	header := keys(items[0].Fields())
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, row(header, Object(item.Fields())))
	}
	return header, rows
}

func keys(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Key)
	}
	return out
}

func row(header []string, obj Object) []string {
	cells := make([]string, len(header))
	for i, key := range header {
		if v, ok := obj.Lookup(key); ok {
			cells[i] = FormatValue(v)
		}
	}
	return cells
}
