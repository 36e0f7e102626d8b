package domain

// Table is a fully materialised delimited file: ordered column names and
// one map per data row keyed by column name.
type Table struct {
	Source   string              `json:"source"`
	Encoding string              `json:"encoding"`
	Columns  []string            `json:"columns"`
	Rows     []map[string]string `json:"-"`
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns every cell of column name in row order.
func (t *Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[name]
	}
	return out
}

// Records returns the table as a header row followed by data rows, the
// shape expected by CSV writers and dataframe loaders.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	out = append(out, header)
	for _, row := range t.Rows {
		line := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			line[i] = row[col]
		}
		out = append(out, line)
	}
	return out
}
