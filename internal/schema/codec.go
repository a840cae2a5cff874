package schema

// Encode serializes a record into an ordered row of cells matching the
// entity's column order. Each column's value is resolved by canonical key
// first, then aliases in declaration order; missing optional columns take the
// column default (usually the empty string). The result always has exactly
// len(e.Columns) cells.
func Encode(e Entity, rec map[string]string) []string {
	row := make([]string, len(e.Columns))
	for i, col := range e.Columns {
		row[i] = resolve(col, rec)
	}
	return row
}

// Decode turns a raw sheet row into a record keyed by normalized header
// names. Short rows are padded with empty strings up to the header length and
// unexpectedly long rows are truncated; length mismatches never fail here.
// Content rules are the validator's job.
func Decode(e Entity, row []string, header []string) map[string]string {
	if len(header) == 0 {
		header = e.Headers()
	}
	rec := make(map[string]string, len(header))
	for i, cell := range header {
		key := NormalizeHeader(cell)
		if key == "" {
			continue
		}
		if i < len(row) {
			rec[key] = row[i]
		} else {
			rec[key] = ""
		}
	}
	return rec
}

// resolve looks up a column's value with canonical-then-alias priority.
func resolve(col Column, rec map[string]string) string {
	if v, ok := rec[col.Key]; ok && v != "" {
		return v
	}
	for _, alias := range col.Aliases {
		if v, ok := rec[alias]; ok && v != "" {
			return v
		}
	}
	return col.Default
}
