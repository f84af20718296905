package jobimport

import (
	"errors"
	"strings"
)

var ErrTooFewRows = errors.New("CSV must have a header row and at least one data row")

// HeaderError rejects a whole file whose header lacks required columns.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return "Missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseCSV turns file text into one RawRow per non-blank data record.
// Header names are matched case-insensitively and in any order. A file
// missing any required column yields no rows and a *HeaderError.
func ParseCSV(text string, required []string) ([]RawRow, error) {
	text = strings.TrimPrefix(text, "\ufeff") // spreadsheet BOM

	var records []string
	for _, rec := range splitRecords(text) {
		if strings.TrimSpace(rec) != "" {
			records = append(records, rec)
		}
	}
	if len(records) < 2 {
		return nil, ErrTooFewRows
	}

	header := splitFields(records[0])
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing}
	}

	cols := append([]string{}, required...)
	for _, col := range OptionalColumns {
		if _, ok := index[col]; ok {
			cols = append(cols, col)
		}
	}

	rows := make([]RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		fields := splitFields(rec)
		row := make(RawRow, len(cols))
		for _, col := range cols {
			if i := index[col]; i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// splitRecords breaks text on LF or CRLF, except inside a quoted span. A
// quote opens a span only as the first character of a field; anywhere else
// it is a literal.
func splitRecords(text string) []string {
	var out []string
	inQuotes := false
	fieldStart := true
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					i++
				} else {
					inQuotes = false
				}
			}
			continue
		}
		switch c {
		case '"':
			inQuotes = fieldStart
			fieldStart = false
		case ',':
			fieldStart = true
		case '\n':
			out = append(out, strings.TrimSuffix(text[start:i], "\r"))
			start = i + 1
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	if start < len(text) {
		out = append(out, strings.TrimSuffix(text[start:], "\r"))
	}
	return out
}

// splitFields splits one record on commas. A field that starts with a
// double quote is quoted up to the next lone quote; inside it, "" is a
// literal quote and a comma is data. Quotes elsewhere are kept as typed.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	fieldStart := true
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '"' && i+1 < len(line) && line[i+1] == '"':
			cur.WriteByte('"')
			i++
		case inQuotes && c == '"':
			inQuotes = false
		case inQuotes:
			cur.WriteByte(c)
		case c == '"' && fieldStart:
			inQuotes = true
			fieldStart = false
		case c == ',':
			fields = append(fields, cur.String())
			cur.Reset()
			fieldStart = true
		default:
			cur.WriteByte(c)
			fieldStart = false
		}
	}
	return append(fields, cur.String())
}
