// Package spreadsheet reads tabular ingestion files into header-keyed rows.
package spreadsheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
)

var ErrEmptySheet = errors.New("spreadsheet has no header row")

// Row is one data row keyed by normalized header name. Line is the 1-based sheet row number.
type Row struct {
	Line  int
	cells map[string]string
}

func NewRow(line int, cells map[string]string) Row {
	normalized := make(map[string]string, len(cells))
	for k, v := range cells {
		normalized[NormalizeHeader(k)] = strings.TrimSpace(v)
	}
	return Row{Line: line, cells: normalized}
}

// Get returns the first non-empty cell among the given header aliases.
func (r Row) Get(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := r.cells[NormalizeHeader(k)]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func (r Row) Empty() bool {
	for _, v := range r.cells {
		if v != "" {
			return false
		}
	}
	return true
}

// NormalizeHeader lowercases a header and collapses every run of other characters to one underscore.
func NormalizeHeader(h string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ReadRows loads the first sheet of an .xlsx workbook. Fully blank rows are dropped.
func ReadRows(path string) ([]string, []Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptySheet
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(raw) == 0 {
		return nil, nil, ErrEmptySheet
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = NormalizeHeader(h)
	}

	rows := make([]Row, 0, len(raw)-1)
	for i, values := range raw[1:] {
		cells := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" || j >= len(values) {
				continue
			}
			cells[h] = strings.TrimSpace(values[j])
		}
		row := Row{Line: i + 2, cells: cells}
		if row.Empty() {
			continue
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
}

// ParseDate accepts an Excel serial day number or a textual date and returns the UTC calendar date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid excel date %q: %w", value, err)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
