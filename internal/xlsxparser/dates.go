package xlsxparser

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Built-in number formats that display a calendar date. Time-only formats
// (18-21, 45-47) are left alone.
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 57: true, 58: true,
}

// dateCells rewrites date-styled cells of records as ISO text.
//
// GetRows returns the text a cell displays, which for dates depends on the
// number format ("5-Jan-24", "Jan-24", "1/5/24 13:45"). Cells whose style is
// a date format are re-read from their serial value and rendered as
// "2006-01-02", or "2006-01-02 15:04:05" when the serial carries a time.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// apply rewrites records[from:] in place. raw holds the same sheet read with
// RawCellValue.
func (d *dateCells) apply(records, raw [][]string, from int) {
	for r := from; r < len(records) && r < len(raw); r++ {
		for c := range records[r] {
			if c >= len(raw[r]) {
				break
			}
			if iso, ok := d.convert(c, r, raw[r][c]); ok {
				records[r][c] = iso
			}
		}
	}
}

func (d *dateCells) convert(col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || serial <= 0 {
		return "", false
	}

	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", false
	}
	styleID, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || !d.dateStyle(styleID) {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02"), true
	}
	return t.Format("2006-01-02 15:04:05"), true
}

func (d *dateCells) dateStyle(styleID int) bool {
	if v, ok := d.isDate[styleID]; ok {
		return v
	}

	v := false
	if style, err := d.f.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			v = IsDateFormatCode(*style.CustomNumFmt)
		} else {
			v = builtInDateFormats[style.NumFmt]
		}
	}
	d.isDate[styleID] = v
	return v
}

// IsDateFormatCode reports whether a custom number format code shows a
// calendar date: it has a year or day token outside quoted text, escapes and
// bracketed sections.
func IsDateFormatCode(code string) bool {
	// Only the positive section decides.
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		case ch == ';':
			return false
		case ch == 'y' || ch == 'Y' || ch == 'd' || ch == 'D':
			return true
		}
	}
	return false
}
