// =============================================================================
// Contract Generator - Value Formatters
// =============================================================================
//
// This file holds the formatting helpers used by the substitution engine:
//   - Dates         : any accepted layout -> YYYY-MM-DD
//   - Numbers       : thousands separators on the integer part
//   - Korean numeral: 1500000 -> 일백오십만
//   - Birth date    : national ID "990101-1..." -> 1999.01.01
//   - Work period   : "2024-01-01 ~ 2024-01-10 (10일간)"
//
// Every formatter reports whether it succeeded so the caller can fall back to
// the raw cell value.
//
// =============================================================================

package keyword

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is the output layout of every date placeholder.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when parsing a cell value.
// CUSTOMIZATION: Add layouts used by your spreadsheets here.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006/1/2",
	"2006.01.02",
	"2006. 1. 2.",
	"2006. 1. 2",
	"2006.1.2",
	"20060102",
	"2006년 1월 2일",
	"2006년 01월 02일",
	"2006-1-2",
	"01-02-06", // excelize display for number format 14
	"1/2/06",
	"1/2/2006",
	"01/02/2006",
	"1/2/06 15:04", // number format 22
	"2-Jan-06",     // number format 15
	"02-Jan-06",
	"2-Jan-2006",
	"Jan 2, 2006",
}

// Plausible range of Excel serial dates given as plain text: 1927-05-18 to
// 9999-12-31. Smaller numbers are years, counts or amounts, not dates.
const (
	minExcelSerial = 10000
	maxExcelSerial = 2958465
)

var groupPrinter = message.NewPrinter(language.English)

// =============================================================================
// DATES
// =============================================================================

// ParseDate parses a spreadsheet cell value as a calendar date.
//
// Accepted forms are the layouts in dateLayouts and Excel serial numbers
// from minExcelSerial on (e.g. "45292" for 2024-01-01). "2024" is not a date.
func ParseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}

	// Excel stores dates as days since 1899-12-30.
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// FormatDate reformats a date value as YYYY-MM-DD.
// The raw value is returned with ok=false when it cannot be parsed.
func FormatDate(value string) (string, bool) {
	t, ok := ParseDate(value)
	if !ok {
		return value, false
	}
	return t.Format(DateLayout), true
}

// =============================================================================
// NUMBERS
// =============================================================================

// ParseInteger parses a numeric cell value and truncates it to an integer.
// Existing "," grouping and surrounding spaces are ignored, so "1,500,000",
// "1500000" and "1500000.0" all give 1500000.
func ParseInteger(value string) (int64, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if v == "" {
		return 0, false
	}

	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// FormatNumber formats a numeric value with thousands separators.
// The raw value is returned with ok=false when it is not a number.
func FormatNumber(value string) (string, bool) {
	n, ok := ParseInteger(value)
	if !ok {
		return value, false
	}
	return groupPrinter.Sprintf("%d", n), true
}

// =============================================================================
// KOREAN NUMERALS
// =============================================================================

var (
	koreanDigits     = []string{"", "일", "이", "삼", "사", "오", "육", "칠", "팔", "구"}
	koreanSmallUnits = []string{"천", "백", "십", ""}
	koreanLargeUnits = []string{"", "만", "억", "조", "경"}
)

// KoreanNumber spells a non-negative amount in Korean numerals.
//
// The digits are split into groups of four from the right; each non-zero group
// is spelled with 천/백/십 and suffixed with its group unit (만, 억, 조, 경).
// Zero yields an empty string. Negative or non-numeric values return the raw
// value with ok=false.
//
// EXAMPLE:
//
//	KoreanNumber("1,500,000") -> "일백오십만"
func KoreanNumber(value string) (string, bool) {
	n, ok := ParseInteger(value)
	if !ok || n < 0 {
		return value, false
	}

	digits := strconv.FormatInt(n, 10)
	if pad := len(digits) % 4; pad != 0 {
		digits = strings.Repeat("0", 4-pad) + digits
	}

	groups := len(digits) / 4
	var b strings.Builder
	for g := 0; g < groups; g++ {
		part := digits[g*4 : g*4+4]
		if part == "0000" {
			continue
		}
		b.WriteString(koreanGroup(part))
		b.WriteString(koreanLargeUnits[groups-g-1])
	}
	return b.String(), true
}

// koreanGroup spells one four-digit group.
func koreanGroup(part string) string {
	var b strings.Builder
	for i, r := range part {
		d := int(r - '0')
		if d == 0 {
			continue
		}
		b.WriteString(koreanDigits[d])
		b.WriteString(koreanSmallUnits[i])
	}
	return b.String()
}

// =============================================================================
// NATIONAL ID
// =============================================================================

// BirthDate extracts the birth date (YYYY.MM.DD) from a Korean national ID
// number such as "990101-1234567".
//
// Two-digit years below pivot are placed in the 2000s and the rest in the
// 1900s. With centuryFromID set, the first digit after the date decides
// instead when it is present (1,2,5,6: 1900s; 3,4,7,8: 2000s; 9,0: 1800s).
func BirthDate(id string, pivot int, centuryFromID bool) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.SplitN(strings.TrimSpace(id), "-", 2)[0])

	if len(digits) < 6 {
		return id, false
	}

	yy, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:4])
	dd, _ := strconv.Atoi(digits[4:6])

	century := 1900
	if yy < pivot {
		century = 2000
	}
	if centuryFromID {
		if c, ok := centuryDigit(id); ok {
			century = c
		}
	}

	year := century + yy
	t := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(mm) || t.Day() != dd {
		return id, false
	}
	return fmt.Sprintf("%04d.%02d.%02d", year, mm, dd), true
}

// centuryDigit reads the 7th digit of a national ID.
func centuryDigit(id string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(id), "-", 2)

	var rest string
	if len(parts) == 2 {
		rest = parts[1]
	} else if len(parts[0]) > 6 {
		rest = parts[0][6:]
	}
	if rest == "" {
		return 0, false
	}

	switch rest[0] {
	case '1', '2', '5', '6':
		return 1900, true
	case '3', '4', '7', '8':
		return 2000, true
	case '9', '0':
		return 1800, true
	}
	return 0, false
}

// =============================================================================
// WORK PERIOD
// =============================================================================

// ContractDays returns the number of days between two dates, counting both
// the start and the end day.
func ContractDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	// Unix seconds, not time.Duration, which saturates after 292 years.
	return int((e.Unix()-s.Unix())/86400) + 1
}

// WorkPeriod renders "start ~ end (N일간)" from two date values.
func WorkPeriod(startValue, endValue string) (string, bool) {
	start, ok := ParseDate(startValue)
	if !ok {
		return "", false
	}
	end, ok := ParseDate(endValue)
	if !ok {
		return "", false
	}

	return fmt.Sprintf("%s ~ %s (%d일간)",
		start.Format(DateLayout),
		end.Format(DateLayout),
		ContractDays(start, end),
	), true
}
