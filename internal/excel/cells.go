package excel

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"slotBook/internal/leadtime"
)

var textDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseNumericValue parses a raw cell as a number. Blank and non-numeric
// cells report ok=false
func parseNumericValue(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseDateValue parses a raw cell as a calendar date: either an Excel date
// serial or one of the common text layouts
func parseDateValue(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	if serial, ok := parseNumericValue(trimmed); ok {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return leadtime.DateOf(t), true
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return leadtime.DateOf(t), true
		}
	}
	return time.Time{}, false
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
