package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are tried before the day-first layouts.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

var dayFirstLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

// maxSerialDate is 9999-12-31 as a spreadsheet serial date.
const maxSerialDate = 2958466

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate reads a date cell. ISO layouts win over day-first ones, bare
// numbers are spreadsheet serial dates, and anything else yields nil.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layouts := range [][]string{isoLayouts, dayFirstLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, value); err == nil {
				return &t
			}
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 && serial < maxSerialDate {
		days := math.Floor(serial)
		t := spreadsheetEpoch.AddDate(0, 0, int(days)).
			Add(time.Duration((serial - days) * float64(24*time.Hour))).
			Truncate(time.Second)
		return &t
	}
	return nil
}
