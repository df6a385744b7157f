package leadtime

import (
	"fmt"
	"time"
)

// rowPrefix names a table row, leaving the row out for records built in code
func rowPrefix(table string, row int) string {
	if row <= 0 {
		return table
	}
	return fmt.Sprintf("%s row %d", table, row)
}

// MissingFieldError reports a required column or cell value that is absent
// or unusable. Row 1 means the header row (a missing column)
type MissingFieldError struct {
	Table  string
	Row    int
	Key    string
	Field  string
	Reason string
}

func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("%s: field %q", rowPrefix(e.Table, e.Row), e.Field)
	if e.Key != "" {
		msg += fmt.Sprintf(" (code %q)", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// NegativeLeadTimeError reports a total lead time that is below zero after
// rounding. HolidayDate is set when a holiday's extra days caused it
type NegativeLeadTimeError struct {
	Row         int
	CarrierCode string
	Total       float64
	HolidayDate time.Time
}

func (e *NegativeLeadTimeError) Error() string {
	msg := fmt.Sprintf("%s: carrier %q has negative total lead time %g", rowPrefix(leadTimesTable, e.Row), e.CarrierCode, e.Total)
	if !e.HolidayDate.IsZero() {
		msg += " after holiday " + e.HolidayDate.Format(DateLayout)
	}
	return msg
}

// MalformedLocationError reports a ship-to location a location code cannot
// be derived from
type MalformedLocationError struct {
	Row            int
	ShipToLocation string
	Reason         string
}

func (e *MalformedLocationError) Error() string {
	return fmt.Sprintf("%s: malformed ship-to location %q: %s", rowPrefix("export", e.Row), e.ShipToLocation, e.Reason)
}

// NoModeAvailableError is returned when rows need an imputed appointment date
// but no row was matched directly
type NoModeAvailableError struct {
	Unmatched int
}

func (e *NoModeAvailableError) Error() string {
	return fmt.Sprintf("no appointment date could be matched; cannot impute %d unmatched rows", e.Unmatched)
}

// LookupMismatchError describes a carrier code with no holiday calendar
// column. It is a diagnostic: the carrier is treated as having zero extra days
type LookupMismatchError struct {
	Row         int
	CarrierCode string
}

func (e *LookupMismatchError) Error() string {
	return fmt.Sprintf("%s: carrier %q has no holiday calendar column", rowPrefix(leadTimesTable, e.Row), e.CarrierCode)
}
