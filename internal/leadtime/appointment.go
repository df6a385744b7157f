package leadtime

import (
	"errors"
	"strings"
	"time"

	"slotBook/internal/logger"
)

// AppointmentAssigner attaches appointment dates to consignments
type AppointmentAssigner struct {
	// Strict aborts Assign when any ship-to location is malformed. Otherwise
	// malformed rows are reported and imputed like unmatched rows
	Strict bool
}

// AssignReport summarises one Assign call
type AssignReport struct {
	Matched  int
	Imputed  int
	ModeDate time.Time
	Failures []error
}

// DeriveLocationCode returns the text before the first '-' with its last
// character removed, so "AMZ1 - Leeds" gives "AMZ1" and "AMZ1-99" gives "AMZ".
// Only a missing '-' is an error; "A-1" and "-1" give an empty code, which
// matches no carrier and is imputed
func DeriveLocationCode(shipTo string) (string, error) {
	idx := strings.Index(shipTo, "-")
	if idx < 0 {
		return "", errors.New("no '-' delimiter")
	}
	prefix := []rune(shipTo[:idx])
	if len(prefix) == 0 {
		return "", nil
	}
	return string(prefix[:len(prefix)-1]), nil
}

// Assign returns a copy of consignments with LocationCode and
// AppointmentDate set. A row takes the LeadTimeDate of the first shipment
// whose CarrierCode equals its LocationCode; every other row takes the most
// frequent matched date, earliest date winning ties
func (a *AppointmentAssigner) Assign(consignments []ConsignmentRecord, shipments []ShipmentRecord) ([]ConsignmentRecord, AssignReport, error) {
	var report AssignReport

	byCarrier := make(map[string]time.Time, len(shipments))
	for _, s := range shipments {
		if _, ok := byCarrier[s.CarrierCode]; !ok {
			byCarrier[s.CarrierCode] = s.LeadTimeDate
		}
	}

	out := make([]ConsignmentRecord, len(consignments))
	counts := make(map[time.Time]int)
	for i, c := range consignments {
		c.AppointmentDate = time.Time{}
		c.Imputed = false

		code, err := DeriveLocationCode(c.ShipToLocation)
		if err != nil {
			report.Failures = append(report.Failures, &MalformedLocationError{
				Row:            c.Row,
				ShipToLocation: c.ShipToLocation,
				Reason:         err.Error(),
			})
			c.LocationCode = ""
			out[i] = c
			continue
		}
		c.LocationCode = code

		if date, ok := byCarrier[code]; ok && code != "" {
			c.AppointmentDate = date
			counts[date]++
			report.Matched++
		}
		out[i] = c
	}

	if a.Strict && len(report.Failures) > 0 {
		return nil, report, errors.Join(report.Failures...)
	}

	unmatched := len(out) - report.Matched
	if unmatched == 0 {
		return out, report, nil
	}

	mode, ok := ModeDate(counts)
	if !ok {
		return nil, report, &NoModeAvailableError{Unmatched: unmatched}
	}
	report.ModeDate = mode

	for i := range out {
		if out[i].HasAppointment() {
			continue
		}
		out[i].AppointmentDate = mode
		out[i].Imputed = true
		report.Imputed++
		logger.Debug("Imputed appointment date",
			"row", out[i].Row,
			"location_code", out[i].LocationCode,
			"date", mode.Format(DateLayout))
	}
	return out, report, nil
}

// ModeDate returns the date with the highest count, preferring the earliest
// date on ties. ok is false when counts is empty
func ModeDate(counts map[time.Time]int) (mode time.Time, ok bool) {
	best := 0
	for date, n := range counts {
		if n > best || (n == best && date.Before(mode)) {
			mode, best = date, n
		}
	}
	return mode, best > 0
}
