package leadtime

import (
	"math"
	"time"
)

const leadTimesTable = "Lead Times"

// Enricher derives total lead time and lead-time date for the Lead Times table
type Enricher struct {
	Rounding          Rounding
	AfternoonHour     int     // runs at or after this hour get AfternoonBumpDays
	AfternoonBumpDays float64
}

// NewEnricher returns an Enricher with the standard policy: half a day is
// added from noon onwards and totals are rounded half-to-even
func NewEnricher() *Enricher {
	return &Enricher{
		Rounding:          RoundHalfEven,
		AfternoonHour:     12,
		AfternoonBumpDays: 0.5,
	}
}

// Enrich returns a copy of shipments with TodayDate, TotalLeadTimeDays and
// LeadTimeDate set for runAt. The input slice is not modified. A total that
// is still negative after the bump and rounding is a NegativeLeadTimeError
func (e *Enricher) Enrich(shipments []ShipmentRecord, runAt time.Time) ([]ShipmentRecord, error) {
	today := DateOf(runAt)
	bump := 0.0
	if runAt.Hour() >= e.AfternoonHour {
		bump = e.AfternoonBumpDays
	}

	out := make([]ShipmentRecord, len(shipments))
	for i, s := range shipments {
		if err := checkDays(s, "Lead Time", s.LeadTimeDays); err != nil {
			return nil, err
		}
		if err := checkDays(s, "Traffic Consideration", s.TrafficConsiderationDays); err != nil {
			return nil, err
		}

		total := e.Rounding.Round(*s.LeadTimeDays + *s.TrafficConsiderationDays + bump)
		if total < 0 {
			return nil, &NegativeLeadTimeError{Row: s.Row, CarrierCode: s.CarrierCode, Total: total}
		}
		if total == 0 {
			total = 0 // drop the sign of -0
		}

		s.TodayDate = today
		s.TotalLeadTimeDays = total
		s.LeadTimeDate = LeadTimeDateFor(today, total)
		out[i] = s
	}
	return out, nil
}

func checkDays(s ShipmentRecord, field string, v *float64) error {
	if v == nil {
		return &MissingFieldError{Table: leadTimesTable, Row: s.Row, Key: s.CarrierCode, Field: field, Reason: "blank or not a number"}
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return &MissingFieldError{Table: leadTimesTable, Row: s.Row, Key: s.CarrierCode, Field: field, Reason: "not a finite number"}
	}
	return nil
}
