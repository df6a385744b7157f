package leadtime

import (
	"slotBook/internal/logger"
)

// HolidayAdjuster adds carrier holiday extra days to total lead times
type HolidayAdjuster struct {
	Rounding Rounding
}

// HolidayReport summarises one ApplyHolidays call
type HolidayReport struct {
	Adjusted   int                    // rows whose total changed
	Mismatches []*LookupMismatchError // carriers with no calendar column, once per carrier
}

// ApplyHolidays adjusts shipments in place. Each row's LeadTimeDate is read
// once before its holiday scan; adding extra days does not move it, so a
// shift onto a later holiday is not re-checked here.
//
// Carriers without a calendar column count as zero extra days and are
// reported as mismatches whether or not their date falls on a holiday. A
// total pushed below zero by negative extra days stops the adjustment with
// a NegativeLeadTimeError
func (h *HolidayAdjuster) ApplyHolidays(shipments []ShipmentRecord, holidays []HolidayEntry) (HolidayReport, error) {
	var report HolidayReport
	if len(holidays) == 0 {
		return report, nil
	}
	carriers := calendarCarriers(holidays)
	reported := make(map[string]bool)

	for i := range shipments {
		s := &shipments[i]
		if !carriers[s.CarrierCode] {
			if !reported[s.CarrierCode] {
				reported[s.CarrierCode] = true
				mismatch := &LookupMismatchError{Row: s.Row, CarrierCode: s.CarrierCode}
				report.Mismatches = append(report.Mismatches, mismatch)
				logger.Warn("Holiday lookup mismatch", "error", mismatch)
			}
			continue
		}

		leadDate := s.LeadTimeDate
		before := s.TotalLeadTimeDays

		for _, hol := range holidays {
			if !hol.Date.Equal(leadDate) {
				continue
			}

			extra := hol.ExtraDays[s.CarrierCode]
			total := h.Rounding.Round(s.TotalLeadTimeDays + extra)
			if total < 0 {
				return report, &NegativeLeadTimeError{Row: s.Row, CarrierCode: s.CarrierCode, Total: total, HolidayDate: hol.Date}
			}
			if total == 0 {
				total = 0 // drop the sign of -0
			}
			s.TotalLeadTimeDays = total
			logger.Debug("Matched holiday",
				"row", s.Row,
				"carrier", s.CarrierCode,
				"holiday", hol.Date.Format(DateLayout),
				"extra_days", extra)
		}

		if s.TotalLeadTimeDays != before {
			report.Adjusted++
		}
	}
	return report, nil
}

// ApplyHolidaysUntilStable repeats ApplyHolidays and RefreshLeadTimeDates
// until no row changes or maxPasses is reached. It returns the number of
// passes that changed at least one row
func (h *HolidayAdjuster) ApplyHolidaysUntilStable(shipments []ShipmentRecord, holidays []HolidayEntry, maxPasses int) (int, HolidayReport, error) {
	var total HolidayReport
	seen := make(map[string]bool)
	passes := 0

	for passes < maxPasses {
		report, err := h.ApplyHolidays(shipments, holidays)
		for _, m := range report.Mismatches {
			if !seen[m.CarrierCode] {
				seen[m.CarrierCode] = true
				total.Mismatches = append(total.Mismatches, m)
			}
		}
		if err != nil {
			return passes, total, err
		}
		if report.Adjusted == 0 {
			break
		}
		passes++
		total.Adjusted += report.Adjusted
		RefreshLeadTimeDates(shipments)
	}
	if passes == maxPasses {
		logger.Warn("Holiday adjustment did not settle", "max_passes", maxPasses)
	}
	return passes, total, nil
}

func calendarCarriers(holidays []HolidayEntry) map[string]bool {
	carriers := make(map[string]bool)
	for _, hol := range holidays {
		for code := range hol.ExtraDays {
			carriers[code] = true
		}
	}
	return carriers
}
