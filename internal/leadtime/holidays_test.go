package leadtime

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichedAMZ1(t *testing.T) []ShipmentRecord {
	t.Helper()
	out, err := NewEnricher().Enrich([]ShipmentRecord{amz1()}, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return out
}

func TestApplyHolidays_SinglePass(t *testing.T) {
	shipments := enrichedAMZ1(t)
	holidays := []HolidayEntry{
		{Row: 2, Date: date(2024, 1, 13), ExtraDays: map[string]float64{"AMZ1": 2}},
	}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	report, err := h.ApplyHolidays(shipments, holidays)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Adjusted)
	assert.Empty(t, report.Mismatches)
	assert.Equal(t, 5.0, shipments[0].TotalLeadTimeDays)
	assert.Equal(t, date(2024, 1, 13), shipments[0].LeadTimeDate, "lead time date is not recomputed")
}

func TestApplyHolidays_NoRetriggerOnLaterHoliday(t *testing.T) {
	shipments := enrichedAMZ1(t)
	holidays := []HolidayEntry{
		{Date: date(2024, 1, 13), ExtraDays: map[string]float64{"AMZ1": 1}},
		{Date: date(2024, 1, 14), ExtraDays: map[string]float64{"AMZ1": 3}},
	}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	_, err := h.ApplyHolidays(shipments, holidays)
	require.NoError(t, err)

	assert.Equal(t, 4.0, shipments[0].TotalLeadTimeDays)
}

func TestApplyHolidays_UntilStable(t *testing.T) {
	shipments := enrichedAMZ1(t)
	holidays := []HolidayEntry{
		{Date: date(2024, 1, 13), ExtraDays: map[string]float64{"AMZ1": 1}},
		{Date: date(2024, 1, 14), ExtraDays: map[string]float64{"AMZ1": 3}},
	}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	passes, report, err := h.ApplyHolidaysUntilStable(shipments, holidays, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, passes)
	assert.Equal(t, 2, report.Adjusted)
	assert.Equal(t, 7.0, shipments[0].TotalLeadTimeDays)
	assert.Equal(t, date(2024, 1, 17), shipments[0].LeadTimeDate)
}

func TestApplyHolidays_UnknownCarrierAndBlankCell(t *testing.T) {
	shipments := []ShipmentRecord{
		{Row: 2, CarrierCode: "AMZ1", TotalLeadTimeDays: 3, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 13)},
		{Row: 3, CarrierCode: "ZZZ9", TotalLeadTimeDays: 3, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 13)},
		{Row: 4, CarrierCode: "ZZZ9", TotalLeadTimeDays: 3, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 13)},
		{Row: 5, CarrierCode: "AMZ2", TotalLeadTimeDays: 1, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 11)},
	}
	holidays := []HolidayEntry{
		{Date: date(2024, 1, 13), ExtraDays: map[string]float64{"AMZ1": 0, "AMZ2": 2}},
	}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	report, err := h.ApplyHolidays(shipments, holidays)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Adjusted)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "ZZZ9", report.Mismatches[0].CarrierCode)
	assert.Equal(t, 3, report.Mismatches[0].Row)
	for _, s := range shipments[:3] {
		assert.Equal(t, 3.0, s.TotalLeadTimeDays)
	}
	assert.Equal(t, 1.0, shipments[3].TotalLeadTimeDays, "holiday on another date does not apply")
}

func TestApplyHolidays_RoundsAfterEachAddition(t *testing.T) {
	shipments := []ShipmentRecord{
		{CarrierCode: "C", TotalLeadTimeDays: 3, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 13)},
	}
	holidays := []HolidayEntry{
		{Date: date(2024, 1, 13), ExtraDays: map[string]float64{"C": 0.5}},
		{Date: date(2024, 1, 13), ExtraDays: map[string]float64{"C": 0.5}},
	}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	_, err := h.ApplyHolidays(shipments, holidays)
	require.NoError(t, err)

	// 3.5 -> 4, then 4.5 -> 4
	assert.Equal(t, 4.0, shipments[0].TotalLeadTimeDays)
}

func TestRefreshLeadTimeDates(t *testing.T) {
	shipments := []ShipmentRecord{{TotalLeadTimeDays: 5, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 13)}}
	RefreshLeadTimeDates(shipments)
	assert.Equal(t, date(2024, 1, 15), shipments[0].LeadTimeDate)
}

func TestApplyHolidays_MismatchWithoutHolidayHit(t *testing.T) {
	shipments := []ShipmentRecord{
		{Row: 2, CarrierCode: "AMZ1", TotalLeadTimeDays: 1, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 11)},
		{Row: 3, CarrierCode: "NOCOL", TotalLeadTimeDays: 1, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 11)},
	}
	holidays := []HolidayEntry{{Date: date(2024, 2, 1), ExtraDays: map[string]float64{"AMZ1": 1}}}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	report, err := h.ApplyHolidays(shipments, holidays)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "NOCOL", report.Mismatches[0].CarrierCode)
	assert.Equal(t, 3, report.Mismatches[0].Row)
}

func TestApplyHolidays_EmptyCalendarReportsNothing(t *testing.T) {
	shipments := enrichedAMZ1(t)

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	report, err := h.ApplyHolidays(shipments, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)
	assert.Equal(t, 3.0, shipments[0].TotalLeadTimeDays)
}

func TestApplyHolidays_NegativeExtraDays(t *testing.T) {
	shipments := []ShipmentRecord{
		{Row: 2, CarrierCode: "C", TotalLeadTimeDays: 1, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 11)},
	}
	holidays := []HolidayEntry{{Row: 5, Date: date(2024, 1, 11), ExtraDays: map[string]float64{"C": -3}}}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	_, err := h.ApplyHolidays(shipments, holidays)

	var negative *NegativeLeadTimeError
	require.ErrorAs(t, err, &negative)
	assert.Equal(t, 2, negative.Row)
	assert.Equal(t, "C", negative.CarrierCode)
	assert.Equal(t, date(2024, 1, 11), negative.HolidayDate)
	assert.Contains(t, err.Error(), "after holiday 2024-01-11")

	_, _, err = h.ApplyHolidaysUntilStable(shipments, holidays, 5)
	assert.ErrorAs(t, err, &negative)
}

func TestApplyHolidays_DateNeverBeforeToday(t *testing.T) {
	shipments := []ShipmentRecord{
		{Row: 2, CarrierCode: "A", TotalLeadTimeDays: 2, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 12)},
		{Row: 3, CarrierCode: "B", TotalLeadTimeDays: 1, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 11)},
		{Row: 4, CarrierCode: "A", TotalLeadTimeDays: 0, TodayDate: date(2024, 1, 10), LeadTimeDate: date(2024, 1, 10)},
	}
	holidays := []HolidayEntry{
		{Date: date(2024, 1, 12), ExtraDays: map[string]float64{"A": -2, "B": 0}},
		{Date: date(2024, 1, 11), ExtraDays: map[string]float64{"A": 0, "B": -1}},
	}

	h := &HolidayAdjuster{Rounding: RoundHalfEven}
	_, err := h.ApplyHolidays(shipments, holidays)
	require.NoError(t, err)
	RefreshLeadTimeDates(shipments)

	for _, s := range shipments {
		assert.GreaterOrEqual(t, s.TotalLeadTimeDays, 0.0, "row %d", s.Row)
		assert.False(t, s.LeadTimeDate.Before(s.TodayDate), "row %d", s.Row)
		assert.False(t, math.Signbit(s.TotalLeadTimeDays), "row %d", s.Row)
	}
	assert.Equal(t, date(2024, 1, 10), shipments[0].LeadTimeDate)
}
