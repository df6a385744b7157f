package leadtime

import (
	"math"
	"time"
)

// DateLayout is the ISO calendar date used when dates are persisted as text
const DateLayout = "2006-01-02"

// ShipmentRecord is one row of the Lead Times table
type ShipmentRecord struct {
	Row                      int // 1-based sheet row, 0 when not loaded from a sheet
	CarrierCode              string
	LeadTimeDays             *float64
	TrafficConsiderationDays *float64

	TotalLeadTimeDays float64
	TodayDate         time.Time
	LeadTimeDate      time.Time
}

// HolidayEntry is one row of the Holiday Calendar table. ExtraDays holds a
// value for every carrier column of the calendar; blank cells are stored as 0
type HolidayEntry struct {
	Row       int
	Date      time.Time
	ExtraDays map[string]float64
}

// ConsignmentRecord is one row of the Export table
type ConsignmentRecord struct {
	Row             int
	ShipToLocation  string
	LocationCode    string
	AppointmentDate time.Time
	Imputed         bool
}

// HasAppointment reports whether an appointment date has been assigned
func (c ConsignmentRecord) HasAppointment() bool {
	return !c.AppointmentDate.IsZero()
}

// AppointmentText returns the appointment date as yyyy-mm-dd, or "" when empty
func (c ConsignmentRecord) AppointmentText() string {
	if !c.HasAppointment() {
		return ""
	}
	return c.AppointmentDate.Format(DateLayout)
}

// Days returns a pointer to v, for building records in code
func Days(v float64) *float64 {
	return &v
}

// DateOf truncates t to its calendar date in UTC, keeping t's wall clock date
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LeadTimeDateFor returns today + ceil(total) days
func LeadTimeDateFor(today time.Time, total float64) time.Time {
	return today.AddDate(0, 0, int(math.Ceil(total)))
}

// RefreshLeadTimeDates recomputes LeadTimeDate from the current total for
// every row
func RefreshLeadTimeDates(shipments []ShipmentRecord) {
	for i := range shipments {
		shipments[i].LeadTimeDate = LeadTimeDateFor(shipments[i].TodayDate, shipments[i].TotalLeadTimeDays)
	}
}
