package excel

import (
	"strings"

	"slotBook/internal/leadtime"
)

// Canonical input fields, as named in the target columns file and the
// mapping file
const (
	FieldCarrierCode          = "Carrier Code"
	FieldLeadTime             = "Lead Time"
	FieldTrafficConsideration = "Traffic Consideration"
	FieldHolidayDate          = "Date"
	FieldShipToLocation       = "Ship to location"
)

// Columns added by a run
const (
	HeaderTotalLeadTime   = "Total Lead Time"
	HeaderLeadTimeDate    = "Lead Time Date"
	HeaderLocationCode    = "Location Code"
	HeaderAppointmentDate = "Appointment Date"
)

// InputFields lists every canonical field a workbook header can map to
var InputFields = []string{
	FieldCarrierCode,
	FieldLeadTime,
	FieldTrafficConsideration,
	FieldHolidayDate,
	FieldShipToLocation,
}

// DefaultAliases are the misspelt headers used by the master workbook template
func DefaultAliases() map[string][]string {
	return map[string][]string{
		FieldCarrierCode:          {"Amazon Code"},
		FieldTrafficConsideration: {"Traffice consideration"},
	}
}

// HeaderAliases maps a canonical field to the extra header texts accepted for it
type HeaderAliases map[string][]string

// Merge returns a copy of a with other's names appended per field
func (a HeaderAliases) Merge(other map[string][]string) HeaderAliases {
	out := make(HeaderAliases, len(a)+len(other))
	for field, names := range a {
		out[field] = append([]string(nil), names...)
	}
	for field, names := range other {
		out[field] = append(out[field], names...)
	}
	return out
}

// FindColumn returns the 0-based index of the header matching field, by
// canonical name first and then by alias, comparing trimmed text without case
func (a HeaderAliases) FindColumn(headers []string, field string) (int, bool) {
	candidates := append([]string{field}, a[field]...)
	for _, want := range candidates {
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(want)) {
				return i, true
			}
		}
	}
	return -1, false
}

func (a HeaderAliases) requireColumn(headers []string, table, field string) (int, error) {
	idx, ok := a.FindColumn(headers, field)
	if !ok {
		return -1, &leadtime.MissingFieldError{Table: table, Row: 1, Field: field, Reason: "column not found"}
	}
	return idx, nil
}
