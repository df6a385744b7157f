package excel

import (
	"fmt"
	"strings"

	"slotBook/internal/leadtime"
	"slotBook/internal/logger"
)

const (
	tableLeadTimes = "Lead Times"
	tableHolidays  = "Holiday Calendar"
	tableExport    = "Export"
)

// LoadShipments reads the Lead Times sheet. Blank rows are skipped; a row
// with data but no carrier code is an error. Lead time and traffic
// consideration cells that are blank or not numeric are left nil for the
// enricher to report
func LoadShipments(e *Editor, sheet string, aliases HeaderAliases) ([]leadtime.ShipmentRecord, error) {
	rows, err := e.GetRawRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &leadtime.MissingFieldError{Table: tableLeadTimes, Row: 1, Field: FieldCarrierCode, Reason: "sheet is empty"}
	}

	headers := rows[0]
	codeCol, err := aliases.requireColumn(headers, tableLeadTimes, FieldCarrierCode)
	if err != nil {
		return nil, err
	}
	leadCol, err := aliases.requireColumn(headers, tableLeadTimes, FieldLeadTime)
	if err != nil {
		return nil, err
	}
	trafficCol, err := aliases.requireColumn(headers, tableLeadTimes, FieldTrafficConsideration)
	if err != nil {
		return nil, err
	}

	var shipments []leadtime.ShipmentRecord
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if isBlankRow(row) {
			continue
		}

		code := strings.TrimSpace(cellAt(row, codeCol))
		if code == "" {
			return nil, &leadtime.MissingFieldError{Table: tableLeadTimes, Row: r + 1, Field: FieldCarrierCode, Reason: "blank"}
		}

		rec := leadtime.ShipmentRecord{Row: r + 1, CarrierCode: code}
		if v, ok := parseNumericValue(cellAt(row, leadCol)); ok {
			rec.LeadTimeDays = leadtime.Days(v)
		}
		if v, ok := parseNumericValue(cellAt(row, trafficCol)); ok {
			rec.TrafficConsiderationDays = leadtime.Days(v)
		}
		shipments = append(shipments, rec)
	}

	logger.Info("Loaded lead times", "sheet", sheet, "rows", len(shipments))
	return shipments, nil
}

// LoadHolidays reads the Holiday Calendar sheet. Every headed column other
// than the date column is a carrier column; blank or non-numeric cells count
// as zero extra days. Rows without a readable date are skipped
func LoadHolidays(e *Editor, sheet string, aliases HeaderAliases) ([]leadtime.HolidayEntry, error) {
	rows, err := e.GetRawRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := rows[0]
	dateCol, err := aliases.requireColumn(headers, tableHolidays, FieldHolidayDate)
	if err != nil {
		return nil, err
	}

	carrierCols := make(map[int]string)
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if i != dateCol && h != "" {
			carrierCols[i] = h
		}
	}

	var entries []leadtime.HolidayEntry
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if isBlankRow(row) {
			continue
		}

		date, ok := parseDateValue(cellAt(row, dateCol))
		if !ok {
			logger.Warn("Skipping holiday row without a readable date", "sheet", sheet, "row", r+1, "value", cellAt(row, dateCol))
			continue
		}

		entry := leadtime.HolidayEntry{Row: r + 1, Date: date, ExtraDays: make(map[string]float64, len(carrierCols))}
		for col, code := range carrierCols {
			v, _ := parseNumericValue(cellAt(row, col))
			entry.ExtraDays[code] = v
		}
		entries = append(entries, entry)
	}

	logger.Info("Loaded holiday calendar", "sheet", sheet, "rows", len(entries), "carriers", len(carrierCols))
	return entries, nil
}

// LoadConsignments reads the export sheet's ship-to locations
func LoadConsignments(e *Editor, sheet string, aliases HeaderAliases) ([]leadtime.ConsignmentRecord, error) {
	rows, err := e.GetRawRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &leadtime.MissingFieldError{Table: tableExport, Row: 1, Field: FieldShipToLocation, Reason: "sheet is empty"}
	}

	shipToCol, err := aliases.requireColumn(rows[0], tableExport, FieldShipToLocation)
	if err != nil {
		return nil, err
	}

	var consignments []leadtime.ConsignmentRecord
	for r := 1; r < len(rows); r++ {
		if isBlankRow(rows[r]) {
			continue
		}
		consignments = append(consignments, leadtime.ConsignmentRecord{
			Row:            r + 1,
			ShipToLocation: cellAt(rows[r], shipToCol),
		})
	}

	logger.Info("Loaded consignments", "sheet", sheet, "rows", len(consignments))
	return consignments, nil
}

// WriteShipments stores total lead time and lead time date on each
// shipment's row, adding the columns if needed
func WriteShipments(e *Editor, sheet string, shipments []leadtime.ShipmentRecord, dateFormat string) error {
	totalCol, err := e.EnsureColumn(sheet, HeaderTotalLeadTime)
	if err != nil {
		return err
	}
	dateCol, err := e.EnsureColumn(sheet, HeaderLeadTimeDate)
	if err != nil {
		return err
	}

	first, last := 0, 0
	for _, s := range shipments {
		if err := e.SetCellAt(sheet, totalCol, s.Row, s.TotalLeadTimeDays); err != nil {
			return err
		}
		if err := e.SetCellAt(sheet, dateCol, s.Row, s.LeadTimeDate); err != nil {
			return err
		}
		if first == 0 || s.Row < first {
			first = s.Row
		}
		if s.Row > last {
			last = s.Row
		}
	}

	if err := e.SetColumnNumberFormat(sheet, dateCol, first, last, dateFormat); err != nil {
		return fmt.Errorf("failed to format %s: %w", HeaderLeadTimeDate, err)
	}
	return nil
}

// WriteConsignments stores location code and the yyyy-mm-dd appointment
// date on each consignment's row, adding the columns if needed
func WriteConsignments(e *Editor, sheet string, consignments []leadtime.ConsignmentRecord) error {
	codeCol, err := e.EnsureColumn(sheet, HeaderLocationCode)
	if err != nil {
		return err
	}
	dateCol, err := e.EnsureColumn(sheet, HeaderAppointmentDate)
	if err != nil {
		return err
	}

	for _, c := range consignments {
		if err := e.SetCellAt(sheet, codeCol, c.Row, c.LocationCode); err != nil {
			return err
		}
		if err := e.SetCellAt(sheet, dateCol, c.Row, c.AppointmentText()); err != nil {
			return err
		}
	}
	return nil
}
