package runner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"slotBook/internal/config"
	"slotBook/internal/excel"
	"slotBook/internal/leadtime"
)

type sheet struct {
	name string
	rows [][]interface{}
}

func writeWorkbook(t *testing.T, dir, name string, sheets ...sheet) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if s.name != "Sheet1" {
				require.NoError(t, f.SetSheetName("Sheet1", s.name))
			}
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeInputs(t *testing.T, shipTo ...string) (master, export string) {
	t.Helper()
	dir := t.TempDir()
	master = writeWorkbook(t, dir, "master.xlsx",
		sheet{"Lead Times", [][]interface{}{
			{"Amazon Code", "Lead Time", "Traffice consideration"},
			{"AMZ1", 2, 1},
			{"BHX4", 1, 1},
		}},
		sheet{"Holiday Calendar", [][]interface{}{
			{"Date", "AMZ1", "BHX4"},
			{"2024-03-07", 1, 0},
		}},
	)

	rows := [][]interface{}{{"Order", "Ship to location"}}
	for i, s := range shipTo {
		rows = append(rows, []interface{}{i + 1, s})
	}
	export = writeWorkbook(t, dir, "export.xlsx", sheet{"Sheet1", rows})
	return master, export
}

func readRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	e, err := excel.OpenFile(path)
	require.NoError(t, err)
	defer e.Close()
	rows, err := e.GetRawRows(sheet)
	require.NoError(t, err)
	return rows
}

func serialDate(t *testing.T, raw string) time.Time {
	t.Helper()
	serial, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err)
	d, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	return leadtime.DateOf(d)
}

func newRunner(t *testing.T, mutate func(*config.Config)) *Runner {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	r, err := New(cfg, nil)
	require.NoError(t, err)
	return r
}

var morning = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func TestRun_EndToEnd(t *testing.T) {
	master, export := writeInputs(t, "AMZ1 - Leeds", "BHX4 - Birmingham", "BHX4 - Coventry", "XYZ9 - Nowhere")
	outDir := filepath.Join(t.TempDir(), "out")

	report, err := newRunner(t, nil).Run(Options{
		MasterPath:      master,
		ConsignmentPath: export,
		OutputDir:       outDir,
		RunAt:           morning,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Shipments)
	assert.Equal(t, 1, report.HolidayAdjustments)
	assert.Equal(t, 4, report.Consignments)
	assert.Equal(t, 3, report.Matched)
	assert.Equal(t, 1, report.Imputed)
	assert.Equal(t, "2024-03-06", report.ModeDate)
	assert.Empty(t, report.Failures)

	lead := readRows(t, filepath.Join(outDir, "master.xlsx"), "Lead Times")
	require.Len(t, lead, 3)
	assert.Equal(t, []string{"Amazon Code", "Lead Time", "Traffice consideration", "Total Lead Time", "Lead Time Date"}, lead[0])

	// AMZ1: 2+1 lands on the 7th, a holiday worth one extra day
	total, err := strconv.ParseFloat(lead[1][3], 64)
	require.NoError(t, err)
	assert.Equal(t, 4.0, total)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), serialDate(t, lead[1][4]))

	total, err = strconv.ParseFloat(lead[2][3], 64)
	require.NoError(t, err)
	assert.Equal(t, 2.0, total)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), serialDate(t, lead[2][4]))

	exp := readRows(t, filepath.Join(outDir, "export.xlsx"), "Sheet1")
	require.Len(t, exp, 5)
	assert.Equal(t, []string{"Order", "Ship to location", "Location Code", "Appointment Date"}, exp[0])
	assert.Equal(t, []string{"AMZ1", "2024-03-08"}, exp[1][2:])
	assert.Equal(t, []string{"BHX4", "2024-03-06"}, exp[2][2:])
	assert.Equal(t, []string{"BHX4", "2024-03-06"}, exp[3][2:])
	assert.Equal(t, []string{"XYZ9", "2024-03-06"}, exp[4][2:])

	data, err := os.ReadFile(filepath.Join(outDir, ReportFile))
	require.NoError(t, err)
	var saved Report
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, report.RunID, saved.RunID)
	assert.Equal(t, 3, saved.Matched)
}

func TestRun_InputsUntouched(t *testing.T) {
	master, export := writeInputs(t, "AMZ1 - Leeds")
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := newRunner(t, nil).Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: outDir, RunAt: morning})
	require.NoError(t, err)

	lead := readRows(t, master, "Lead Times")
	assert.Len(t, lead[0], 3)
}

func TestRun_WithoutRefreshKeepsFirstDate(t *testing.T) {
	master, export := writeInputs(t, "AMZ1 - Leeds")
	outDir := filepath.Join(t.TempDir(), "out")

	r := newRunner(t, func(c *config.Config) { c.Schedule.RefreshLeadTimeDate = false })
	_, err := r.Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: outDir, RunAt: morning})
	require.NoError(t, err)

	lead := readRows(t, filepath.Join(outDir, "master.xlsx"), "Lead Times")
	assert.Equal(t, "4", lead[1][3])
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), serialDate(t, lead[1][4]))
}

func TestRun_IterateHolidays(t *testing.T) {
	master, export := writeInputs(t, "AMZ1 - Leeds")
	outDir := filepath.Join(t.TempDir(), "out")

	r := newRunner(t, func(c *config.Config) { c.Schedule.IterateHolidays = true })
	report, err := r.Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: outDir, RunAt: morning})
	require.NoError(t, err)
	assert.Equal(t, 1, report.HolidayPasses)
	assert.Equal(t, 1, report.HolidayAdjustments)
}

func TestRun_StrictMalformedSavesNothing(t *testing.T) {
	master, export := writeInputs(t, "AMZ1 - Leeds", "no delimiter")
	outDir := filepath.Join(t.TempDir(), "out")

	r := newRunner(t, func(c *config.Config) { c.Assign.Strict = true })
	_, err := r.Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: outDir, RunAt: morning})
	require.Error(t, err)

	var malformed *leadtime.MalformedLocationError
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, 3, malformed.Row)
	assert.NoDirExists(t, outDir)
}

func TestRun_LenientMalformedIsImputed(t *testing.T) {
	master, export := writeInputs(t, "AMZ1 - Leeds", "no delimiter")
	outDir := filepath.Join(t.TempDir(), "out")

	report, err := newRunner(t, nil).Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: outDir, RunAt: morning})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imputed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "row 3")
}

func TestRun_NoModeAvailable(t *testing.T) {
	master, export := writeInputs(t, "XYZ9 - Nowhere")
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := newRunner(t, nil).Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: outDir, RunAt: morning})
	var noMode *leadtime.NoModeAvailableError
	require.ErrorAs(t, err, &noMode)
	assert.Equal(t, 1, noMode.Unmatched)
}

func TestRun_NegativeHolidayDaysSavesNothing(t *testing.T) {
	dir := t.TempDir()
	master := writeWorkbook(t, dir, "master.xlsx",
		sheet{"Lead Times", [][]interface{}{
			{"Carrier Code", "Lead Time", "Traffic Consideration"},
			{"AMZ1", 2, 1},
		}},
		sheet{"Holiday Calendar", [][]interface{}{
			{"Date", "AMZ1"},
			{"2024-03-07", -5},
		}},
	)
	export := writeWorkbook(t, dir, "export.xlsx", sheet{"Sheet1", [][]interface{}{
		{"Ship to location"},
		{"AMZ1 - Leeds"},
	}})
	outDir := filepath.Join(dir, "out")

	_, err := newRunner(t, nil).Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: outDir, RunAt: morning})
	var negative *leadtime.NegativeLeadTimeError
	require.ErrorAs(t, err, &negative)
	assert.Equal(t, 2, negative.Row)
	assert.NoDirExists(t, outDir)
}

func TestRun_UnknownCarrierReported(t *testing.T) {
	dir := t.TempDir()
	master := writeWorkbook(t, dir, "master.xlsx",
		sheet{"Lead Times", [][]interface{}{
			{"Carrier Code", "Lead Time", "Traffic Consideration"},
			{"AMZ1", 2, 1},
			{"NEW1", 1, 0},
		}},
		sheet{"Holiday Calendar", [][]interface{}{
			{"Date", "AMZ1"},
			{"2024-12-25", 1},
		}},
	)
	export := writeWorkbook(t, dir, "export.xlsx", sheet{"Sheet1", [][]interface{}{
		{"Ship to location"},
		{"AMZ1 - Leeds"},
	}})

	report, err := newRunner(t, nil).Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: filepath.Join(dir, "out"), RunAt: morning})
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW1"}, report.UnknownCarriers)
}

func TestRun_MissingHolidaySheet(t *testing.T) {
	master, export := writeInputs(t, "AMZ1 - Leeds")

	r := newRunner(t, func(c *config.Config) { c.Workbook.HolidaySheet = "Holidays 2024" })
	_, err := r.Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: t.TempDir(), RunAt: morning})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Holidays 2024")
}

func TestRun_MappingAliases(t *testing.T) {
	dir := t.TempDir()
	master := writeWorkbook(t, dir, "master.xlsx",
		sheet{"Lead Times", [][]interface{}{
			{"Site", "Transit Days", "Traffic Consideration"},
			{"AMZ1", 1, 0},
		}},
		sheet{"Holiday Calendar", [][]interface{}{{"Date"}}},
	)
	export := writeWorkbook(t, dir, "export.xlsx", sheet{"Sheet1", [][]interface{}{
		{"Destination"},
		{"AMZ1 - Leeds"},
	}})

	r, err := New(config.Default(), map[string][]string{
		excel.FieldCarrierCode:    {"Site"},
		excel.FieldLeadTime:       {"Transit Days"},
		excel.FieldShipToLocation: {"Destination"},
	})
	require.NoError(t, err)

	report, err := r.Run(Options{MasterPath: master, ConsignmentPath: export, OutputDir: filepath.Join(dir, "out"), RunAt: morning})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
}

func TestNew_InvalidRounding(t *testing.T) {
	cfg := config.Default()
	cfg.Schedule.Rounding = "banker"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
