package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"slotBook/internal/config"
	"slotBook/internal/excel"
	"slotBook/internal/leadtime"
	"slotBook/internal/logger"
)

// ReportFile is written to the output folder after a successful run
const ReportFile = "slotbook_report.json"

// Options names the inputs of one run
type Options struct {
	MasterPath      string
	ConsignmentPath string
	OutputDir       string
	RunAt           time.Time
}

// Report describes a finished run
type Report struct {
	RunID              string    `json:"run_id"`
	RunAt              time.Time `json:"run_at"`
	FinishedAt         time.Time `json:"finished_at"`
	MasterFile         string    `json:"master_file"`
	ConsignmentFile    string    `json:"consignment_file"`
	Shipments          int       `json:"shipments"`
	HolidayAdjustments int       `json:"holiday_adjustments"`
	HolidayPasses      int       `json:"holiday_passes"`
	UnknownCarriers    []string  `json:"unknown_carriers,omitempty"`
	Consignments       int       `json:"consignments"`
	Matched            int       `json:"matched"`
	Imputed            int       `json:"imputed"`
	ModeDate           string    `json:"mode_date,omitempty"`
	Failures           []string  `json:"failures,omitempty"`
}

// Runner processes a master workbook and a consignment export
type Runner struct {
	cfg      *config.Config
	aliases  excel.HeaderAliases
	enricher *leadtime.Enricher
	adjuster *leadtime.HolidayAdjuster
	assigner *leadtime.AppointmentAssigner
}

// New builds a Runner from configuration. extraAliases usually comes from
// the mapping file and is added to the configured header aliases
func New(cfg *config.Config, extraAliases map[string][]string) (*Runner, error) {
	rounding, err := leadtime.ParseRounding(cfg.Schedule.Rounding)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:     cfg,
		aliases: excel.HeaderAliases(cfg.Headers.Aliases).Merge(extraAliases),
		enricher: &leadtime.Enricher{
			Rounding:          rounding,
			AfternoonHour:     cfg.Schedule.AfternoonCutoffHour,
			AfternoonBumpDays: cfg.Schedule.AfternoonBumpDays,
		},
		adjuster: &leadtime.HolidayAdjuster{Rounding: rounding},
		assigner: &leadtime.AppointmentAssigner{Strict: cfg.Assign.Strict},
	}, nil
}

// Run enriches the Lead Times sheet, assigns appointment dates to the
// export and saves both workbooks into opts.OutputDir under their original
// names. Nothing is saved when a stage fails
func (r *Runner) Run(opts Options) (*Report, error) {
	if opts.RunAt.IsZero() {
		opts.RunAt = time.Now()
	}
	report := &Report{
		RunID:           uuid.New().String(),
		RunAt:           opts.RunAt,
		MasterFile:      opts.MasterPath,
		ConsignmentFile: opts.ConsignmentPath,
	}
	prev := logger.Logger
	log := logger.With("run_id", report.RunID)
	defer func() { logger.Logger = prev }()
	log.Info("Starting run", "master", opts.MasterPath, "consignments", opts.ConsignmentPath, "output", opts.OutputDir, "run_at", opts.RunAt)

	fmt.Printf("Opening workbook: %s\n", opts.MasterPath)
	master, err := excel.OpenFile(opts.MasterPath)
	if err != nil {
		return nil, fmt.Errorf("master workbook: %w", err)
	}
	defer master.Close()

	shipments, err := r.processLeadTimes(master, opts.RunAt, report)
	if err != nil {
		log.Error("Lead times failed", "error", err)
		return nil, err
	}
	fmt.Printf("✓ Lead times enriched for %d carriers\n", len(shipments))

	fmt.Printf("Processing export workbook: %s\n", opts.ConsignmentPath)
	export, err := excel.OpenFile(opts.ConsignmentPath)
	if err != nil {
		return nil, fmt.Errorf("consignment workbook: %w", err)
	}
	defer export.Close()

	if err := r.processExport(export, shipments, report); err != nil {
		log.Error("Export failed", "error", err)
		return nil, err
	}
	fmt.Printf("✓ Appointment dates: %d matched, %d imputed\n", report.Matched, report.Imputed)

	if err := master.FormatSheets(); err != nil {
		return nil, err
	}
	if err := export.FormatSheets(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	for _, wb := range []*excel.Editor{master, export} {
		target := filepath.Join(opts.OutputDir, filepath.Base(wb.Path()))
		if err := wb.SaveAs(target); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", target, err)
		}
		fmt.Printf("Workbook saved: %s\n", target)
		log.Info("Saved workbook", "path", target)
	}

	report.FinishedAt = time.Now()
	if err := writeReport(filepath.Join(opts.OutputDir, ReportFile), report); err != nil {
		return nil, err
	}

	log.Info("Run completed",
		"shipments", report.Shipments,
		"holiday_adjustments", report.HolidayAdjustments,
		"consignments", report.Consignments,
		"matched", report.Matched,
		"imputed", report.Imputed,
		"failures", len(report.Failures))
	return report, nil
}

func (r *Runner) processLeadTimes(master *excel.Editor, runAt time.Time, report *Report) ([]leadtime.ShipmentRecord, error) {
	wb := r.cfg.Workbook
	leadSheet, err := master.ResolveSheet(wb.LeadTimesSheet, false)
	if err != nil {
		return nil, err
	}
	holidaySheet, err := master.ResolveSheet(wb.HolidaySheet, false)
	if err != nil {
		return nil, err
	}

	loaded, err := excel.LoadShipments(master, leadSheet, r.aliases)
	if err != nil {
		return nil, err
	}
	holidays, err := excel.LoadHolidays(master, holidaySheet, r.aliases)
	if err != nil {
		return nil, err
	}

	shipments, err := r.enricher.Enrich(loaded, runAt)
	if err != nil {
		return nil, err
	}

	var holidayReport leadtime.HolidayReport
	if r.cfg.Schedule.IterateHolidays {
		report.HolidayPasses, holidayReport, err = r.adjuster.ApplyHolidaysUntilStable(shipments, holidays, r.cfg.Schedule.MaxHolidayPasses)
	} else {
		holidayReport, err = r.adjuster.ApplyHolidays(shipments, holidays)
		report.HolidayPasses = 1
	}
	if err != nil {
		return nil, err
	}
	if !r.cfg.Schedule.IterateHolidays && r.cfg.Schedule.RefreshLeadTimeDate {
		leadtime.RefreshLeadTimeDates(shipments)
	}
	report.Shipments = len(shipments)
	report.HolidayAdjustments = holidayReport.Adjusted
	for _, m := range holidayReport.Mismatches {
		report.UnknownCarriers = append(report.UnknownCarriers, m.CarrierCode)
	}

	if err := excel.WriteShipments(master, leadSheet, shipments, wb.DateFormat); err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *Runner) processExport(export *excel.Editor, shipments []leadtime.ShipmentRecord, report *Report) error {
	sheet, err := export.ResolveSheet(r.cfg.Workbook.ExportSheet, true)
	if err != nil {
		return err
	}
	if sheet != r.cfg.Workbook.ExportSheet {
		logger.Warn("Export sheet not found, using first sheet", "wanted", r.cfg.Workbook.ExportSheet, "using", sheet)
	}

	consignments, err := excel.LoadConsignments(export, sheet, r.aliases)
	if err != nil {
		return err
	}

	assigned, assignReport, err := r.assigner.Assign(consignments, shipments)
	for _, f := range assignReport.Failures {
		report.Failures = append(report.Failures, f.Error())
		logger.Warn("Consignment row failed", "error", f)
	}
	if err != nil {
		return err
	}

	report.Consignments = len(assigned)
	report.Matched = assignReport.Matched
	report.Imputed = assignReport.Imputed
	if !assignReport.ModeDate.IsZero() {
		report.ModeDate = assignReport.ModeDate.Format(leadtime.DateLayout)
	}

	return excel.WriteConsignments(export, sheet, assigned)
}

func writeReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
