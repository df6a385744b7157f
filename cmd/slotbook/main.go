package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"slotBook/internal/config"
	"slotBook/internal/excel"
	"slotBook/internal/logger"
	"slotBook/internal/mapping"
	"slotBook/internal/runner"
)

const configPath = "configs/config.toml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	command := os.Args[1]

	// .env is optional; it usually carries GEMINI_API_KEY and SLOTBOOK_* overrides
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: failed to read .env: %v\n", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logger.Setup(cfg.Log.Directory, cfg.Log.Level)
	if err != nil {
		fmt.Printf("Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	switch command {
	case "run":
		if len(os.Args) < 5 {
			fmt.Println("Error: run command requires master, consignment and output paths")
			fmt.Println("Usage: slotbook run <master.xlsx> <consignment.xlsx> <output_folder> [--at RFC3339]")
			os.Exit(1)
		}
		runAt, err := parseRunAt(os.Args[5:])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if !runProcess(cfg, os.Args[2], os.Args[3], os.Args[4], runAt) {
			os.Exit(1)
		}
	case "scan":
		runScan(cfg, os.Args[2:])
	case "init-targets":
		runInitTargets(cfg)
	case "map":
		runMapping(cfg)
	case "suggest":
		runSuggest(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

const usage = `SlotBook - Lead time and appointment date tool

Usage:
  slotbook run <master> <consignment> <output_folder> [--at RFC3339]
                                        - Enrich lead times and assign appointment dates
  slotbook scan [files...]              - Scan Excel files for column names
  slotbook init-targets                 - Add input fields to target_columns file
  slotbook map                          - Open interactive header mapping tool
  slotbook suggest                      - Suggest header mappings with Gemini

Notes:
  run recomputes Lead Time Date from the holiday-adjusted total by default.
  Set [schedule] refresh_lead_time_date = false to keep the date found
  before holiday adjustment.
`

func printUsage() {
	fmt.Print(usage)
}

func parseRunAt(args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Now(), nil
	}
	if len(args) != 2 || args[0] != "--at" {
		return time.Time{}, fmt.Errorf("unexpected arguments %v", args)
	}
	t, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at time %q: %w", args[1], err)
	}
	return t, nil
}

func runProcess(cfg *config.Config, masterPath, consignmentPath, outputDir string, runAt time.Time) bool {
	mappingFile := filepath.Join(cfg.Scan.OutputDirectory, mapping.MappingFile)
	aliases, err := mapping.LoadAliases(mappingFile)
	if err != nil {
		logger.Error("Failed to load header mapping", "path", mappingFile, "error", err)
		fmt.Printf("❌ Error loading header mapping: %v\n", err)
		return false
	}

	r, err := runner.New(cfg, aliases)
	if err != nil {
		logger.Error("Failed to prepare run", "error", err)
		fmt.Printf("❌ Error: %v\n", err)
		return false
	}

	report, err := r.Run(runner.Options{
		MasterPath:      masterPath,
		ConsignmentPath: consignmentPath,
		OutputDir:       outputDir,
		RunAt:           runAt,
	})
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		return false
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Processing complete! (run %s)\n", report.RunID)
	fmt.Printf("✓ Lead times: %d rows, %d holiday adjustments\n", report.Shipments, report.HolidayAdjustments)
	fmt.Printf("✓ Consignments: %d matched, %d imputed\n", report.Matched, report.Imputed)
	if report.ModeDate != "" {
		fmt.Printf("   Imputed date: %s\n", report.ModeDate)
	}
	for _, code := range report.UnknownCarriers {
		fmt.Printf("Warning: carrier %s has no holiday calendar column\n", code)
	}
	for _, f := range report.Failures {
		fmt.Printf("Warning: %s\n", f)
	}
	fmt.Printf("Results saved to: %s\n", outputDir)
	return true
}

func runScan(cfg *config.Config, files []string) {
	logger.Info("Starting scan operation", "extra_files", len(files))
	fmt.Println("\nScanning Excel files for column names...")
	if _, err := excel.ScanAllColumnsInDirectory(cfg.Scan.InputDirectory, cfg.Scan.OutputDirectory, files...); err != nil {
		logger.Error("Scan operation failed", "error", err)
		fmt.Printf("Error scanning Excel files: %v\n", err)
		os.Exit(1)
	}
}

func runInitTargets(cfg *config.Config) {
	targetColumnsFile := filepath.Join(cfg.Scan.OutputDirectory, mapping.TargetColumnsFile)

	logger.Info("Starting init-targets operation", "file", targetColumnsFile)
	if err := os.MkdirAll(cfg.Scan.OutputDirectory, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	added, err := mapping.AppendTargetFieldsToFile(targetColumnsFile)
	if err != nil {
		logger.Error("Init-targets operation failed", "error", err)
		fmt.Printf("Error writing target columns: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Added %d fields to %s\n", added, targetColumnsFile)
}

func runMapping(cfg *config.Config) {
	scannedColumnsFile := filepath.Join(cfg.Scan.OutputDirectory, excel.ScannedColumnsFile)
	targetColumnsFile := filepath.Join(cfg.Scan.OutputDirectory, mapping.TargetColumnsFile)
	mappingOutputFile := filepath.Join(cfg.Scan.OutputDirectory, mapping.MappingFile)

	logger.Info("Starting mapping operation",
		"scanned_file", scannedColumnsFile,
		"target_file", targetColumnsFile,
		"output_file", mappingOutputFile)

	if _, err := os.Stat(scannedColumnsFile); os.IsNotExist(err) {
		fmt.Printf("Scanned columns file not found: %s\n", scannedColumnsFile)
		fmt.Println("Please run 'slotbook scan' first to generate scanned columns.")
		return
	}
	if _, err := mapping.AppendTargetFieldsToFile(targetColumnsFile); err != nil {
		logger.Error("Failed to prepare target columns file", "error", err)
		fmt.Printf("Error preparing target columns file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Using files:\n")
	fmt.Printf("   Scanned columns: %s\n", scannedColumnsFile)
	fmt.Printf("   Target columns:  %s\n", targetColumnsFile)
	fmt.Printf("   Output mapping:  %s\n", mappingOutputFile)
	fmt.Printf("Grid: %dx%d (cols x rows)\n", cfg.UI.ColumnsPerRow, cfg.UI.RowsPerPage)
	fmt.Println()

	uiConfig := mapping.UIConfig{
		ColumnsPerRow: cfg.UI.ColumnsPerRow,
		RowsPerPage:   cfg.UI.RowsPerPage,
	}

	if err := mapping.RunMappingTUI(scannedColumnsFile, targetColumnsFile, mappingOutputFile, uiConfig); err != nil {
		logger.Error("Mapping operation failed", "error", err)
		fmt.Printf("Error running mapping tool: %v\n", err)
		os.Exit(1)
	}
}

func runSuggest(cfg *config.Config) {
	scannedColumnsFile := filepath.Join(cfg.Scan.OutputDirectory, excel.ScannedColumnsFile)
	mappingFile := filepath.Join(cfg.Scan.OutputDirectory, mapping.MappingFile)

	headers, err := mapping.ReadColumnsFromFile(scannedColumnsFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Please run 'slotbook scan' first to generate scanned columns.")
		os.Exit(1)
	}

	mc, err := mapping.LoadFromFile(mappingFile)
	if os.IsNotExist(err) {
		mc = &mapping.MappingConfig{}
	} else if err != nil {
		logger.Error("Failed to load mapping file", "error", err)
		fmt.Printf("Error loading mapping file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	ai, err := mapping.NewAIMapper(ctx, mapping.GetGeminiAPIKey(), cfg.AI.Model, cfg.AI.MinConfidence, cfg.AI.Timeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Set GEMINI_API_KEY in the environment or in .env.")
		os.Exit(1)
	}
	defer ai.Close()

	fmt.Printf("🤖 Asking %s about %d headers...\n", cfg.AI.Model, len(headers))
	suggestions, err := ai.GenerateColumnMappings(ctx, headers, excel.InputFields)
	if err != nil {
		logger.Error("Suggest operation failed", "error", err)
		fmt.Printf("Error generating suggestions: %v\n", err)
		os.Exit(1)
	}

	added := mc.MergeSuggestions(suggestions)
	if err := mc.SaveToFile(mappingFile); err != nil {
		logger.Error("Failed to save mapping file", "error", err)
		fmt.Printf("Error saving mapping file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ %d suggestions above %.2f confidence, %d new\n", len(suggestions), cfg.AI.MinConfidence, added)
	fmt.Printf("✓ Mapping configuration saved to: %s\n", mappingFile)
	fmt.Println("Run 'slotbook map' to review them.")
}
