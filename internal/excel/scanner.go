package excel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slotBook/internal/logger"
)

// ScannedColumnsFile is the name of the header list written by a scan
const ScannedColumnsFile = "scanned_columns"

// ScanAllColumnsInDirectory scans all .xlsx files in inputDir, plus any
// extra files, and saves every unique header to outputDir/scanned_columns
func ScanAllColumnsInDirectory(inputDir, outputDir string, extra ...string) (string, error) {
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create input directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	xlsxFiles, err := FindWorkbooks(inputDir)
	if err != nil {
		return "", fmt.Errorf("failed to get xlsx files: %w", err)
	}
	xlsxFiles = append(xlsxFiles, extra...)

	if len(xlsxFiles) == 0 {
		fmt.Printf("No .xlsx files found in directory: %s\n", inputDir)
		return "", nil
	}

	fmt.Printf("Found %d .xlsx files to scan\n", len(xlsxFiles))
	columnNames := ScanHeaders(xlsxFiles)

	outputFilePath := filepath.Join(outputDir, ScannedColumnsFile)
	if err := WriteColumnsToFile(outputFilePath, columnNames); err != nil {
		return "", fmt.Errorf("failed to write columns to file: %w", err)
	}

	fmt.Printf("✓ Found %d unique column names across all files\n", len(columnNames))
	fmt.Printf("✓ Results saved to '%s' file\n", outputFilePath)
	return outputFilePath, nil
}

// ScanHeaders returns the sorted unique headers of every sheet of files.
// Files that cannot be read are skipped with a warning
func ScanHeaders(files []string) []string {
	uniqueColumns := make(map[string]bool)
	for _, filePath := range files {
		fmt.Printf("Scanning file: %s\n", filepath.Base(filePath))
		if err := scanFileColumns(filePath, uniqueColumns); err != nil {
			logger.Warn("Failed to scan file", "file", filePath, "error", err)
			fmt.Printf("Warning: Failed to scan file %s: %v\n", filepath.Base(filePath), err)
		}
	}

	columnNames := make([]string, 0, len(uniqueColumns))
	for column := range uniqueColumns {
		columnNames = append(columnNames, column)
	}
	sort.Strings(columnNames)
	return columnNames
}

// FindWorkbooks returns all .xlsx files under dir, skipping Excel lock files
func FindWorkbooks(dir string) ([]string, error) {
	var xlsxFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.ToLower(filepath.Ext(path)) == ".xlsx" && !strings.HasPrefix(info.Name(), "~$") {
			xlsxFiles = append(xlsxFiles, path)
		}
		return nil
	})

	return xlsxFiles, err
}

func scanFileColumns(filePath string, uniqueColumns map[string]bool) error {
	editor, err := OpenFile(filePath)
	if err != nil {
		return err
	}
	defer editor.Close()

	for _, sheetName := range editor.GetSheetNames() {
		headers, err := editor.GetColumnHeaders(sheetName)
		if err != nil {
			logger.Warn("Failed to read headers", "file", filePath, "sheet", sheetName, "error", err)
			continue
		}

		for _, header := range headers {
			if trimmed := strings.TrimSpace(header); trimmed != "" {
				uniqueColumns[trimmed] = true
			}
		}
		logger.Debug("Scanned sheet", "file", filePath, "sheet", sheetName, "headers", len(headers))
	}
	return nil
}

// WriteColumnsToFile writes column names to a plain text file, one per line
func WriteColumnsToFile(filename string, columns []string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, column := range columns {
		if _, err := writer.WriteString(column + "\n"); err != nil {
			return fmt.Errorf("failed to write column: %w", err)
		}
	}
	return writer.Flush()
}
