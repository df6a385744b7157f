package mapping

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"slotBook/internal/excel"
)

// File names kept in the scan output directory
const (
	TargetColumnsFile = "target_columns"
	MappingFile       = "column_mapping.json"
)

// Mapping sources
const (
	SourceManual = "manual"
	SourceAI     = "ai"
)

// ColumnMapping maps a workbook header onto a canonical field
type ColumnMapping struct {
	ScannedColumn string  `json:"scanned_column"`
	TargetColumn  string  `json:"target_column"`
	IsIgnored     bool    `json:"is_ignored"`
	Source        string  `json:"source,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}

// MappingConfig holds all column mappings
type MappingConfig struct {
	Mappings []ColumnMapping `json:"mappings"`
}

// SaveToFile saves the mapping configuration to a JSON file
func (mc *MappingConfig) SaveToFile(filepath string) error {
	sort.Slice(mc.Mappings, func(i, j int) bool {
		return mc.Mappings[i].ScannedColumn < mc.Mappings[j].ScannedColumn
	})
	data, err := json.MarshalIndent(mc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadFromFile loads mapping configuration from a JSON file
func LoadFromFile(filepath string) (*MappingConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var config MappingConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", filepath, err)
	}
	return &config, nil
}

// LoadAliases returns the field -> header aliases of the mapping file at
// path, or nil when the file does not exist
func LoadAliases(path string) (map[string][]string, error) {
	mc, err := LoadFromFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mc.Aliases(), nil
}

// Aliases groups mapped headers by the field they map to. Ignored entries
// are left out
func (mc *MappingConfig) Aliases() map[string][]string {
	aliases := make(map[string][]string)
	for _, m := range mc.Mappings {
		if m.IsIgnored || m.TargetColumn == "" {
			continue
		}
		aliases[m.TargetColumn] = append(aliases[m.TargetColumn], m.ScannedColumn)
	}
	return aliases
}

// MergeSuggestions adds AI suggestions for headers that have no entry yet.
// Existing entries, manual or not, are never replaced. It returns the
// number of suggestions added
func (mc *MappingConfig) MergeSuggestions(suggestions []AIMapping) int {
	known := make(map[string]bool, len(mc.Mappings))
	for _, m := range mc.Mappings {
		known[m.ScannedColumn] = true
	}

	added := 0
	for _, s := range suggestions {
		if known[s.ScannedColumn] {
			continue
		}
		known[s.ScannedColumn] = true
		mc.Mappings = append(mc.Mappings, ColumnMapping{
			ScannedColumn: s.ScannedColumn,
			TargetColumn:  s.TargetColumn,
			Source:        SourceAI,
			Confidence:    s.Confidence,
		})
		added++
	}
	return added
}

// ReadColumnsFromFile reads column names from a text file (one per line)
func ReadColumnsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filepath, err)
	}
	defer file.Close()

	var columns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			columns = append(columns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filepath, err)
	}
	return columns, nil
}

// AppendTargetFieldsToFile makes sure every canonical input field is listed
// in the target columns file, creating it if needed. It returns the number
// of fields added
func AppendTargetFieldsToFile(filepath string) (int, error) {
	existing := make(map[string]bool)
	needsNewline := false
	if data, err := os.ReadFile(filepath); err == nil {
		needsNewline = len(data) > 0 && data[len(data)-1] != '\n'
		columns, err := ReadColumnsFromFile(filepath)
		if err != nil {
			return 0, err
		}
		for _, c := range columns {
			existing[c] = true
		}
	}

	var missing []string
	for _, field := range excel.InputFields {
		if !existing[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	file, err := os.OpenFile(filepath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open target columns file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if needsNewline {
		writer.WriteString("\n")
	}
	for _, field := range missing {
		if _, err := writer.WriteString(field + "\n"); err != nil {
			return 0, fmt.Errorf("failed to write column: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return 0, err
	}
	return len(missing), nil
}
