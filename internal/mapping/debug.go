package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"slotBook/internal/logger"
)

// DebugDir receives one text dump per AI request
var DebugDir = filepath.Join("logs", "ai_debug")

func saveAIMappingsToFile(headers, fields []string, aiMappings []AIMapping, err error) {
	if mkErr := os.MkdirAll(DebugDir, 0755); mkErr != nil {
		logger.Warn("Cannot create AI debug directory", "dir", DebugDir, "error", mkErr)
		return
	}

	now := time.Now()
	debugFile := filepath.Join(DebugDir, fmt.Sprintf("ai_mapping_%s.txt", now.Format("2006-01-02_15-04-05")))

	file, fileErr := os.Create(debugFile)
	if fileErr != nil {
		logger.Warn("Cannot write AI debug file", "file", debugFile, "error", fileErr)
		return
	}
	defer file.Close()

	fmt.Fprintf(file, "AI Mapping Debug - %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "===========================================\n\n")

	fmt.Fprintf(file, "HEADERS SENT TO AI (%d):\n", len(headers))
	for i, h := range headers {
		fmt.Fprintf(file, "%d. %s\n", i+1, h)
	}

	fmt.Fprintf(file, "\nFIELDS (%d):\n", len(fields))
	for i, f := range fields {
		fmt.Fprintf(file, "%d. %s\n", i+1, f)
	}

	fmt.Fprintf(file, "\nAI RESPONSE:\n")
	if err != nil {
		fmt.Fprintf(file, "ERROR: %v\n", err)
	} else if len(aiMappings) == 0 {
		fmt.Fprintf(file, "No mappings generated (all were NO_MATCH or low confidence)\n")
	} else {
		for i, m := range aiMappings {
			fmt.Fprintf(file, "%d. '%s' → '%s' (%.2f confidence)\n", i+1, m.ScannedColumn, m.TargetColumn, m.Confidence)
		}
	}
	fmt.Fprintf(file, "\n===========================================\n")

	logger.Debug("Saved AI debug dump", "file", debugFile)
}
