package mapping

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"slotBook/internal/logger"
)

const noMatch = "NO_MATCH"

// AIMapping represents an AI-suggested mapping with confidence
type AIMapping struct {
	ScannedColumn string  `json:"scanned_column"`
	TargetColumn  string  `json:"target_column"`
	Confidence    float64 `json:"confidence"`
}

// AIMapper asks Gemini which workbook headers correspond to which fields
type AIMapper struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	minConfidence float64
	timeout       time.Duration
}

// NewAIMapper creates a new AI mapper instance
func NewAIMapper(ctx context.Context, apiKey, modelName string, minConfidence float64, timeout time.Duration) (*AIMapper, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		logger.Error("Failed to create Gemini client", "error", err)
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)

	logger.Info("AI mapper initialized", "model", modelName, "min_confidence", minConfidence)
	return &AIMapper{
		client:        client,
		model:         model,
		minConfidence: minConfidence,
		timeout:       timeout,
	}, nil
}

// Close cleans up the AI mapper resources
func (ai *AIMapper) Close() error {
	if ai.client != nil {
		return ai.client.Close()
	}
	return nil
}

// GenerateColumnMappings suggests a field for each header. Only suggestions
// at or above the mapper's confidence threshold are returned
func (ai *AIMapper) GenerateColumnMappings(ctx context.Context, headers, fields []string) ([]AIMapping, error) {
	if len(headers) == 0 || len(fields) == 0 {
		return nil, fmt.Errorf("both headers and target fields must be provided")
	}

	prompt := buildMappingPrompt(headers, fields)
	logger.Debug("AI prompt", "content", prompt)

	ctx, cancel := context.WithTimeout(ctx, ai.timeout)
	defer cancel()

	start := time.Now()
	logger.Info("Sending request to Gemini API", "headers", len(headers), "timeout", ai.timeout)
	resp, err := ai.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		logger.Error("Gemini API request failed", "error", err, "duration", time.Since(start))
		saveAIMappingsToFile(headers, fields, nil, err)
		return nil, fmt.Errorf("failed to generate AI response: %w", err)
	}
	logger.Info("Received response from Gemini API", "duration", time.Since(start))

	text, err := responseText(resp)
	if err != nil {
		saveAIMappingsToFile(headers, fields, nil, err)
		return nil, err
	}
	logger.Debug("AI response", "content", text)

	mappings := parseMappingResponse(text, fields, ai.minConfidence)
	saveAIMappingsToFile(headers, fields, mappings, nil)
	return mappings, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response generated from AI")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		} else {
			logger.Warn("Non-text part in response", "type", fmt.Sprintf("%T", part))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no response generated from AI")
	}
	return b.String(), nil
}

// buildMappingPrompt creates a prompt for the AI to map headers onto fields
func buildMappingPrompt(headers, fields []string) string {
	var b strings.Builder
	b.WriteString(`You are helping a logistics team read shipment spreadsheets.
The "Lead Times" sheet lists carrier or fulfilment-centre codes with a base lead time in days and a traffic consideration in days.
The "Holiday Calendar" sheet has a date column and one column per carrier code.
The export sheet lists consignments with a ship-to location such as "AMZ1 - Leeds".

TASK: Map each workbook header to the field it holds, or "NO_MATCH" if it holds none of them.

WORKBOOK HEADERS:
`)
	for _, h := range headers {
		fmt.Fprintf(&b, "- %s\n", h)
	}

	b.WriteString("\nFIELDS:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	b.WriteString(`
INSTRUCTIONS:
1. Only suggest mappings you are confident about (>80% certainty)
2. Headers may contain typos or company-specific names
3. Carrier codes used as holiday calendar columns are NO_MATCH
4. Map each header to AT MOST ONE field

OUTPUT FORMAT (one line per header, nothing else):
Header|Field|Confidence

EXAMPLES:
Amazon Code|Carrier Code|0.95
Traffice consideration|Traffic Consideration|0.95
AMZ1|NO_MATCH|0.00
`)
	return b.String()
}

// parseMappingResponse parses Header|Field|Confidence lines. Lines naming an
// unknown field, NO_MATCH or a confidence below minConfidence are dropped
func parseMappingResponse(response string, fields []string, minConfidence float64) []AIMapping {
	known := make(map[string]string, len(fields))
	for _, f := range fields {
		known[strings.ToLower(f)] = f
	}

	var mappings []AIMapping
	seen := make(map[string]bool)
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`")
		if line == "" || strings.HasPrefix(line, "Header|") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			logger.Debug("Skipping malformed AI line", "content", line)
			continue
		}

		header := strings.TrimSpace(parts[0])
		field, ok := known[strings.ToLower(strings.TrimSpace(parts[1]))]
		if !ok || header == "" || seen[header] {
			continue
		}

		var confidence float64
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[2]), "%f", &confidence); err != nil || confidence < minConfidence {
			continue
		}

		seen[header] = true
		mappings = append(mappings, AIMapping{ScannedColumn: header, TargetColumn: field, Confidence: confidence})
	}
	return mappings
}

// GetGeminiAPIKey gets the API key from environment variable
func GetGeminiAPIKey() string {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY environment variable not set")
	}
	return apiKey
}
