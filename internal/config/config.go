package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"slotBook/internal/excel"
	"slotBook/internal/logger"
)

// EnvPrefix prefixes environment overrides, e.g. SLOTBOOK_ASSIGN_STRICT=true
const EnvPrefix = "SLOTBOOK"

type Config struct {
	Scan     ScanConfig     `toml:"scan" envconfig:"SCAN"`
	UI       UIConfig       `toml:"ui" envconfig:"UI"`
	Workbook WorkbookConfig `toml:"workbook" envconfig:"WORKBOOK"`
	Schedule ScheduleConfig `toml:"schedule" envconfig:"SCHEDULE"`
	Assign   AssignConfig   `toml:"assign" envconfig:"ASSIGN"`
	Headers  HeadersConfig  `toml:"headers" ignored:"true"`
	AI       AIConfig       `toml:"ai" envconfig:"AI"`
	Log      LogConfig      `toml:"log" envconfig:"LOG"`
}

type ScanConfig struct {
	InputDirectory  string `toml:"input_directory" envconfig:"INPUT_DIRECTORY" validate:"required"`
	OutputDirectory string `toml:"output_directory" envconfig:"OUTPUT_DIRECTORY" validate:"required"`
}

type UIConfig struct {
	ColumnsPerRow int `toml:"columns_per_row" envconfig:"COLUMNS_PER_ROW" validate:"min=1"`
	RowsPerPage   int `toml:"rows_per_page" envconfig:"ROWS_PER_PAGE" validate:"min=1"`
}

type WorkbookConfig struct {
	LeadTimesSheet string `toml:"lead_times_sheet" envconfig:"LEAD_TIMES_SHEET" validate:"required"`
	HolidaySheet   string `toml:"holiday_sheet" envconfig:"HOLIDAY_SHEET" validate:"required"`
	ExportSheet    string `toml:"export_sheet" envconfig:"EXPORT_SHEET" validate:"required"`
	DateFormat     string `toml:"date_format" envconfig:"DATE_FORMAT" validate:"required"`
}

type ScheduleConfig struct {
	AfternoonCutoffHour int     `toml:"afternoon_cutoff_hour" envconfig:"AFTERNOON_CUTOFF_HOUR" validate:"min=0,max=24"`
	AfternoonBumpDays   float64 `toml:"afternoon_bump_days" envconfig:"AFTERNOON_BUMP_DAYS" validate:"gte=0"`
	Rounding            string  `toml:"rounding" envconfig:"ROUNDING" validate:"oneof=half_even half_up"`
	IterateHolidays     bool    `toml:"iterate_holidays" envconfig:"ITERATE_HOLIDAYS"`
	MaxHolidayPasses    int     `toml:"max_holiday_passes" envconfig:"MAX_HOLIDAY_PASSES" validate:"min=1"`
	RefreshLeadTimeDate bool    `toml:"refresh_lead_time_date" envconfig:"REFRESH_LEAD_TIME_DATE"`
}

type AssignConfig struct {
	Strict bool `toml:"strict" envconfig:"STRICT"`
}

// HeadersConfig lists extra header spellings per canonical field
type HeadersConfig struct {
	Aliases map[string][]string `toml:"aliases"`
}

type AIConfig struct {
	Model         string        `toml:"model" envconfig:"MODEL" validate:"required"`
	MinConfidence float64       `toml:"min_confidence" envconfig:"MIN_CONFIDENCE" validate:"gte=0,lte=1"`
	Timeout       time.Duration `toml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

type LogConfig struct {
	Directory string `toml:"directory" envconfig:"DIRECTORY" validate:"required"`
	Level     string `toml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
}

// Default returns the configuration written on first use
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			InputDirectory:  "data/input",
			OutputDirectory: "data/output",
		},
		UI: UIConfig{
			ColumnsPerRow: 4,
			RowsPerPage:   3,
		},
		Workbook: WorkbookConfig{
			LeadTimesSheet: "Lead Times",
			HolidaySheet:   "Holiday Calendar",
			ExportSheet:    "Sheet1",
			DateFormat:     "yyyy-mm-dd",
		},
		Schedule: ScheduleConfig{
			AfternoonCutoffHour: 12,
			AfternoonBumpDays:   0.5,
			Rounding:            "half_even",
			IterateHolidays:     false,
			MaxHolidayPasses:    10,
			RefreshLeadTimeDate: true,
		},
		Headers: HeadersConfig{
			Aliases: excel.DefaultAliases(),
		},
		AI: AIConfig{
			Model:         "gemini-2.0-flash-exp",
			MinConfidence: 0.8,
			Timeout:       60 * time.Second,
		},
		Log: LogConfig{
			Directory: "logs",
			Level:     "info",
		},
	}
}

// LoadConfig loads configuration from the specified config file path,
// creating it with defaults if it does not exist. Environment variables
// override file values and the result is validated
func LoadConfig(configPath string) (*Config, error) {
	var config *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		config = Default()
		if err := SaveConfig(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		logger.Info("Created default config file", "path", configPath)
	} else {
		config = Default()
		// Keys present in the file replace defaults; aliases are replaced
		// wholesale when the file has a [headers.aliases] table.
		config.Headers.Aliases = nil
		meta, err := toml.DecodeFile(configPath, config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if !meta.IsDefined("headers", "aliases") {
			config.Headers.Aliases = Default().Headers.Aliases
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			logger.Warn("Unknown config keys ignored", "path", configPath, "keys", fmt.Sprint(undecoded))
		}
		logger.Info("Loaded configuration", "path", configPath)
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}
