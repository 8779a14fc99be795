package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LarkConfig holds Lark API credentials
type LarkConfig struct {
	AppID      string        `mapstructure:"app_id"`
	AppSecret  string        `mapstructure:"app_secret"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// SheetsConfig selects the spreadsheet backend and maps each department
// to its workbook
type SheetsConfig struct {
	Backend     string                      `mapstructure:"backend"` // lark or excel
	ExcelDir    string                      `mapstructure:"excel_dir"`
	Departments map[string]DepartmentSheets `mapstructure:"departments"`
}

// DepartmentSheets holds the per-department workbook wiring
type DepartmentSheets struct {
	SpreadsheetToken string            `mapstructure:"spreadsheet_token"`
	SummaryMode      string            `mapstructure:"summary_mode"` // inline or patch
	Sheets           map[string]string `mapstructure:"sheets"`       // destination -> sheet ID
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/nippo.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Lark defaults
	viper.SetDefault("lark.api_timeout", 30*time.Second)

	// Sheets defaults
	viper.SetDefault("sheets.backend", "lark")
	viper.SetDefault("sheets.excel_dir", "data/sheets")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("lark.app_id", "LARK_APP_ID")
	viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Sheets.Backend {
	case "lark":
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
	case "excel":
		if c.Sheets.ExcelDir == "" {
			return fmt.Errorf("sheets.excel_dir is required")
		}
	default:
		return fmt.Errorf("sheets.backend must be lark or excel, got %q", c.Sheets.Backend)
	}

	if len(c.Sheets.Departments) == 0 {
		return fmt.Errorf("sheets.departments must configure at least one department")
	}
	for code, dept := range c.Sheets.Departments {
		if c.Sheets.Backend == "lark" && dept.SpreadsheetToken == "" {
			return fmt.Errorf("sheets.departments.%s.spreadsheet_token is required", code)
		}
		switch dept.SummaryMode {
		case "inline", "patch":
		default:
			return fmt.Errorf("sheets.departments.%s.summary_mode must be inline or patch", code)
		}
		if _, ok := dept.Sheets["main"]; !ok {
			return fmt.Errorf("sheets.departments.%s.sheets.main is required", code)
		}
	}

	return nil
}
