package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Data backends understood by the record source factory.
const (
	BackendAirtable = "airtable"
	BackendSheets   = "sheets"
	BackendMemory   = "memory"
)

type Config struct {
	// Data source
	DataBackend      string
	AirtablePAT      string
	AirtableBaseID   string
	AirtableAPIURL   string
	AirtableMaxPages int
	ProductionTable  string
	DevelopmentTable string

	// Google Sheets
	GoogleSpreadsheetID string

	// Memory fixtures
	DataDir string

	// Output
	OutputPath  string
	TemplateDir string

	// Build archive (disabled when empty)
	ArchiveDBPath string

	// Build notification (disabled when AMQPURL is empty)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		DataBackend:      getEnv("DATA_BACKEND", BackendAirtable),
		AirtablePAT:      strings.TrimSpace(os.Getenv("AIRTABLE_PAT")),
		AirtableBaseID:   strings.TrimSpace(os.Getenv("AIRTABLE_BASE_ID")),
		AirtableAPIURL:   getEnv("AIRTABLE_API_URL", "https://api.airtable.com/v0"),
		AirtableMaxPages: getEnvInt("AIRTABLE_MAX_PAGES", 50),
		ProductionTable:  getEnv("PRODUCTION_TABLE", "Production"),
		DevelopmentTable: getEnv("DEVELOPMENT_TABLE", "Development"),

		GoogleSpreadsheetID: strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),

		DataDir: getEnv("DATA_DIR", "data"),

		OutputPath:  getEnv("OUTPUT_PATH", "index.html"),
		TemplateDir: getEnv("TEMPLATE_DIR", ""),

		ArchiveDBPath: getEnv("ARCHIVE_DB_PATH", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "kpiboard"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "site_built"),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	return cfg
}

// HasAirtableCredentials reports whether a personal access token is configured.
func (c *Config) HasAirtableCredentials() bool {
	return c.AirtablePAT != ""
}

// Validate validates the configuration and returns an error if invalid.
//
// A missing AIRTABLE_PAT is not an error: the build falls back to an empty
// summary in that case. A missing AIRTABLE_BASE_ID is not an error either;
// each table fetch fails and contributes nothing.
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{BackendAirtable, BackendSheets, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendAirtable {
		if parsedURL, err := url.Parse(c.AirtableAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Airtable API URL '%s': %v", c.AirtableAPIURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid Airtable API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.AirtableMaxPages < 1 {
			errors = append(errors, fmt.Sprintf("invalid Airtable max pages %d: must be at least 1", c.AirtableMaxPages))
		}
	}

	if c.DataBackend == BackendSheets && c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
	}

	if c.DataBackend == BackendMemory && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using memory backend")
	}

	if strings.TrimSpace(c.ProductionTable) == "" {
		errors = append(errors, "production table name cannot be empty")
	}
	if strings.TrimSpace(c.DevelopmentTable) == "" {
		errors = append(errors, "development table name cannot be empty")
	}

	if strings.TrimSpace(c.OutputPath) == "" {
		errors = append(errors, "output path cannot be empty")
	}

	if c.TemplateDir != "" {
		if info, err := os.Stat(c.TemplateDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("template directory does not exist: %s", c.TemplateDir))
		}
	}

	if c.ArchiveDBPath != "" {
		dir := filepath.Dir(c.ArchiveDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create archive database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}
