package backend

import (
	"fmt"
	"strings"

	"kpiboard/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (valid: %s)",
			appConfig.DataBackend, strings.Join(GetBackendTypeStrings(), ", "))
	}

	return Config{
		Type: backendType,

		AirtableAPIURL:   appConfig.AirtableAPIURL,
		AirtableBaseID:   appConfig.AirtableBaseID,
		AirtablePAT:      appConfig.AirtablePAT,
		AirtableMaxPages: appConfig.AirtableMaxPages,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,

		DataDirectory: appConfig.DataDir,
	}, nil
}

// Validate validates the backend configuration.
// A missing Airtable token is valid: it selects the empty-summary fallback.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case AirtableBackend:
		// A missing base ID surfaces as a fetch failure per table.
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		// DataDirectory will default to "data" if empty
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{AirtableBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}
