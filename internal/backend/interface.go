package backend

import (
	"context"
	"net/http"

	"kpiboard/internal/sources"
)

// Factory creates record sources based on configuration
type Factory interface {
	// CreateSource returns the configured source. For the airtable backend it
	// returns sources.ErrMissingCredentials when no token is set.
	CreateSource(ctx context.Context, config Config) (sources.RecordSource, error)
}

// Config holds configuration for source creation
type Config struct {
	// Backend type
	Type BackendType

	// Airtable specific
	AirtableAPIURL   string
	AirtableBaseID   string
	AirtablePAT      string
	AirtableMaxPages int
	HTTPClient       *http.Client

	// Google Sheets specific
	GoogleSpreadsheetID string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	AirtableBackend BackendType = "airtable"
	SheetsBackend   BackendType = "sheets"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case AirtableBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
