package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kpiboard/internal/log"
	"kpiboard/internal/sources"
	"kpiboard/internal/sources/airtable"
	gsheet "kpiboard/internal/sources/google"
	"kpiboard/internal/sources/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	base   *slog.Logger
	logger *slog.Logger
}

// NewFactory creates a new source factory. Each source it creates logs with
// its own component name.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		base:   logger,
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

func (f *DefaultFactory) sourceLogger(component string) *slog.Logger {
	return f.base.With(log.FieldComponent, component)
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (sources.RecordSource, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case AirtableBackend:
		return f.createAirtableSource(config)
	case SheetsBackend:
		return f.createSheetsSource(ctx, config)
	case MemoryBackend:
		return f.createMemorySource(config), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAirtableSource(config Config) (sources.RecordSource, error) {
	cli, err := airtable.New(airtable.Config{
		APIURL:     config.AirtableAPIURL,
		BaseID:     config.AirtableBaseID,
		Token:      config.AirtablePAT,
		MaxPages:   config.AirtableMaxPages,
		HTTPClient: config.HTTPClient,
		Logger:     f.sourceLogger(log.ComponentAirtable),
	})
	if err != nil {
		// ErrMissingCredentials must stay detectable by the caller.
		return nil, fmt.Errorf("initialize Airtable client: %w", err)
	}

	f.logger.Info("Initialized Airtable backend", "base_id", config.AirtableBaseID)
	return cli, nil
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (sources.RecordSource, error) {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, f.sourceLogger(log.ComponentSheets))
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}

func (f *DefaultFactory) createMemorySource(config Config) sources.RecordSource {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return memory.NewFromFiles(dataDir)
}
