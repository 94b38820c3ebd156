package log

import "kpiboard/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldBackend     = "backend"
	FieldTable       = "table"
	FieldRecords     = "records"
	FieldOutcome     = "outcome"
	FieldStatusCode  = "status_code"
	FieldMonth       = "month"
	FieldMonths      = "months"
	FieldOutputPath  = "output_path"
	FieldBuildID     = "build_id"
	FieldDuration    = "duration_ms"
	FieldGeneratedAt = "generated_at"

	FieldProductionLoss   = "production_loss"
	FieldSoldComponents   = "sold_components"
	FieldDevelopmentLoss  = "development_loss"
	FieldDevelopmentGates = "development_gates"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBuild    = "build"
	ComponentAirtable = "airtable"
	ComponentSheets   = "sheets"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentTemplate = "template"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpFetch     = "fetch"
	OpAggregate = "aggregate"
	OpRender    = "render"
	OpArchive   = "archive"
	OpNotify    = "notify"
	OpValidate  = "validate"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeTemplate      = "template_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds error type field
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTable adds the table name and how many records it produced
func (f LogFields) WithTable(table string, records int) LogFields {
	f[FieldTable] = table
	f[FieldRecords] = records
	return f
}

// WithTotals adds the four KPI counters
func (f LogFields) WithTotals(t core.Totals) LogFields {
	f[FieldProductionLoss] = t.ProductionLoss
	f[FieldSoldComponents] = t.SoldComponents
	f[FieldDevelopmentLoss] = t.DevelopmentLoss
	f[FieldDevelopmentGates] = t.DevelopmentGates
	return f
}

// WithBucket adds the month label and counters of one bucket
func (f LogFields) WithBucket(b core.MonthlyBucket) LogFields {
	f[FieldMonth] = b.Month
	return f.WithTotals(core.Totals{
		ProductionLoss:   b.ProductionLoss,
		SoldComponents:   b.SoldComponents,
		DevelopmentLoss:  b.DevelopmentLoss,
		DevelopmentGates: b.DevelopmentGates,
	})
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
