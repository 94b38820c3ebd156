package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kpiboard/internal/core"
	"kpiboard/internal/log"
	"kpiboard/internal/sources"
)

// PageRenderer writes the rendered summary to path.
type PageRenderer interface {
	RenderFile(s core.Summary, path string) error
}

// Archiver stores a built summary.
type Archiver interface {
	SaveSummary(ctx context.Context, s core.Summary) (int64, error)
}

// Notifier announces a finished build.
type Notifier interface {
	PublishSiteBuilt(ctx context.Context, s core.Summary, outputPath string) error
}

// SiteBuilderConfig names the tables to read and where to write the page.
type SiteBuilderConfig struct {
	ProductionTable  string
	DevelopmentTable string
	OutputPath       string
}

// SiteBuilder runs one fetch, aggregate and render pass.
type SiteBuilder struct {
	source   sources.RecordSource
	renderer PageRenderer
	archive  Archiver
	notifier Notifier
	config   SiteBuilderConfig
	logger   *log.Logger
	now      func() time.Time
}

// Option customizes a SiteBuilder.
type Option func(*SiteBuilder)

// WithArchiver stores every rendered summary.
func WithArchiver(a Archiver) Option {
	return func(b *SiteBuilder) { b.archive = a }
}

// WithNotifier publishes a message after every render.
func WithNotifier(n Notifier) Option {
	return func(b *SiteBuilder) { b.notifier = n }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(b *SiteBuilder) { b.now = now }
}

// NewSiteBuilder creates a builder. A nil source means no credentials are
// configured and every build produces the empty summary.
func NewSiteBuilder(source sources.RecordSource, renderer PageRenderer, config SiteBuilderConfig, logger *log.Logger, opts ...Option) *SiteBuilder {
	if logger == nil {
		logger = log.Discard()
	}
	b := &SiteBuilder{
		source:   source,
		renderer: renderer,
		config:   config,
		logger:   logger.WithComponent(log.ComponentBuild),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run fetches both tables one after the other, aggregates them and renders
// the page. Only a render failure is returned as an error; archive and
// notification failures are logged.
func (b *SiteBuilder) Run(ctx context.Context) (core.Summary, error) {
	start := time.Now()

	production := b.fetch(ctx, b.config.ProductionTable)
	development := b.fetch(ctx, b.config.DevelopmentTable)

	summary := b.summarize(production, development)

	if err := b.renderer.RenderFile(summary, b.config.OutputPath); err != nil {
		b.logger.ErrorContext(ctx, "Failed to build site",
			log.NewFields().
				WithOperation(log.OpRender).
				WithErrorType(log.ErrorTypeTemplate).
				WithError(err).
				ToSlice()...)
		return summary, fmt.Errorf("render site: %w", err)
	}

	b.logger.InfoContext(ctx, "Static site built",
		log.FieldOutputPath, b.config.OutputPath,
		log.FieldMonths, len(summary.Months),
		log.FieldGeneratedAt, summary.LastUpdated())
	b.logger.InfoContext(ctx, "Current month",
		append([]any{log.FieldMonth, summary.CurrentMonthName},
			log.NewFields().WithTotals(summary.CurrentMonth).ToSlice()...)...)

	b.archiveSummary(ctx, summary)
	b.notify(ctx, summary)

	b.logger.DebugContext(ctx, "Build finished",
		log.FieldDuration, time.Since(start).Milliseconds())
	return summary, nil
}

func (b *SiteBuilder) fetch(ctx context.Context, table string) FetchOutcome {
	out := fetchTable(ctx, b.source, table)
	switch out.Status {
	case Authenticated:
		b.logger.InfoContext(ctx, "Fetched records",
			log.NewFields().WithOperation(log.OpFetch).WithTable(table, len(out.Records)).ToSlice()...)
	case Unauthenticated:
		b.logger.WarnContext(ctx, "No credentials configured, skipping fetch",
			log.FieldTable, table,
			log.FieldOutcome, out.Status.String(),
			log.FieldErrorType, log.ErrorTypeAuth)
	case TransportError:
		fields := log.NewFields().
			WithOperation(log.OpFetch).
			WithErrorType(log.ErrorTypeNetwork).
			WithError(out.Err)
		fields[log.FieldTable] = table
		var statusErr *sources.StatusError
		if errors.As(out.Err, &statusErr) {
			fields[log.FieldStatusCode] = statusErr.StatusCode
		}
		b.logger.ErrorContext(ctx, "Failed to fetch records", fields.ToSlice()...)
	}
	return out
}

func (b *SiteBuilder) summarize(production, development FetchOutcome) core.Summary {
	now := b.now()
	if production.Status == Unauthenticated || development.Status == Unauthenticated {
		b.logger.Warn("Using empty data for local development")
		return core.EmptySummary(now)
	}

	s := core.Aggregate(production.Records, development.Records, now)
	for _, bucket := range s.Months {
		b.logger.Debug("Month aggregated", log.NewFields().WithBucket(bucket).ToSlice()...)
	}
	b.logger.Info("Summary",
		append([]any{log.FieldOperation, log.OpAggregate},
			log.NewFields().WithTotals(s.Total).ToSlice()...)...)
	return s
}

func (b *SiteBuilder) archiveSummary(ctx context.Context, s core.Summary) {
	if b.archive == nil {
		return
	}
	id, err := b.archive.SaveSummary(ctx, s)
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to archive build",
			log.NewFields().
				WithOperation(log.OpArchive).
				WithErrorType(log.ErrorTypeDatabase).
				WithError(err).
				ToSlice()...)
		return
	}
	b.logger.DebugContext(ctx, "Build archived", log.FieldBuildID, id)
}

func (b *SiteBuilder) notify(ctx context.Context, s core.Summary) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.PublishSiteBuilt(ctx, s, b.config.OutputPath); err != nil {
		b.logger.WarnContext(ctx, "Failed to publish build notification",
			log.NewFields().
				WithOperation(log.OpNotify).
				WithErrorType(log.ErrorTypeNetwork).
				WithError(err).
				ToSlice()...)
	}
}
