package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kpiboard/internal/backend"
	"kpiboard/internal/config"
	"kpiboard/internal/log"
	"kpiboard/internal/render"
	"kpiboard/internal/services"
	"kpiboard/internal/storage"
)

// ErrBuildFailed is returned by the build command after the failure was logged.
var ErrBuildFailed = errors.New("site build failed")

// RootCmd returns the kpiboard command. Running it without a subcommand builds the site.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kpiboard",
		Short: "Build the static KPI dashboard",
		Long: `kpiboard fetches the Production and Development tables, aggregates them
by calendar month and renders the dashboard page.

Configuration is read from the environment (and a .env file when present).
DATA_BACKEND selects the record source: ` + strings.Join(backend.GetBackendTypeStrings(), ", ") + `.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBuild,
	}

	root.AddCommand(BuildCmd())
	root.AddCommand(LatestCmd())
	return root
}

// BuildCmd returns the build command
func BuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Fetch, aggregate and render the dashboard page",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
}

// LatestCmd returns the command printing the most recent archived build
func LatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recently archived build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.ArchiveDBPath == "" {
				return fmt.Errorf("ARCHIVE_DB_PATH is not set")
			}
			repo, err := storage.NewSQLiteRepository(cfg.ArchiveDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			build, err := repo.LatestBuild(cmd.Context())
			if err != nil {
				return err
			}
			count, err := repo.CountBuilds(cmd.Context())
			if err != nil {
				return err
			}
			version, dirty, err := storage.SchemaVersion(cfg.ArchiveDBPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := PrintBuild(out, build); err != nil {
				return err
			}
			return PrintArchiveStats(out, count, version, dirty)
		},
	}
}

func runBuild(cmd *cobra.Command, _ []string) error {
	logger := SetupLogger(config.Load().LogLevel)
	if code := Build(cmd.Context(), logger); code != 0 {
		return ErrBuildFailed
	}
	return nil
}

// Build runs one site build and returns the process exit code.
func Build(ctx context.Context, logger *log.Logger) int {
	logger.Info("Building static site")

	cfg, err := LoadAndValidateConfig(logger)
	if err != nil {
		return 1
	}

	src, err := InitSource(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize data source",
			log.NewFields().WithOperation(log.OpStartup).WithErrorType(log.ErrorTypeConfiguration).WithError(err).ToSlice()...)
		return 1
	}

	renderer, err := render.New(cfg.TemplateDir)
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Error("Failed to load templates",
			log.NewFields().WithOperation(log.OpStartup).WithErrorType(log.ErrorTypeTemplate).WithError(err).ToSlice()...)
		return 1
	}

	opts, cleanup := supportOptions(logger, cfg)
	defer cleanup()

	builder := services.NewSiteBuilder(src, renderer, services.SiteBuilderConfig{
		ProductionTable:  cfg.ProductionTable,
		DevelopmentTable: cfg.DevelopmentTable,
		OutputPath:       cfg.OutputPath,
	}, logger, opts...)

	if _, err := builder.Run(ctx); err != nil {
		return 1
	}
	return 0
}

// supportOptions wires the optional archive and notifier.
func supportOptions(logger *log.Logger, cfg *config.Config) ([]services.Option, func()) {
	var (
		opts    []services.Option
		closers []func() error
	)
	if repo := InitArchive(logger, cfg.ArchiveDBPath); repo != nil {
		opts = append(opts, services.WithArchiver(repo))
		closers = append(closers, repo.Close)
	}
	if client := InitNotifier(logger, cfg); client != nil {
		opts = append(opts, services.WithNotifier(client))
		closers = append(closers, client.Close)
	}
	return opts, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Close failed", log.FieldError, err)
			}
		}
	}
}

// PrintBuild writes an archived build as a table.
func PrintBuild(w io.Writer, b storage.ArchivedBuild) error {
	bold := color.New(color.Bold)
	current := color.New(color.FgGreen)

	s := b.Summary
	if _, err := fmt.Fprintf(w, "Build #%d  generated %s\n\n", b.ID, s.LastUpdated()); err != nil {
		return err
	}
	bold.Fprintf(w, "%-16s %15s %15s %16s %17s\n", "Month", "Production Loss", "Sold Components", "Development Loss", "Development Gates")

	if len(s.Months) == 0 {
		fmt.Fprintln(w, color.New(color.FgYellow).Sprint("(no data)"))
	}
	for _, m := range s.Months {
		line := fmt.Sprintf("%-16s %15s %15s %16s %17s",
			m.Month,
			mustFormat(m.ProductionLoss),
			mustFormat(m.SoldComponents),
			mustFormat(m.DevelopmentLoss),
			mustFormat(m.DevelopmentGates))
		if isCurrent(m.Month, s.CurrentMonthName) {
			line = current.Sprint(line)
		}
		fmt.Fprintln(w, line)
	}

	_, err := bold.Fprintf(w, "%-16s %15s %15s %16s %17s\n", "Total",
		mustFormat(s.Total.ProductionLoss),
		mustFormat(s.Total.SoldComponents),
		mustFormat(s.Total.DevelopmentLoss),
		mustFormat(s.Total.DevelopmentGates))
	return err
}

// PrintArchiveStats writes the archive size and schema version.
func PrintArchiveStats(w io.Writer, builds int64, version uint, dirty bool) error {
	state := ""
	if dirty {
		state = color.New(color.FgRed).Sprint(" (dirty)")
	}
	_, err := fmt.Fprintf(w, "\n%s builds archived, schema version %d%s\n", mustFormat(builds), version, state)
	return err
}

func isCurrent(label, currentMonth string) bool {
	return currentMonth != "" && strings.HasPrefix(label, currentMonth)
}

// mustFormat formats an int64, which FormatNumber always accepts.
func mustFormat(n int64) string {
	s, _ := render.FormatNumber(n)
	return s
}
