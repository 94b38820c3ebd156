// Package cli holds the start-up steps of the kpiboard command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kpiboard/internal/amqp"
	"kpiboard/internal/backend"
	"kpiboard/internal/config"
	"kpiboard/internal/log"
	"kpiboard/internal/sources"
	"kpiboard/internal/storage"
)

// SetupLogger builds the process logger from a LOG_LEVEL value and installs
// it as the slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment and validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.NewFields().WithOperation(log.OpValidate).WithErrorType(log.ErrorTypeConfiguration).WithError(err).ToSlice()...)
		return nil, err
	}
	return cfg, nil
}

// InitSource creates the configured record source. A nil source with a nil
// error means no credentials are configured.
func InitSource(ctx context.Context, logger *log.Logger, cfg *config.Config) (sources.RecordSource, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	src, err := backend.NewFactory(logger.Logger).CreateSource(ctx, bcfg)
	if errors.Is(err, sources.ErrMissingCredentials) {
		logger.Warn("No data source credentials configured, using empty data",
			log.FieldBackend, bcfg.Type.String())
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s source: %w", bcfg.Type, err)
	}
	return src, nil
}

// InitArchive opens the build archive. Failures are logged and yield nil so
// the build can go ahead without it.
func InitArchive(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	if dbPath == "" {
		return nil
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.WithComponent(log.ComponentStorage).Warn("Failed to open build archive",
			log.NewFields().WithErrorType(log.ErrorTypeDatabase).WithError(err).ToSlice()...)
		return nil
	}
	logger.Info("Build archive ready", "path", dbPath)
	return repo
}

// InitNotifier connects to the broker. Failures are logged and yield nil.
func InitNotifier(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		logger.WithComponent(log.ComponentAMQP).Warn("Failed to connect to AMQP broker",
			log.NewFields().WithErrorType(log.ErrorTypeNetwork).WithError(err).ToSlice()...)
		return nil
	}
	logger.Info("AMQP notifications enabled",
		"exchange", cfg.AMQPExchange,
		"routing_key", cfg.AMQPRoutingKey)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
