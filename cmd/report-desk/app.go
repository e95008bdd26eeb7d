package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"game-reports/report-desk/internal/config"
	"game-reports/report-desk/internal/database"
	"game-reports/report-desk/internal/logging"
	"game-reports/report-desk/internal/notifications"
	"game-reports/report-desk/internal/reports"
	"game-reports/report-desk/internal/reports/export"
	"game-reports/report-desk/internal/reports/scheduler"
	"game-reports/report-desk/pkg/storage"
)

const tuiLogFile = "report-desk.log"

// app holds everything a command needs
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	gateway  *database.Gateway
	schema   reports.Schema
	service  *reports.Service
	exporter *export.Exporter
}

type appOptions struct {
	// logToFile keeps log lines off a terminal the UI owns
	logToFile bool
	// requireDB turns a failed connection into an error instead of a warning
	requireDB bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.logToFile && cfg.Logging.OutputPath == "" {
		cfg.Logging.OutputPath = tuiLogFile
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	schema, err := reports.SchemaFromConfig(cfg.Report)
	if err != nil {
		return nil, err
	}

	gateway, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		if opts.requireDB {
			return nil, err
		}
		logger.Warn("Starting without a database connection", zap.Error(err))
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		gateway: gateway,
		schema:  schema,
		service: reports.NewService(gateway, schema, logger),
	}
	a.exporter = export.NewExporter(a.exportOptions(), a.uploader(ctx), logger)
	return a, nil
}

func (a *app) exportOptions() export.Options {
	opts := export.DefaultOptions()
	if a.cfg.Export.PageSize != "" {
		opts.PDF.PageSize = a.cfg.Export.PageSize
	}
	if a.cfg.Export.Orientation != "" {
		opts.PDF.Orientation = a.cfg.Export.Orientation
	}
	return opts
}

// uploader is nil unless an S3 bucket is configured
func (a *app) uploader(ctx context.Context) storage.Uploader {
	if a.cfg.Export.S3Bucket == "" {
		return nil
	}
	u, err := storage.NewS3Uploader(ctx, a.cfg.Export.S3Bucket, a.cfg.Export.S3Region, a.cfg.Export.S3Prefix)
	if err != nil {
		a.logger.Warn("S3 upload disabled", zap.Error(err))
		return nil
	}
	return u
}

func (a *app) engine(notifier notifications.Notifier) *reports.Engine {
	return reports.NewEngine(a.service, notifier, a.logger)
}

// headless returns a controller bound to an in-memory presenter
func (a *app) headless(notifier notifications.Notifier) (*reports.Controller, *reports.SnapshotPresenter) {
	presenter := reports.NewSnapshotPresenter()
	return reports.NewController(a.engine(notifier), a.service, presenter, notifier, a.logger), presenter
}

func (a *app) snapshotExecutor(engine *reports.Engine) (*scheduler.Executor, error) {
	cfg := scheduler.DefaultExecutorConfig()
	cfg.OutputDir = a.cfg.Export.OutputDir
	cfg.Criteria = reports.Criteria{Category: a.schema.AllCategory}

	formats := make([]export.Format, 0, len(a.cfg.Export.Formats))
	for _, name := range a.cfg.Export.Formats {
		f, err := export.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	cfg.Formats = formats

	return scheduler.NewExecutor(engine, a.exporter, cfg, a.logger), nil
}

func (a *app) close() {
	if err := a.gateway.Close(); err != nil {
		a.logger.Warn("Failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
