package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"property-valuation/config"
	"property-valuation/models"
	"property-valuation/pricing"
	"property-valuation/report"
	"property-valuation/services"
	"property-valuation/storage"
	"property-valuation/utils"
	"property-valuation/valuation"
)

// newLogger builds the application logger writing to w and, when enabled,
// its Fluent Bit forwarder. The returned func flushes and closes the
// forwarder.
func newLogger(cfg *config.Config, w io.Writer) (*utils.Logger, func()) {
	lc := utils.LoggerConfig{Writer: w, Level: utils.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON}
	closeFn := func() {}

	if cfg.FluentEnabled {
		client, err := utils.NewFluentClient(cfg.FluentHost, cfg.FluentPort, cfg.AppName)
		if err != nil {
			utils.NewLoggerWithConfig(lc).Warn("Fluent Bit unavailable at %s:%d, logging locally only: %v",
				cfg.FluentHost, cfg.FluentPort, err)
		} else {
			lc.Fluent = client
			closeFn = func() { _ = client.Close() }
		}
	}
	return utils.NewLoggerWithConfig(lc).With("app", cfg.AppName), closeFn
}

func newRetry(cfg *config.Config, logger *utils.Logger) *utils.RetryConfig {
	return &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 500 * time.Millisecond, Logger: logger}
}

// loadPricing returns the pricing profile and an engine built from it. An
// explicit file path wins over the named embedded profile.
func loadPricing(path, profile string, logger *utils.Logger) (*models.PricingConfig, *valuation.Engine, error) {
	pc, err := pricing.Load(path, profile)
	if err != nil {
		return nil, nil, err
	}
	engine, err := valuation.NewEngine(pc)
	if err != nil {
		return nil, nil, fmt.Errorf("pricing profile %q: %w", pc.Name, err)
	}
	logger.Info("Pricing profile %q loaded (%s, %d areas)", pc.Name, engine.Mode(), len(pc.Areas))
	return pc, engine, nil
}

// openLeadSinks opens every configured lead sink. A sink that cannot be
// opened is skipped with an error log so the estimator stays usable; if none
// can be opened the error is returned.
func openLeadSinks(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.MultiWriter, error) {
	var writers []storage.LeadWriter

	for _, sink := range cfg.LeadSinks {
		var (
			w   storage.LeadWriter
			err error
		)
		switch sink {
		case "csv":
			w, err = storage.NewCSVWriter(cfg.LeadsCSVPath)
		case "sqlite":
			w, err = storage.NewSQLiteWriter(cfg.SQLitePath)
		case "postgres":
			w, err = storage.NewPostgresWriter(ctx, cfg.DSN(), newRetry(cfg, logger))
		case "amqp":
			w, err = storage.NewAMQPPublisher(ctx, storage.AMQPConfig{
				URL:          cfg.AMQPURL,
				ExchangeName: cfg.AMQPExchange,
				RoutingKey:   cfg.AMQPRoutingKey,
			}, newRetry(cfg, logger))
		default:
			err = fmt.Errorf("unknown lead sink %q", sink)
		}
		if err != nil {
			logger.Error("Lead sink %s disabled: %v", sink, err)
			continue
		}
		logger.Info("Lead sink %s ready", sink)
		writers = append(writers, w)
	}

	return storage.NewMultiWriter(writers...)
}

func newRenderers(cfg *config.Config, logger *utils.Logger) []report.Renderer {
	return []report.Renderer{
		report.NewPDFRenderer(report.PDFConfig{
			ChromeBin: cfg.ChromeBin,
			Timeout:   time.Duration(cfg.PDFTimeoutSec) * time.Second,
			Retry:     newRetry(cfg, logger),
			Logger:    logger,
		}),
		report.NewWordRenderer(),
		report.NewHTMLRenderer(),
	}
}

// newService wires pricing, lead sinks and renderers into a ValuationService.
// The caller must Close the returned MultiWriter.
func newService(ctx context.Context, cfg *config.Config, path, profile string, logger *utils.Logger) (*services.ValuationService, *models.PricingConfig, *storage.MultiWriter, error) {
	pc, engine, err := loadPricing(path, profile, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	leads, err := openLeadSinks(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := services.NewValuationService(engine, leads, pc.Display(), logger, newRenderers(cfg, logger)...)
	return svc, pc, leads, nil
}
