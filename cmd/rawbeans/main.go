package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Lion2cat/rawBeans/config"
	"github.com/Lion2cat/rawBeans/pkg/catalog"
	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/exchange"
	"github.com/Lion2cat/rawBeans/pkg/matching"
	"github.com/Lion2cat/rawBeans/pkg/merging"
	"github.com/Lion2cat/rawBeans/pkg/metrics"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
	"github.com/Lion2cat/rawBeans/pkg/pipeline"
	"github.com/Lion2cat/rawBeans/pkg/report"
	"github.com/Lion2cat/rawBeans/pkg/sources"
	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

const (
	exitOK     = 0
	exitNoData = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	if cfg == nil {
		// help was shown
		return exitOK
	}

	zapLogger, err := newZapLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return exitConfig
	}
	defer zapLogger.Sync()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	tracing.UseGlobalProvider()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := build(logger, cfg)
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return exitConfig
	}

	switch cfg.Command {
	case config.CommandReport:
		summary, err := p.Report(ctx)
		if err != nil {
			return exitCode(logger, err)
		}
		fmt.Printf("Reports written:\n  %s\n  %s\n  %s\n", summary.Files.Text, summary.Files.HTML, summary.Files.Excel)
	default:
		summary, err := p.Merge(ctx)
		if err != nil {
			return exitCode(logger, err)
		}
		for _, warning := range summary.Warnings {
			fmt.Fprintf(stderr, "warning: %v\n", warning)
		}
		fmt.Printf("Merged %d products from %d suppliers (%d duplicates removed) into %s\n",
			summary.Stats.CatalogSize, summary.Stats.Sources, summary.Stats.DuplicatesRemoved, summary.Path)
	}
	return exitOK
}

func build(logger ectologger.Logger, cfg *config.Config) (*pipeline.Pipeline, error) {
	suppliers, found, err := config.LoadSuppliers(cfg.SuppliersFile)
	if err != nil {
		return nil, err
	}
	if err := suppliers.Apply(cfg); err != nil {
		return nil, err
	}
	if !found {
		logger.WithField("path", cfg.SuppliersFile).Info("Supplier file not found; using built-in suppliers")
	}

	matcherConfig := suppliers.MatcherConfig()
	if err := matcherConfig.Validate(); err != nil {
		return nil, rberrors.Wrap(rberrors.KindInvalidConfig, err, "invalid match settings")
	}

	var rates pipeline.RateSource
	if cfg.Rate != 0 {
		if cfg.Rate < 0 {
			return nil, rberrors.Newf(rberrors.KindInvalidConfig, "exchange rate must be positive, got %v", cfg.Rate)
		}
		rates = exchange.FixedRate(cfg.Rate)
	} else {
		httpConfig := exchange.DefaultConfig()
		httpConfig.Timeout = cfg.RateTimeout
		rates = exchange.NewClient(httpConfig, logger, cfg.RateURL, cfg.FallbackRate)
	}

	normalizer := normalizers.NewRecordNormalizer(suppliers.NormalizerConfig())
	engine := merging.NewEngine(logger, normalizer, matching.NewMatcher(matcherConfig), suppliers.MergeConfig())

	return pipeline.NewPipeline(
		logger,
		sources.NewSelector(logger, cfg.HTMLFallback),
		sources.NewLoader(logger),
		normalizer,
		engine,
		catalog.NewStore(logger, cfg.ResultsDir),
		report.NewWriter(logger, cfg.ReportsDir),
		rates,
		metrics.NewRun(),
		pipeline.Options{
			ResultsDir:     cfg.ResultsDir,
			Suppliers:      suppliers.Sources(),
			TargetCurrency: cfg.TargetCurrency,
			PushgatewayURL: cfg.PushgatewayURL,
		},
	), nil
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}

func exitCode(logger ectologger.Logger, err error) int {
	switch rberrors.KindOf(err) {
	case rberrors.KindNoData:
		logger.WithError(err).Error("No data to process")
		return exitNoData
	case rberrors.KindInvalidConfig:
		logger.WithError(err).Error("Invalid configuration")
		return exitConfig
	default:
		logger.WithError(err).Error("Run failed")
		return exitNoData
	}
}
