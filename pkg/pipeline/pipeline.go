// Package pipeline runs the merge and report batches end to end.
// A merge run selects the newest file per supplier, loads and merges them, prices the
// catalog and writes it. A report run reloads the newest catalog and renders reports.
package pipeline

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Lion2cat/rawBeans/pkg/catalog"
	"github.com/Lion2cat/rawBeans/pkg/enrichment"
	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/exchange"
	"github.com/Lion2cat/rawBeans/pkg/merging"
	"github.com/Lion2cat/rawBeans/pkg/metrics"
	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
	"github.com/Lion2cat/rawBeans/pkg/report"
	"github.com/Lion2cat/rawBeans/pkg/sources"
	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

// BaseCurrency is the currency supplier prices are quoted in
const BaseCurrency = "USD"

// RateSource resolves the exchange rate for a run
type RateSource interface {
	Resolve(ctx context.Context, base, target string) exchange.Quote
}

// Options are the per-run settings
type Options struct {
	ResultsDir     string
	Suppliers      []sources.Supplier
	TargetCurrency string
	PushgatewayURL string
}

// Pipeline wires the stages of a run together
type Pipeline struct {
	logger     ectologger.Logger
	selector   *sources.Selector
	loader     *sources.Loader
	normalizer *normalizers.RecordNormalizer
	engine     *merging.Engine
	store      *catalog.Store
	reports    *report.Writer
	rates      RateSource
	metrics    *metrics.Run
	options    Options
	now        func() time.Time
}

// NewPipeline creates a pipeline
func NewPipeline(
	logger ectologger.Logger,
	selector *sources.Selector,
	loader *sources.Loader,
	normalizer *normalizers.RecordNormalizer,
	engine *merging.Engine,
	store *catalog.Store,
	reports *report.Writer,
	rates RateSource,
	runMetrics *metrics.Run,
	options Options,
) *Pipeline {
	if options.TargetCurrency == "" {
		options.TargetCurrency = "CNY"
	}
	return &Pipeline{
		logger:     logger,
		selector:   selector,
		loader:     loader,
		normalizer: normalizer,
		engine:     engine,
		store:      store,
		reports:    reports,
		rates:      rates,
		metrics:    runMetrics,
		options:    options,
		now:        time.Now,
	}
}

// WithClock sets the clock used for run timestamps
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// MergeSummary describes a finished merge run
type MergeSummary struct {
	RunID       string
	Path        string
	Stats       merging.Stats
	Warnings    []error
	Anomalies   []error
	Quote       exchange.Quote
	Fingerprint string
}

// ReportSummary describes a finished report run
type ReportSummary struct {
	RunID   string
	Catalog string
	Files   report.Files
	Quote   exchange.Quote
}

// Merge runs select, load, merge, enrich and write. When no supplier yields data it
// returns a NoData error and writes nothing.
func (p *Pipeline) Merge(ctx context.Context) (*MergeSummary, error) {
	runID := uuid.NewString()
	started := p.now()

	ctx, span := tracing.StartSpan(ctx, "pipeline.Merge")
	defer span.End()

	log := p.logger.WithContext(ctx).WithField("run_id", runID)
	log.WithFields(map[string]any{
		"results_dir": p.options.ResultsDir,
		"suppliers":   len(p.options.Suppliers),
	}).Info("Starting merge run")

	defer p.push(ctx, runID)

	stageStart := time.Now()
	selection, err := p.selector.Select(ctx, p.options.ResultsDir, p.options.Suppliers)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	failures := append([]error{}, selection.Absent...)
	loaded := make([]merging.Source, 0, len(selection.Files))
	for _, file := range selection.Files {
		records, err := p.loader.Load(ctx, file)
		if err != nil {
			log.WithError(err).WithField("supplier", file.Supplier.Key).Warn("Skipping unreadable source")
			failures = append(failures, err)
			continue
		}
		loaded = append(loaded, merging.Source{Key: file.Supplier.Key, Path: file.Path, Records: records})
	}
	for _, failure := range failures {
		p.metrics.SourceErrorsTotal.WithLabelValues(string(rberrors.KindOf(failure))).Inc()
	}
	p.observe("load", stageStart)

	stageStart = time.Now()
	result, err := p.engine.Merge(ctx, loaded, failures)
	if err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Error("Merge run produced no catalog")
		return nil, err
	}
	p.observe("merge", stageStart)

	p.metrics.RecordsTotal.Add(float64(result.Stats.TotalRecords))
	for _, dup := range result.Duplicates {
		p.metrics.DuplicatesTotal.WithLabelValues(dup.Rule).Inc()
	}
	p.metrics.CatalogSize.Set(float64(result.Stats.CatalogSize))

	quote := p.rates.Resolve(ctx, BaseCurrency, p.options.TargetCurrency)
	p.metrics.ExchangeRate.WithLabelValues(string(quote.Source)).Set(quote.Rate)

	stageStart = time.Now()
	enriched, err := p.enrich(ctx, result.Catalog, quote)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	p.observe("enrich", stageStart)

	stageStart = time.Now()
	path, err := p.store.Write(ctx, enriched.Records, started)
	if err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Error("Failed to write catalog")
		return nil, err
	}
	p.observe("write", stageStart)

	summary := &MergeSummary{
		RunID:       runID,
		Path:        path,
		Stats:       result.Stats,
		Warnings:    result.Warnings,
		Anomalies:   enriched.Anomalies,
		Quote:       quote,
		Fingerprint: result.Fingerprint,
	}

	log.WithFields(map[string]any{
		"path":               path,
		"catalog_size":       result.Stats.CatalogSize,
		"duplicates_removed": result.Stats.DuplicatesRemoved,
		"warnings":           len(result.Warnings),
		"anomalies":          len(enriched.Anomalies),
		"rate":               quote.Rate,
		"rate_source":        string(quote.Source),
		"duration":           time.Since(started).String(),
	}).Info("Merge run complete")

	return summary, nil
}

// Report renders reports from the newest merged catalog. Records are normalized again
// and re-priced with the current rate.
func (p *Pipeline) Report(ctx context.Context) (*ReportSummary, error) {
	runID := uuid.NewString()
	started := p.now()

	ctx, span := tracing.StartSpan(ctx, "pipeline.Report")
	defer span.End()

	log := p.logger.WithContext(ctx).WithField("run_id", runID)

	defer p.push(ctx, runID)

	path, err := p.store.Latest()
	if err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Error("No merged catalog to report on")
		return nil, err
	}

	raws, err := p.store.Read(ctx, path)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if len(raws) == 0 {
		err := rberrors.New(rberrors.KindNoData, "merged catalog is empty").AddPath(path)
		tracing.RecordError(span, err)
		return nil, err
	}

	records := p.normalizer.NormalizeAll(raws, "")
	p.metrics.CatalogSize.Set(float64(len(records)))

	quote := p.rates.Resolve(ctx, BaseCurrency, p.options.TargetCurrency)
	p.metrics.ExchangeRate.WithLabelValues(string(quote.Source)).Set(quote.Rate)

	enriched, err := p.enrich(ctx, records, quote)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	rep := report.Build(report.Meta{
		RunID:       runID,
		GeneratedAt: started,
		Source:      path,
		Currency:    quote.Target,
		Rate:        quote.Rate,
		RateSource:  string(quote.Source),
	}, enriched.Records)

	files, err := p.reports.Write(ctx, rep, started)
	if err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Error("Failed to write reports")
		return nil, err
	}

	log.WithFields(map[string]any{
		"catalog": path,
		"records": len(records),
		"origins": len(rep.Origins),
	}).Info("Report run complete")

	return &ReportSummary{RunID: runID, Catalog: path, Files: files, Quote: quote}, nil
}

func (p *Pipeline) enrich(ctx context.Context, records []models.Record, quote exchange.Quote) (enrichment.Result, error) {
	enricher, err := enrichment.NewEnricher(p.logger, quote.Rate)
	if err != nil {
		return enrichment.Result{}, err
	}
	result := enricher.Enrich(ctx, records)
	p.metrics.EnrichmentAnomaliesTotal.Add(float64(len(result.Anomalies)))
	return result, nil
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// push sends run metrics when a Pushgateway is configured. Failures only log.
func (p *Pipeline) push(ctx context.Context, runID string) {
	if p.options.PushgatewayURL == "" {
		return
	}
	if err := p.metrics.Push(ctx, p.options.PushgatewayURL, runID); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("Failed to push run metrics")
	}
}
