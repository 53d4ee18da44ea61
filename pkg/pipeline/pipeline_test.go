package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lion2cat/rawBeans/pkg/catalog"
	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/exchange"
	"github.com/Lion2cat/rawBeans/pkg/matching"
	"github.com/Lion2cat/rawBeans/pkg/merging"
	"github.com/Lion2cat/rawBeans/pkg/metrics"
	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
	"github.com/Lion2cat/rawBeans/pkg/report"
	"github.com/Lion2cat/rawBeans/pkg/sources"
)

var runTime = time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

var suppliers = []sources.Supplier{
	{Key: "coffee_shrub", Name: "Coffee Shrub", Pattern: "coffee_shrub_*.json"},
	{Key: "sweet_marias", Name: "Sweet Marias", Pattern: "sweet_marias_*.json"},
	{Key: "genuine_origin", Name: "Genuine Origin", Pattern: "genuine_origin_*.json"},
}

type fixture struct {
	pipeline   *Pipeline
	metrics    *metrics.Run
	resultsDir string
	reportsDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	root := t.TempDir()
	resultsDir := filepath.Join(root, "results")
	reportsDir := filepath.Join(root, "reports")
	require.NoError(t, os.MkdirAll(resultsDir, 0o755))

	normalizer := normalizers.NewRecordNormalizer(normalizers.RecordConfig{
		DefaultWeights: map[string]models.Weight{
			"coffee_shrub":   {Value: 50, Unit: "lb"},
			"sweet_marias":   {Value: 1, Unit: "lb"},
			"genuine_origin": {Value: 70, Unit: "kg"},
		},
	}).WithClock(func() time.Time { return runTime })

	runMetrics := metrics.NewRun()
	p := NewPipeline(
		logger,
		sources.NewSelector(logger, false),
		sources.NewLoader(logger),
		normalizer,
		merging.NewEngine(logger, normalizer, matching.NewMatcher(matching.DefaultConfig()), merging.Config{}),
		catalog.NewStore(logger, resultsDir),
		report.NewWriter(logger, reportsDir),
		exchange.FixedRate(7.1),
		runMetrics,
		Options{ResultsDir: resultsDir, Suppliers: suppliers, TargetCurrency: "CNY"},
	).WithClock(func() time.Time { return runTime })

	return fixture{pipeline: p, metrics: runMetrics, resultsDir: resultsDir, reportsDir: reportsDir}
}

func writeSource(t *testing.T, dir, name string, records any) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestMerge_EndToEnd(t *testing.T) {
	f := newFixture(t)

	writeSource(t, f.resultsDir, "coffee_shrub_20260301_010000.json", []map[string]any{
		{"name": "Huila", "supplier": "Coffee Shrub", "origin": "Colombia", "price": 100},
		{"name": "Yirgacheffe", "supplier": "Coffee Shrub", "origin": "Ethiopia", "price": 250},
	})
	writeSource(t, f.resultsDir, "sweet_marias_20260301_010000.json", []map[string]any{
		{"name": "Yirgacheffe", "supplier": "Sweet Marias", "origin": "Ethiopia", "price": 7.5},
		{"name": "Guji", "supplier": "Sweet Marias", "price": 8},
	})
	require.NoError(t, os.WriteFile(filepath.Join(f.resultsDir, "genuine_origin_20260301_010000.json"), []byte("{oops"), 0o644))

	summary, err := f.pipeline.Merge(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, filepath.Join(f.resultsDir, "merged_coffee_data_20260301_020000.json"), summary.Path)
	assert.Equal(t, merging.Stats{Sources: 2, SkippedSources: 1, TotalRecords: 4, DuplicatesRemoved: 1, CatalogSize: 3}, summary.Stats)
	require.Len(t, summary.Warnings, 1)
	assert.True(t, rberrors.Is(summary.Warnings[0], rberrors.KindSourceLoad))
	assert.Equal(t, exchange.SourceFixed, summary.Quote.Source)

	data, err := os.ReadFile(summary.Path)
	require.NoError(t, err)
	var written []map[string]any
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, 3)
	assert.Equal(t, "Huila", written[0]["name"])
	assert.Equal(t, 710.0, written[0]["price_converted"])
	assert.Equal(t, 31.31, written[0]["unit_price_converted_per_kg"])
	assert.Equal(t, map[string]any{"value": 50.0, "unit": "lb"}, written[0]["weight"])
	assert.Equal(t, "Guji", written[2]["name"])
	assert.Nil(t, written[2]["origin"])
	assert.Equal(t, "2026-03-01", written[2]["updated_at"])

	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.RecordsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DuplicatesTotal.WithLabelValues(matching.RuleCrossSupplier)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SourceErrorsTotal.WithLabelValues(string(rberrors.KindSourceLoad))))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.CatalogSize))
	assert.Equal(t, 7.1, testutil.ToFloat64(f.metrics.ExchangeRate.WithLabelValues("fixed")))
}

func TestMerge_NoDataWritesNothing(t *testing.T) {
	f := newFixture(t)
	writeSource(t, f.resultsDir, "sweet_marias_20260301_010000.json", []map[string]any{})

	summary, err := f.pipeline.Merge(context.Background())
	assert.Nil(t, summary)
	assert.True(t, rberrors.IsNoData(err))

	matches, err := filepath.Glob(filepath.Join(f.resultsDir, catalog.FilePattern))
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SourceErrorsTotal.WithLabelValues(string(rberrors.KindSourceUnavailable))))
}

func TestMerge_RerunIsStable(t *testing.T) {
	f := newFixture(t)
	writeSource(t, f.resultsDir, "sweet_marias_20260301_010000.json", []map[string]any{
		{"name": "Ethiopia Guji Natural", "supplier": "Sweet Marias", "price": 10.0},
		{"name": "Ethiopia Guji Natural", "supplier": "Sweet Marias", "price": 10.4},
	})

	first, err := f.pipeline.Merge(context.Background())
	require.NoError(t, err)
	firstData, err := os.ReadFile(first.Path)
	require.NoError(t, err)

	second, err := f.pipeline.Merge(context.Background())
	require.NoError(t, err)
	secondData, err := os.ReadFile(second.Path)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, string(firstData), string(secondData))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestReport_EndToEnd(t *testing.T) {
	f := newFixture(t)
	writeSource(t, f.resultsDir, "coffee_shrub_20260301_010000.json", []map[string]any{
		{"name": "Huila", "supplier": "Coffee Shrub", "origin": "Colombia", "price": 100},
	})

	_, err := f.pipeline.Merge(context.Background())
	require.NoError(t, err)

	summary, err := f.pipeline.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.reportsDir, "coffee_report_20260301_020000.txt"), summary.Files.Text)
	text, err := os.ReadFile(summary.Files.Text)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Colombia (1 products):")
	assert.Contains(t, string(text), "Average unit price: CNY 31.31/kg")
	assert.FileExists(t, summary.Files.HTML)
	assert.FileExists(t, summary.Files.Excel)
}

func TestReport_WithoutCatalog(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Report(context.Background())
	assert.True(t, rberrors.IsNoData(err))
}
