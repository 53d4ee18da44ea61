// Package merging folds per-supplier record batches into one deduplicated catalog
package merging

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/fingerprint"
	"github.com/Lion2cat/rawBeans/pkg/matching"
	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

// Source is one supplier's batch of raw records
type Source struct {
	Key     string
	Path    string
	Records []models.RawRecord
}

// Config contains merge configuration
type Config struct {
	// Priority lists supplier keys in processing order. Earlier suppliers win
	// cross-supplier duplicates. Unlisted suppliers follow in alphabetical order.
	Priority []string
}

// Stats are the counts reported for every merge
type Stats struct {
	Sources           int `json:"sources"`
	SkippedSources    int `json:"skipped_sources"`
	TotalRecords      int `json:"total_records"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	Unkeyed           int `json:"unkeyed"`
	CatalogSize       int `json:"catalog_size"`
}

// Duplicate describes a record that was dropped because an earlier record matched it
type Duplicate struct {
	Record          models.Record
	KeptIndex       int
	KeptFingerprint string
	Rule            string
	Similarity      float64
}

// Result is the outcome of a merge
type Result struct {
	Catalog     []models.Record
	Stats       Stats
	Duplicates  []Duplicate
	Warnings    []error
	SourceOrder []string
	Fingerprint string
}

// Engine merges sources sequentially. Insertion order is first-seen-wins and must not
// be parallelized.
type Engine struct {
	logger     ectologger.Logger
	normalizer *normalizers.RecordNormalizer
	matcher    *matching.Matcher
	config     Config
}

// NewEngine creates a new merge engine
func NewEngine(
	logger ectologger.Logger,
	normalizer *normalizers.RecordNormalizer,
	matcher *matching.Matcher,
	config Config,
) *Engine {
	return &Engine{
		logger:     logger,
		normalizer: normalizer,
		matcher:    matcher,
		config:     config,
	}
}

// Merge normalizes and deduplicates the loaded sources. failures are per-source load
// errors; they are carried into the result as warnings. A merge with no usable records
// returns a NoData error and no result.
func (e *Engine) Merge(ctx context.Context, sources []Source, failures []error) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	log := e.logger.WithContext(ctx)

	ordered := e.OrderSources(sources)
	result := &Result{
		Catalog:     []models.Record{},
		Warnings:    append([]error{}, failures...),
		SourceOrder: make([]string, 0, len(ordered)),
	}
	result.Stats.SkippedSources = len(failures)

	for _, source := range ordered {
		result.SourceOrder = append(result.SourceOrder, source.Key)
		if len(source.Records) == 0 {
			warning := rberrors.New(rberrors.KindSourceLoad, "source contains no records").
				AddSupplier(source.Key).AddPath(source.Path)
			log.WithFields(map[string]any{"supplier": source.Key, "path": source.Path}).Warn("Source contains no records")
			result.Warnings = append(result.Warnings, warning)
			result.Stats.SkippedSources++
			continue
		}

		result.Stats.Sources++
		log.WithFields(map[string]any{
			"supplier":     source.Key,
			"path":         source.Path,
			"record_count": len(source.Records),
		}).Info("Merging source")

		for _, raw := range source.Records {
			record := e.normalizer.Normalize(raw, source.Key)
			result.Stats.TotalRecords++
			e.insert(ctx, result, record)
		}
	}

	if result.Stats.Sources == 0 {
		err := rberrors.New(rberrors.KindNoData, "no supplier produced usable data")
		tracing.RecordError(span, err)
		log.WithFields(map[string]any{"warning_count": len(result.Warnings)}).Error("Nothing to merge")
		return nil, err
	}

	result.Stats.CatalogSize = len(result.Catalog)
	result.Fingerprint = fingerprint.Catalog(result.Catalog)

	tracing.SetAttributes(span, map[string]int{
		"merge.sources":            result.Stats.Sources,
		"merge.total_records":      result.Stats.TotalRecords,
		"merge.duplicates_removed": result.Stats.DuplicatesRemoved,
		"merge.catalog_size":       result.Stats.CatalogSize,
	})

	log.WithFields(map[string]any{
		"sources":            result.Stats.Sources,
		"skipped_sources":    result.Stats.SkippedSources,
		"total_records":      result.Stats.TotalRecords,
		"duplicates_removed": result.Stats.DuplicatesRemoved,
		"unkeyed":            result.Stats.Unkeyed,
		"catalog_size":       result.Stats.CatalogSize,
		"fingerprint":        result.Fingerprint,
	}).Info("Merge complete")

	return result, nil
}

// insert appends record unless a record already in the catalog matches it. The first
// match in insertion order wins.
func (e *Engine) insert(ctx context.Context, result *Result, record models.Record) {
	if !record.Keyable() {
		// Kept for completeness, never compared
		result.Stats.Unkeyed++
		result.Catalog = append(result.Catalog, record)
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"supplier": record.Supplier,
			"name":     record.Name,
			"source":   record.Source,
		}).Debug("Record lacks name or supplier; skipping duplicate check")
		return
	}

	for i := range result.Catalog {
		verdict := e.matcher.Compare(&result.Catalog[i], &record)
		if !verdict.Duplicate {
			continue
		}
		kept := fingerprint.Record(result.Catalog[i])
		result.Stats.DuplicatesRemoved++
		result.Duplicates = append(result.Duplicates, Duplicate{
			Record:          record,
			KeptIndex:       i,
			KeptFingerprint: kept,
			Rule:            verdict.Rule,
			Similarity:      verdict.Similarity,
		})
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"name":             record.Name,
			"supplier":         record.Supplier,
			"kept_name":        result.Catalog[i].Name,
			"kept_fingerprint": kept,
			"rule":             verdict.Rule,
			"similarity":       verdict.Similarity,
		}).Debug("Found duplicate product")
		return
	}

	result.Catalog = append(result.Catalog, record)
}

// OrderSources returns the sources in processing order: configured priority first, then
// alphabetical by key. The input slice is not modified.
func (e *Engine) OrderSources(sources []Source) []Source {
	rank := make(map[string]int, len(e.config.Priority))
	for i, key := range e.config.Priority {
		if _, seen := rank[key]; !seen {
			rank[key] = i
		}
	}

	ordered := make([]Source, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, iRanked := rank[ordered[i].Key]
		rj, jRanked := rank[ordered[j].Key]
		switch {
		case iRanked && jRanked:
			return ri < rj
		case iRanked != jRanked:
			return iRanked
		default:
			return ordered[i].Key < ordered[j].Key
		}
	})
	return ordered
}
