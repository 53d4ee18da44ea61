// Package enrichment adds converted prices and per-kilogram unit prices to catalog records
package enrichment

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

// PricePlaces is the number of decimals kept in derived prices
const PricePlaces = 2

// Result is the enriched catalog plus the records that could not be priced per kilogram
type Result struct {
	Records   []models.EnrichedRecord
	Anomalies []error
}

// Enricher derives prices in the target currency
type Enricher struct {
	logger ectologger.Logger
	rate   decimal.Decimal
}

// NewEnricher creates an enricher for the given source-to-target exchange rate
func NewEnricher(logger ectologger.Logger, rate float64) (*Enricher, error) {
	if !(rate > 0) {
		return nil, rberrors.Newf(rberrors.KindInvalidConfig, "exchange rate must be positive, got %v", rate)
	}
	return &Enricher{logger: logger, rate: decimal.NewFromFloat(rate)}, nil
}

// Rate returns the exchange rate in use
func (e *Enricher) Rate() float64 {
	return e.rate.InexactFloat64()
}

// Enrich derives price_converted and unit_price_converted_per_kg for every record. Input
// records are not modified. Records whose weight cannot be converted keep a null unit
// price and are reported as anomalies.
func (e *Enricher) Enrich(ctx context.Context, records []models.Record) Result {
	_, span := tracing.StartSpan(ctx, "enrichment.Enricher.Enrich")
	defer span.End()

	log := e.logger.WithContext(ctx)

	result := Result{Records: make([]models.EnrichedRecord, 0, len(records))}
	for _, record := range records {
		enriched, anomaly := e.enrichRecord(record)
		if anomaly != nil {
			log.WithFields(map[string]any{
				"name":     record.Name,
				"supplier": record.Supplier,
			}).WithError(anomaly).Warn("Cannot compute unit price")
			result.Anomalies = append(result.Anomalies, anomaly)
		}
		result.Records = append(result.Records, enriched)
	}

	tracing.SetAttributes(span, map[string]int{
		"enrichment.records":   len(result.Records),
		"enrichment.anomalies": len(result.Anomalies),
	})

	log.WithFields(map[string]any{
		"records":   len(result.Records),
		"anomalies": len(result.Anomalies),
		"rate":      e.Rate(),
	}).Info("Enrichment complete")

	return result
}

func (e *Enricher) enrichRecord(record models.Record) (models.EnrichedRecord, error) {
	enriched := models.EnrichedRecord{Record: record.Clone()}
	if !record.HasPrice() {
		return enriched, nil
	}

	price := decimal.NewFromFloat(*record.Price)
	enriched.PriceConverted = toFloat(price.Mul(e.rate))

	if record.Weight == nil {
		return enriched, e.anomaly(record, "record has no weight")
	}
	kg, ok := ToKilograms(*record.Weight)
	if !ok {
		return enriched, e.anomaly(record, "unknown weight unit '"+record.Weight.Unit+"'")
	}

	enriched.UnitPriceConvertedPerKg = toFloat(price.Div(kg).Mul(e.rate))
	return enriched, nil
}

func (e *Enricher) anomaly(record models.Record, msg string) error {
	return rberrors.New(rberrors.KindEnrichmentAnomaly, msg).
		AddSupplier(record.Supplier).
		AddRecord(record.Name)
}

// toFloat rounds half away from zero
func toFloat(d decimal.Decimal) *float64 {
	f := d.Round(PricePlaces).InexactFloat64()
	return &f
}
