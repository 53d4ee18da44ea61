// Package report renders priced summaries of the merged catalog
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lion2cat/rawBeans/pkg/catalog"
	"github.com/Lion2cat/rawBeans/pkg/models"
)

// Meta describes the run a report belongs to
type Meta struct {
	RunID       string
	GeneratedAt time.Time
	Source      string
	Currency    string
	Rate        float64
	RateSource  string
}

// OriginSummary holds the unit price statistics of one origin
type OriginSummary struct {
	catalog.OriginGroup
	Priced   int
	Average  *float64
	Cheapest *models.EnrichedRecord
	Dearest  *models.EnrichedRecord
}

// Report is the data shared by every output format
type Report struct {
	Meta    Meta
	Total   int
	Origins []OriginSummary
}

// Build groups records by origin and computes unit price statistics. Records with the
// same unit price are listed by supplier, then name.
func Build(meta Meta, records []models.EnrichedRecord) Report {
	report := Report{Meta: meta, Total: len(records)}
	for _, group := range catalog.GroupByOrigin(catalog.SortForPresentation(records)) {
		report.Origins = append(report.Origins, summarize(group))
	}
	return report
}

func summarize(group catalog.OriginGroup) OriginSummary {
	summary := OriginSummary{OriginGroup: group}
	sum := decimal.Zero
	for i := range group.Records {
		r := &group.Records[i]
		if r.UnitPriceConvertedPerKg == nil {
			continue
		}
		price := *r.UnitPriceConvertedPerKg
		summary.Priced++
		sum = sum.Add(decimal.NewFromFloat(price))
		if summary.Cheapest == nil || price < *summary.Cheapest.UnitPriceConvertedPerKg {
			summary.Cheapest = r
		}
		if summary.Dearest == nil || price > *summary.Dearest.UnitPriceConvertedPerKg {
			summary.Dearest = r
		}
	}
	if summary.Priced > 0 {
		avg := sum.Div(decimal.NewFromInt(int64(summary.Priced))).Round(2).InexactFloat64()
		summary.Average = &avg
	}
	return summary
}
