package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Lion2cat/rawBeans/pkg/models"
)

// UnknownOrigin labels records without an origin. It always sorts last.
const UnknownOrigin = "Unknown origin"

// OriginGroup is the set of records sharing one origin, in presentation order
type OriginGroup struct {
	Origin  string
	Records []models.EnrichedRecord
}

// SortForPresentation returns a copy of records ordered by origin, then supplier, then
// name. Ties keep catalog order. The catalog itself stays in insertion order.
func SortForPresentation(records []models.EnrichedRecord) []models.EnrichedRecord {
	c := collate.New(language.English)

	sorted := make([]models.EnrichedRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if cmp := compareOrigins(c, a.Origin, b.Origin); cmp != 0 {
			return cmp < 0
		}
		if cmp := c.CompareString(a.Supplier, b.Supplier); cmp != 0 {
			return cmp < 0
		}
		return c.CompareString(a.Name, b.Name) < 0
	})
	return sorted
}

// GroupByOrigin splits records by origin. Groups are ordered by origin name with the
// unknown origin last; records inside a group are ordered by unit price, unpriced last.
func GroupByOrigin(records []models.EnrichedRecord) []OriginGroup {
	c := collate.New(language.English)

	index := map[string]int{}
	groups := []OriginGroup{}
	for _, r := range records {
		origin := r.Origin
		if origin == "" {
			origin = UnknownOrigin
		}
		i, ok := index[origin]
		if !ok {
			i = len(groups)
			index[origin] = i
			groups = append(groups, OriginGroup{Origin: origin})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return compareOrigins(c, originKey(groups[i].Origin), originKey(groups[j].Origin)) < 0
	})
	for _, g := range groups {
		sort.SliceStable(g.Records, func(i, j int) bool {
			return lessUnitPrice(g.Records[i].UnitPriceConvertedPerKg, g.Records[j].UnitPriceConvertedPerKg)
		})
	}
	return groups
}

func originKey(label string) string {
	if label == UnknownOrigin {
		return ""
	}
	return label
}

// compareOrigins orders empty origins after all others
func compareOrigins(c *collate.Collator, a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	default:
		return c.CompareString(a, b)
	}
}

func lessUnitPrice(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
