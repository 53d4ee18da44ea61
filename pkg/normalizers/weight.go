package normalizers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Lion2cat/rawBeans/pkg/models"
)

// Scrapers tried these patterns in this order, first against the name and then the description.
var weightPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(lbs?)\b`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(oz)\b`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(pounds?)\b`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kgs?)\b`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(grams?)\b`),
}

var unitAliases = map[string]string{
	"lb":        "lb",
	"lbs":       "lb",
	"pound":     "lb",
	"pounds":    "lb",
	"oz":        "oz",
	"ounce":     "oz",
	"ounces":    "oz",
	"kg":        "kg",
	"kgs":       "kg",
	"kilo":      "kg",
	"kilos":     "kg",
	"kilogram":  "kg",
	"kilograms": "kg",
	"g":         "g",
	"gr":        "g",
	"gram":      "g",
	"grams":     "g",
}

// CanonicalUnit maps a unit spelling to lb, oz, kg or g. Unknown units are returned lower-cased.
func CanonicalUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// ParseWeight extracts a weight from free text such as "5 lb", "70kg bag" or "1 lb | 5 lb"
func ParseWeight(text string) (models.Weight, bool) {
	for _, pattern := range weightPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil || value <= 0 {
			continue
		}
		return models.Weight{Value: value, Unit: CanonicalUnit(m[2])}, true
	}
	return models.Weight{}, false
}

// coerceWeight reads a weight from the shapes sources produce. ok is false when the
// weight is absent or incomplete.
func coerceWeight(v any) (models.Weight, bool) {
	switch w := v.(type) {
	case models.Weight:
		return completeWeight(w.Value, true, w.Unit)
	case *models.Weight:
		if w == nil {
			return models.Weight{}, false
		}
		return completeWeight(w.Value, true, w.Unit)
	case map[string]any:
		value, hasValue := coerceFloat(w["value"])
		unit, _ := w["unit"].(string)
		return completeWeight(value, hasValue, unit)
	case models.RawRecord:
		return coerceWeight(map[string]any(w))
	case string:
		return ParseWeight(w)
	default:
		return models.Weight{}, false
	}
}

func completeWeight(value float64, hasValue bool, unit string) (models.Weight, bool) {
	unit = CanonicalUnit(unit)
	if !hasValue || value <= 0 || unit == "" {
		return models.Weight{}, false
	}
	return models.Weight{Value: value, Unit: unit}, true
}
