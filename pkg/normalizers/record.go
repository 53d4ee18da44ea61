package normalizers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Lion2cat/rawBeans/pkg/models"
)

// DefaultFallbackWeight applies to suppliers without a configured default
var DefaultFallbackWeight = models.Weight{Value: 1, Unit: "lb"}

// KnownOrigins is the origin list used when origin inference is enabled.
// Order matters: the first label found in the product name wins.
var KnownOrigins = []string{
	"Ethiopia", "Kenya", "Colombia", "Guatemala",
	"Costa Rica", "El Salvador", "Honduras", "Nicaragua",
	"Panama", "Mexico", "Brazil", "Peru", "Burundi",
	"Rwanda", "Tanzania", "Uganda", "Yemen", "Indonesia",
	"Papua New Guinea", "East Timor", "India",
}

// RecordConfig controls record normalization
type RecordConfig struct {
	// DefaultWeights maps a supplier key or supplier display name (lower-cased) to the
	// weight assumed when a record has none.
	DefaultWeights map[string]models.Weight
	// FallbackWeight is used when no supplier default applies
	FallbackWeight models.Weight
	// InferOrigin fills a missing origin from the product name
	InferOrigin bool
	// Origins overrides KnownOrigins for inference
	Origins []string
}

// RecordNormalizer turns raw source records into canonical records
type RecordNormalizer struct {
	config RecordConfig
	now    func() time.Time
}

// NewRecordNormalizer creates a record normalizer
func NewRecordNormalizer(config RecordConfig) *RecordNormalizer {
	weights := make(map[string]models.Weight, len(config.DefaultWeights))
	for k, w := range config.DefaultWeights {
		weights[strings.ToLower(strings.TrimSpace(k))] = models.Weight{Value: w.Value, Unit: CanonicalUnit(w.Unit)}
	}
	config.DefaultWeights = weights
	if config.FallbackWeight.Value <= 0 || config.FallbackWeight.Unit == "" {
		config.FallbackWeight = DefaultFallbackWeight
	}
	if len(config.Origins) == 0 {
		config.Origins = KnownOrigins
	}
	return &RecordNormalizer{config: config, now: time.Now}
}

// WithClock sets the clock used for the processing date
func (n *RecordNormalizer) WithClock(now func() time.Time) *RecordNormalizer {
	n.now = now
	return n
}

// DefaultWeight returns the weight assumed for a record from the given source and supplier
func (n *RecordNormalizer) DefaultWeight(source, supplier string) models.Weight {
	if w, ok := n.config.DefaultWeights[strings.ToLower(source)]; ok && source != "" {
		return w
	}
	if w, ok := n.config.DefaultWeights[strings.ToLower(supplier)]; ok && supplier != "" {
		return w
	}
	return n.config.FallbackWeight
}

// Normalize coerces a raw record from the given source into a Record. It never fails:
// missing optional fields get defaults and a missing name or supplier only makes the
// record non-keyable. Normalizing the Raw() form of a result returns the same result.
func (n *RecordNormalizer) Normalize(raw models.RawRecord, source string) models.Record {
	record := models.Record{
		Name:      coerceString(raw[models.FieldName]),
		Supplier:  coerceString(raw[models.FieldSupplier]),
		Currency:  strings.ToUpper(coerceString(raw[models.FieldCurrency])),
		Origin:    coerceString(raw[models.FieldOrigin]),
		URL:       coerceString(raw[models.FieldURL]),
		UpdatedAt: coerceString(raw[models.FieldUpdatedAt]),
		Source:    source,
	}

	if price, ok := coercePrice(raw[models.FieldPrice]); ok {
		record.Price = &price
	}

	if record.Currency == "" {
		record.Currency = models.DefaultCurrency
	}

	if record.UpdatedAt == "" {
		record.UpdatedAt = n.now().Format(models.DateLayout)
	}

	weight, ok := coerceWeight(raw[models.FieldWeight])
	if !ok {
		weight = n.DefaultWeight(source, record.Supplier)
	}
	record.Weight = &weight

	if record.Origin == "" && n.config.InferOrigin {
		record.Origin = n.inferOrigin(record.Name)
	}

	for k, v := range raw {
		if models.IsCanonicalField(k) || models.IsDerivedField(k) {
			continue
		}
		if record.Extra == nil {
			record.Extra = make(map[string]any)
		}
		record.Extra[k] = v
	}

	return record
}

// NormalizeAll normalizes a batch, preserving order
func (n *RecordNormalizer) NormalizeAll(raws []models.RawRecord, source string) []models.Record {
	out := make([]models.Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw, source))
	}
	return out
}

func (n *RecordNormalizer) inferOrigin(name string) string {
	lowered := Lowercase(name)
	for _, origin := range n.config.Origins {
		if strings.Contains(lowered, Lowercase(origin)) {
			return origin
		}
	}
	return ""
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return Trim(s)
	case fmt.Stringer:
		return Trim(s.String())
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool, int, int64:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

func coerceFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coercePrice accepts numbers and price strings like "$12.50", "12.50 USD" or "1,250.00"
func coercePrice(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		s = strings.NewReplacer("$", "", "USD", "", ",", "").Replace(s)
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return 0, false
		}
		v = fields[0]
	}
	price, ok := coerceFloat(v)
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}
