package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/enrichment"
	"github.com/Lion2cat/rawBeans/pkg/matching"
	"github.com/Lion2cat/rawBeans/pkg/merging"
	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
	"github.com/Lion2cat/rawBeans/pkg/sources"
)

// Supplier is one configured source
type Supplier struct {
	Key           string         `yaml:"key" validate:"required"`
	Name          string         `yaml:"name"`
	Pattern       string         `yaml:"pattern"`
	DefaultWeight *models.Weight `yaml:"default_weight"`
}

// Match holds the duplicate detection settings
type Match struct {
	Mode                string   `yaml:"mode" validate:"omitempty,oneof=fuzzy exact"`
	SimilarityThreshold *float64 `yaml:"similarity_threshold" validate:"omitempty,gte=0,lte=1"`
	PriceTolerance      *float64 `yaml:"price_tolerance" validate:"omitempty,gte=0"`
}

// Suppliers is the supplier configuration file
type Suppliers struct {
	Suppliers      []Supplier     `yaml:"suppliers" validate:"required,min=1,unique=Key,dive"`
	Priority       []string       `yaml:"priority" validate:"dive,required"`
	FallbackWeight *models.Weight `yaml:"fallback_weight"`
	Match          Match          `yaml:"match"`
	InferOrigin    bool           `yaml:"infer_origin"`
}

// DefaultSuppliers returns the built-in supplier configuration
func DefaultSuppliers() *Suppliers {
	return &Suppliers{
		Suppliers: []Supplier{
			{Key: "coffee_shrub", Name: "Coffee Shrub", DefaultWeight: &models.Weight{Value: 50, Unit: "lb"}},
			{Key: "sweet_marias", Name: "Sweet Marias", DefaultWeight: &models.Weight{Value: 1, Unit: "lb"}},
			{Key: "genuine_origin", Name: "Genuine Origin", DefaultWeight: &models.Weight{Value: 70, Unit: "kg"}},
		},
		FallbackWeight: &models.Weight{Value: 1, Unit: "lb"},
	}
}

// LoadSuppliers reads a supplier file. A missing file yields the built-in configuration.
func LoadSuppliers(path string) (*Suppliers, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s := DefaultSuppliers()
		return s, false, s.Validate()
	}
	if err != nil {
		return nil, false, rberrors.Wrap(rberrors.KindInvalidConfig, err, "failed to read supplier file").AddPath(path)
	}

	s, err := ParseSuppliers(data)
	if err != nil {
		if classified, ok := err.(*rberrors.Error); ok {
			return nil, true, classified.AddPath(path)
		}
		return nil, true, err
	}
	return s, true, nil
}

// ParseSuppliers decodes and validates a supplier document. Omitted sections take the
// built-in values.
func ParseSuppliers(data []byte) (*Suppliers, error) {
	var s Suppliers
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, rberrors.Wrap(rberrors.KindInvalidConfig, err, "failed to parse supplier file")
	}

	defaults := DefaultSuppliers()
	if len(s.Suppliers) == 0 {
		s.Suppliers = defaults.Suppliers
	}
	if s.FallbackWeight == nil {
		s.FallbackWeight = defaults.FallbackWeight
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the struct rules and that every weight uses a known unit
func (s *Suppliers) Validate() error {
	if _, err := Validate(*s); err != nil {
		return rberrors.Wrap(rberrors.KindInvalidConfig, err, "invalid supplier configuration")
	}

	weights := []*models.Weight{s.FallbackWeight}
	for _, sup := range s.Suppliers {
		weights = append(weights, sup.DefaultWeight)
	}
	for _, w := range weights {
		if w == nil {
			continue
		}
		if _, err := Validate(*w); err != nil {
			return rberrors.Wrap(rberrors.KindInvalidConfig, err, "invalid weight")
		}
		if _, ok := enrichment.KilogramsPerUnit[normalizers.CanonicalUnit(w.Unit)]; !ok {
			return rberrors.Newf(rberrors.KindInvalidConfig, "unknown weight unit %q", w.Unit)
		}
	}

	known := make(map[string]bool, len(s.Suppliers))
	for _, sup := range s.Suppliers {
		known[sup.Key] = true
	}
	for _, key := range s.Priority {
		if !known[key] {
			return rberrors.Newf(rberrors.KindInvalidConfig, "priority lists unknown supplier %q", key)
		}
	}
	return nil
}

// Apply lets command-line settings override the file
func (s *Suppliers) Apply(cfg *Config) error {
	if len(cfg.Priority) > 0 {
		s.Priority = cfg.Priority
	}
	if cfg.MatchMode != "" {
		s.Match.Mode = cfg.MatchMode
	}
	if cfg.InferOrigin {
		s.InferOrigin = true
	}
	return s.Validate()
}

// Sources returns the supplier list for source selection
func (s *Suppliers) Sources() []sources.Supplier {
	out := make([]sources.Supplier, 0, len(s.Suppliers))
	for _, sup := range s.Suppliers {
		pattern := sup.Pattern
		if pattern == "" {
			pattern = sup.Key + "_*.json"
		}
		name := sup.Name
		if name == "" {
			name = sup.Key
		}
		out = append(out, sources.Supplier{Key: sup.Key, Name: name, Pattern: pattern})
	}
	return out
}

// NormalizerConfig returns the record defaults. Weights are registered under both the
// supplier key and its display name, so records are defaulted whichever they carry.
func (s *Suppliers) NormalizerConfig() normalizers.RecordConfig {
	cfg := normalizers.RecordConfig{
		DefaultWeights: map[string]models.Weight{},
		InferOrigin:    s.InferOrigin,
	}
	if s.FallbackWeight != nil {
		cfg.FallbackWeight = *s.FallbackWeight
	}
	for _, sup := range s.Suppliers {
		if sup.DefaultWeight == nil {
			continue
		}
		cfg.DefaultWeights[sup.Key] = *sup.DefaultWeight
		if sup.Name != "" {
			cfg.DefaultWeights[strings.ToLower(sup.Name)] = *sup.DefaultWeight
		}
	}
	return cfg
}

// MatcherConfig returns the matcher thresholds, defaulting what the file leaves out
func (s *Suppliers) MatcherConfig() matching.Config {
	cfg := matching.DefaultConfig()
	if s.Match.Mode != "" {
		cfg.Mode = matching.Mode(s.Match.Mode)
	}
	if s.Match.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *s.Match.SimilarityThreshold
	}
	if s.Match.PriceTolerance != nil {
		cfg.PriceTolerance = *s.Match.PriceTolerance
	}
	return cfg
}

// MergeConfig returns the merge settings
func (s *Suppliers) MergeConfig() merging.Config {
	return merging.Config{Priority: s.Priority}
}
