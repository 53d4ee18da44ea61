// Package matching decides whether two product records denote the same offering
package matching

import (
	"fmt"

	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
)

// Mode selects the same-supplier duplicate rule
type Mode string

const (
	// ModeFuzzy compares names by similarity ratio and prices by relative tolerance
	ModeFuzzy Mode = "fuzzy"
	// ModeExact treats same-supplier records as duplicates only when their names are equal
	// ignoring case. Kept for parity with the older exact-key merge.
	ModeExact Mode = "exact"
)

// Rule names reported in a Verdict
const (
	RuleUnkeyed        = "unkeyed"
	RuleCrossSupplier  = "cross_supplier_name_origin"
	RuleNameSimilarity = "same_supplier_name_similarity"
	RulePriceTolerance = "same_supplier_price_tolerance"
	RuleExactName      = "same_supplier_exact_name"
)

// Config contains the matcher thresholds
type Config struct {
	Mode                Mode     // Same-supplier rule (default: fuzzy)
	SimilarityThreshold float64  // Minimum name ratio for a same-supplier duplicate (default: 0.9)
	PriceTolerance      float64  // Maximum relative price difference (default: 0.05)
	NameNormalizers     []string // Applied to names before the ratio is computed (default: lowercase)
}

// DefaultConfig returns default matcher configuration
func DefaultConfig() Config {
	return Config{
		Mode:                ModeFuzzy,
		SimilarityThreshold: 0.9,
		PriceTolerance:      0.05,
		NameNormalizers:     []string{"lowercase"},
	}
}

// Validate checks the thresholds are usable
func (c Config) Validate() error {
	if c.Mode != ModeFuzzy && c.Mode != ModeExact {
		return fmt.Errorf("unknown match mode %q", c.Mode)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be within [0,1], got %v", c.SimilarityThreshold)
	}
	if c.PriceTolerance < 0 {
		return fmt.Errorf("price tolerance must be non-negative, got %v", c.PriceTolerance)
	}
	return nil
}

// Verdict explains a comparison
type Verdict struct {
	Duplicate  bool
	Rule       string
	Similarity float64
	PriceDiff  *float64
}

// Matcher compares records pairwise. The relation is not transitive and callers must
// not assume it is.
type Matcher struct {
	config Config
	scorer *Scorer
}

// NewMatcher creates a matcher
func NewMatcher(config Config) *Matcher {
	if config.Mode == "" {
		config.Mode = ModeFuzzy
	}
	if config.NameNormalizers == nil {
		config.NameNormalizers = []string{"lowercase"}
	}
	return &Matcher{config: config, scorer: NewScorer()}
}

// Config returns the active configuration
func (m *Matcher) Config() Config {
	return m.config
}

// Match reports whether a and b denote the same offering
func (m *Matcher) Match(a, b *models.Record) bool {
	return m.Compare(a, b).Duplicate
}

// Compare evaluates the duplicate rules for a pair of records
func (m *Matcher) Compare(a, b *models.Record) Verdict {
	if !a.Keyable() || !b.Keyable() {
		return Verdict{Rule: RuleUnkeyed}
	}

	if a.Supplier != b.Supplier {
		return m.compareAcrossSuppliers(a, b)
	}

	if m.config.Mode == ModeExact {
		same := m.scorer.ExactMatch(a.Name, b.Name, false) == 1.0
		verdict := Verdict{Duplicate: same, Rule: RuleExactName}
		if same {
			verdict.Similarity = 1.0
		}
		return verdict
	}

	return m.compareWithinSupplier(a, b)
}

// compareAcrossSuppliers requires the same name (case-sensitive) and the same non-empty origin
func (m *Matcher) compareAcrossSuppliers(a, b *models.Record) Verdict {
	verdict := Verdict{Rule: RuleCrossSupplier}
	if a.Origin == "" || b.Origin == "" {
		return verdict
	}
	if m.scorer.ExactMatch(a.Name, b.Name, true) == 1.0 && a.Origin == b.Origin {
		verdict.Duplicate = true
		verdict.Similarity = 1.0
	}
	return verdict
}

func (m *Matcher) compareWithinSupplier(a, b *models.Record) Verdict {
	similarity := m.scorer.Ratio(
		normalizers.ApplyChain(a.Name, m.config.NameNormalizers...),
		normalizers.ApplyChain(b.Name, m.config.NameNormalizers...),
	)

	verdict := Verdict{Rule: RuleNameSimilarity, Similarity: similarity}
	if similarity < m.config.SimilarityThreshold {
		return verdict
	}

	// Without two prices the name alone decides
	if !a.HasPrice() || !b.HasPrice() {
		verdict.Duplicate = true
		return verdict
	}

	diff := m.scorer.RelativeDifference(*a.Price, *b.Price)
	verdict.Rule = RulePriceTolerance
	verdict.PriceDiff = &diff
	verdict.Duplicate = diff <= m.config.PriceTolerance
	return verdict
}
