package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "ethiopia yirgacheffe", ApplyChain("  Ethiopia   Yirgacheffe ", "collapse_whitespace", "lowercase"))
	assert.Equal(t, "Kenya AA", ApplyChain("Kenya AA", "does_not_exist"))
	assert.Equal(t, "SantaRosa", Apply("Santa-Rosa", "alphanumeric"))
	assert.Equal(t, "Sweet Marias", Apply("Sweet Maria's", "remove_punctuation"))
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		text  string
		value float64
		unit  string
		ok    bool
	}{
		{"5 lb", 5, "lb", true},
		{"2lbs", 2, "lb", true},
		{"12 oz", 12, "oz", true},
		{"1.5 pounds", 1.5, "lb", true},
		{"70kg bag", 70, "kg", true},
		{"500 grams", 500, "g", true},
		{"1 lb | 5 lb | 20 lb", 1, "lb", true},
		{"sack", 0, "", false},
		{"0 lb", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			w, ok := ParseWeight(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.value, w.Value)
				assert.Equal(t, tt.unit, w.Unit)
			}
		})
	}
}

func TestCanonicalUnit(t *testing.T) {
	assert.Equal(t, "lb", CanonicalUnit(" Pounds "))
	assert.Equal(t, "kg", CanonicalUnit("KG"))
	assert.Equal(t, "g", CanonicalUnit("grams"))
	assert.Equal(t, "bag", CanonicalUnit("Bag"))
}
