package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lion2cat/rawBeans/pkg/models"
)

func TestGenerateWithExclusions_KeyOrderIndependent(t *testing.T) {
	a := map[string]any{"name": "Guji", "weight": map[string]any{"value": 1.0, "unit": "lb"}}
	b := map[string]any{"weight": map[string]any{"unit": "lb", "value": 1.0}, "name": "Guji"}

	assert.Equal(t, GenerateWithExclusions(a, nil), GenerateWithExclusions(b, nil))
	assert.Len(t, GenerateWithExclusions(a, nil), 64)
}

func TestGenerateWithExclusions(t *testing.T) {
	a := map[string]any{"name": "Guji", "weight": map[string]any{"value": 1.0, "unit": "lb"}}
	b := map[string]any{"name": "Guji", "weight": map[string]any{"value": 1.0, "unit": "kg"}}

	assert.NotEqual(t, GenerateWithExclusions(a, nil), GenerateWithExclusions(b, nil))
	assert.Equal(t,
		GenerateWithExclusions(a, map[string]bool{"weight.unit": true}),
		GenerateWithExclusions(b, map[string]bool{"weight.unit": true}),
	)
	assert.Equal(t,
		GenerateWithExclusions(a, map[string]bool{"weight": true}),
		GenerateWithExclusions(b, map[string]bool{"weight": true}),
	)
}

func TestRecord_IgnoresUpdatedAt(t *testing.T) {
	a := models.Record{Name: "Guji", Supplier: "A", Currency: "USD", UpdatedAt: "2026-01-01"}
	b := models.Record{Name: "Guji", Supplier: "A", Currency: "USD", UpdatedAt: "2026-02-01"}
	c := models.Record{Name: "Guji", Supplier: "B", Currency: "USD", UpdatedAt: "2026-01-01"}

	assert.Equal(t, Record(a), Record(b))
	assert.NotEqual(t, Record(a), Record(c))
}

func TestCatalog_OrderMatters(t *testing.T) {
	a := models.Record{Name: "Guji", Supplier: "A", Currency: "USD"}
	b := models.Record{Name: "Huila", Supplier: "A", Currency: "USD"}

	assert.Equal(t, Catalog([]models.Record{a, b}), Catalog([]models.Record{a, b}))
	assert.NotEqual(t, Catalog([]models.Record{a, b}), Catalog([]models.Record{b, a}))
}
