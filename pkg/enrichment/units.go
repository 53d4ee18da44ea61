package enrichment

import (
	"github.com/shopspring/decimal"

	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
)

// KilogramsPerUnit is the conversion table for package weights
var KilogramsPerUnit = map[string]decimal.Decimal{
	"lb": decimal.RequireFromString("0.45359237"),
	"oz": decimal.RequireFromString("0.028349523125"),
	"g":  decimal.RequireFromString("0.001"),
	"kg": decimal.NewFromInt(1),
}

// ToKilograms converts a package weight to kilograms. ok is false for unknown units and
// non-positive values.
func ToKilograms(w models.Weight) (kg decimal.Decimal, ok bool) {
	factor, known := KilogramsPerUnit[normalizers.CanonicalUnit(w.Unit)]
	if !known || w.Value <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(w.Value).Mul(factor), true
}
