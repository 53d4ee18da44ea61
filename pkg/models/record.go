package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Field names used in raw and persisted product records
const (
	FieldName        = "name"
	FieldSupplier    = "supplier"
	FieldPrice       = "price"
	FieldCurrency    = "currency"
	FieldOrigin      = "origin"
	FieldWeight      = "weight"
	FieldURL         = "url"
	FieldUpdatedAt   = "updated_at"
	FieldDescription = "description"
	FieldProcess     = "process"
	FieldVariety     = "variety"
	FieldScore       = "score"

	FieldPriceConverted          = "price_converted"
	FieldUnitPriceConvertedPerKg = "unit_price_converted_per_kg"
)

// DefaultCurrency is assumed for every source that does not state one
const DefaultCurrency = "USD"

// DateLayout is the layout of updated_at values
const DateLayout = "2006-01-02"

// canonicalFields are written in this order before any passthrough field
var canonicalFields = []string{
	FieldName,
	FieldSupplier,
	FieldPrice,
	FieldCurrency,
	FieldOrigin,
	FieldWeight,
	FieldURL,
	FieldUpdatedAt,
}

// derivedFields are recomputed on every enrichment and never carried through normalization
var derivedFields = map[string]bool{
	FieldPriceConverted:          true,
	FieldUnitPriceConvertedPerKg: true,
}

// IsCanonicalField reports whether key is one of the typed Record fields
func IsCanonicalField(key string) bool {
	for _, f := range canonicalFields {
		if f == key {
			return true
		}
	}
	return false
}

// IsDerivedField reports whether key is produced by enrichment
func IsDerivedField(key string) bool {
	return derivedFields[key]
}

// RawRecord is a product record exactly as a source produced it
type RawRecord map[string]any

// Weight is a package weight, e.g. 50 lb
type Weight struct {
	Value float64 `json:"value" yaml:"value" validate:"gt=0"`
	Unit  string  `json:"unit" yaml:"unit" validate:"required"`
}

// Record is the canonical shape of a product offering.
// Optional string fields use the empty string for "absent".
type Record struct {
	Name      string
	Supplier  string
	Price     *float64
	Currency  string
	Origin    string
	Weight    *Weight
	URL       string
	UpdatedAt string

	// Extra holds passthrough fields (description, process, variety, score and
	// anything a source adds) unchanged.
	Extra map[string]any

	// Source is the supplier key of the file the record was loaded from. Not persisted.
	Source string `json:"-"`
}

// Keyable reports whether the record can take part in duplicate detection
func (r *Record) Keyable() bool {
	return r.Name != "" && r.Supplier != ""
}

// HasPrice reports whether the record carries a usable price
func (r *Record) HasPrice() bool {
	return r.Price != nil
}

// Raw converts the record back into a raw map, the inverse of normalization
func (r *Record) Raw() RawRecord {
	raw := make(RawRecord, len(r.Extra)+len(canonicalFields))
	for k, v := range r.Extra {
		raw[k] = v
	}
	raw[FieldName] = r.Name
	raw[FieldSupplier] = r.Supplier
	if r.Price != nil {
		raw[FieldPrice] = *r.Price
	}
	raw[FieldCurrency] = r.Currency
	if r.Origin != "" {
		raw[FieldOrigin] = r.Origin
	}
	if r.Weight != nil {
		raw[FieldWeight] = map[string]any{"value": r.Weight.Value, "unit": r.Weight.Unit}
	}
	if r.URL != "" {
		raw[FieldURL] = r.URL
	}
	raw[FieldUpdatedAt] = r.UpdatedAt
	return raw
}

// Clone returns a deep-enough copy: pointers and the Extra map are not shared
func (r Record) Clone() Record {
	out := r
	if r.Price != nil {
		p := *r.Price
		out.Price = &p
	}
	if r.Weight != nil {
		w := *r.Weight
		out.Weight = &w
	}
	if r.Extra != nil {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON writes canonical fields first, in a fixed order, then passthrough fields sorted by key
func (r Record) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if err := r.writeFields(w); err != nil {
		return nil, err
	}
	if err := w.writeExtra(r.Extra, nil); err != nil {
		return nil, err
	}
	return w.close(), nil
}

func (r Record) writeFields(w *objectWriter) error {
	var origin, url any
	if r.Origin != "" {
		origin = r.Origin
	}
	if r.URL != "" {
		url = r.URL
	}
	var weight any
	if r.Weight != nil {
		weight = r.Weight
	}
	var price any
	if r.Price != nil {
		price = *r.Price
	}

	fields := []struct {
		key   string
		value any
	}{
		{FieldName, r.Name},
		{FieldSupplier, r.Supplier},
		{FieldPrice, price},
		{FieldCurrency, r.Currency},
		{FieldOrigin, origin},
		{FieldWeight, weight},
		{FieldURL, url},
		{FieldUpdatedAt, r.UpdatedAt},
	}
	for _, f := range fields {
		if err := w.write(f.key, f.value); err != nil {
			return err
		}
	}
	return nil
}

// EnrichedRecord is a Record with converted prices
type EnrichedRecord struct {
	Record
	PriceConverted          *float64
	UnitPriceConvertedPerKg *float64
}

// MarshalJSON writes the record fields, the derived price fields, then passthrough fields
func (e EnrichedRecord) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if err := e.Record.writeFields(w); err != nil {
		return nil, err
	}
	if err := w.write(FieldPriceConverted, floatOrNil(e.PriceConverted)); err != nil {
		return nil, err
	}
	if err := w.write(FieldUnitPriceConvertedPerKg, floatOrNil(e.UnitPriceConvertedPerKg)); err != nil {
		return nil, err
	}
	if err := w.writeExtra(e.Extra, derivedFields); err != nil {
		return nil, err
	}
	return w.close(), nil
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// objectWriter builds a JSON object with a caller-controlled key order
type objectWriter struct {
	buf   bytes.Buffer
	count int
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) write(key string, value any) error {
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.count++

	k, err := encodeValue(key)
	if err != nil {
		return err
	}
	v, err := encodeValue(value)
	if err != nil {
		return err
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
	return nil
}

func (w *objectWriter) writeExtra(extra map[string]any, skip map[string]bool) error {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if IsCanonicalField(k) || skip[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.write(k, extra[k]); err != nil {
			return err
		}
	}
	return nil
}

func (w *objectWriter) close() []byte {
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}

// encodeValue marshals one value without HTML escaping. json.Marshal re-escapes the
// output of MarshalJSON, so unescaped files need an Encoder with SetEscapeHTML(false).
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
