package sources

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lion2cat/rawBeans/pkg/models"
)

const storefront = `<html><body><main><ol class="products">
<li class="product-item">
  <a class="product-item-link" href="https://www.sweetmarias.com/ethiopia-guji.html">Ethiopia Guji Natural 1 lb</a>
  <div class="price-container"><span class="price">$7.50</span></div>
</li>
<li class="product-item">
  <a class="product-item-link" href="/huila.html">Huila Decaf</a>
  <p>Sold in 5 lbs bags</p>
</li>
<li class="product-item">
  <a class="product-item-link" href="/cart">Cart</a>
</li>
</ol></main></body></html>`

func TestParseProductPage(t *testing.T) {
	records, err := ParseProductPage(strings.NewReader(storefront), "Sweet Maria's")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.RawRecord{
		"name":     "Ethiopia Guji Natural 1 lb",
		"supplier": "Sweet Maria's",
		"currency": "USD",
		"price":    "$7.50",
		"url":      "https://www.sweetmarias.com/ethiopia-guji.html",
		"origin":   "Ethiopia",
		"weight":   models.Weight{Value: 1, Unit: "lb"},
	}, records[0])

	assert.Equal(t, "Huila Decaf", records[1]["name"])
	assert.Equal(t, "/huila.html", records[1]["url"])
	assert.Equal(t, models.Weight{Value: 5, Unit: "lb"}, records[1]["weight"])
	assert.NotContains(t, records[1], "price")
	assert.NotContains(t, records[1], "origin")
}

func TestParseProductPage_NoCards(t *testing.T) {
	records, err := ParseProductPage(strings.NewReader("<html><body><p>Checking your browser</p></body></html>"), "Coffee Shrub")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoad_DebugPage(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sweet_marias_debug.html", storefront, time.Now())

	records, err := NewLoader(silentLogger()).Load(context.Background(), File{Supplier: marias, Path: path, Format: FormatHTML})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Sweet Maria's", records[0]["supplier"])
}
