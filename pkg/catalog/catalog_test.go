package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/models"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func ptr(f float64) *float64 {
	return &f
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "merged_coffee_data_20260301_090507.json", FileName(ts))
}

func TestStore_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(silentLogger(), dir)
	ts := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

	records := []models.EnrichedRecord{
		{
			Record: models.Record{
				Name:      "Café <Especial> & Co",
				Supplier:  "Sweet Maria's",
				Price:     ptr(100),
				Currency:  "USD",
				Weight:    &models.Weight{Value: 50, Unit: "lb"},
				UpdatedAt: "2026-03-01",
				Extra:     map[string]any{"process": "Washed"},
			},
			PriceConverted:          ptr(710),
			UnitPriceConvertedPerKg: ptr(31.31),
		},
	}

	path, err := store.Write(context.Background(), records, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "merged_coffee_data_20260301_090507.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"name\": "))
	assert.True(t, strings.HasSuffix(text, "]\n"))
	assert.Contains(t, text, `"name": "Café <Especial> & Co"`)
	assert.Contains(t, text, `"origin": null`)
	assert.Contains(t, text, `"unit_price_converted_per_kg": 31.31`)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, path, latest)

	raw, err := store.Read(context.Background(), latest)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "Café <Especial> & Co", raw[0]["name"])
	assert.Equal(t, 31.31, raw[0]["unit_price_converted_per_kg"])
	assert.Equal(t, "Washed", raw[0]["process"])
}

func TestStore_WriteEmpty(t *testing.T) {
	store := NewStore(silentLogger(), t.TempDir())

	path, err := store.Write(context.Background(), nil, time.Now())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestStore_LatestWithoutCatalog(t *testing.T) {
	_, err := NewStore(silentLogger(), t.TempDir()).Latest()
	assert.True(t, rberrors.IsNoData(err))
}

func TestStore_ReadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged_coffee_data_20260301_090507.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := NewStore(silentLogger(), dir).Read(context.Background(), path)
	assert.True(t, rberrors.Is(err, rberrors.KindSourceLoad))
}
