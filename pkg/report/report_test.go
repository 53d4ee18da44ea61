package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Lion2cat/rawBeans/pkg/catalog"
	"github.com/Lion2cat/rawBeans/pkg/models"
)

func ptr(f float64) *float64 {
	return &f
}

func record(name, supplier, origin string, unit *float64) models.EnrichedRecord {
	return models.EnrichedRecord{
		Record:                  models.Record{Name: name, Supplier: supplier, Origin: origin, UpdatedAt: "2026-03-01"},
		UnitPriceConvertedPerKg: unit,
	}
}

func testReport() Report {
	meta := Meta{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Currency:    "CNY",
		Rate:        7.1,
		RateSource:  "fixed",
	}
	return Build(meta, []models.EnrichedRecord{
		record("Guji <Natural>", "Sweet Maria's", "Ethiopia", ptr(156.53)),
		record("Sidamo", "Genuine Origin", "Ethiopia", ptr(35.50)),
		record("Yirgacheffe", "Coffee Shrub", "Ethiopia", nil),
		record("Huila", "Coffee Shrub", "Colombia", nil),
		record("Mystery Lot", "Coffee Shrub", "", ptr(31.31)),
	})
}

func TestBuild(t *testing.T) {
	r := testReport()

	assert.Equal(t, 5, r.Total)
	require.Len(t, r.Origins, 3)

	assert.Equal(t, "Colombia", r.Origins[0].Origin)
	assert.Equal(t, 0, r.Origins[0].Priced)
	assert.Nil(t, r.Origins[0].Average)

	ethiopia := r.Origins[1]
	assert.Equal(t, 2, ethiopia.Priced)
	assert.Equal(t, ptr(96.02), ethiopia.Average)
	assert.Equal(t, "Sidamo", ethiopia.Cheapest.Name)
	assert.Equal(t, "Guji <Natural>", ethiopia.Dearest.Name)
	assert.Equal(t, "Yirgacheffe", ethiopia.Records[2].Name)

	assert.Equal(t, catalog.UnknownOrigin, r.Origins[2].Origin)
}

func TestBuild_TiesOrderedBySupplierThenName(t *testing.T) {
	r := Build(Meta{Currency: "CNY"}, []models.EnrichedRecord{
		record("Huila", "Sweet Maria's", "Colombia", ptr(40)),
		record("Tolima", "Coffee Shrub", "Colombia", nil),
		record("Cauca", "Coffee Shrub", "Colombia", ptr(40)),
		record("Aponte", "Coffee Shrub", "Colombia", nil),
		record("Nariño", "Coffee Shrub", "Colombia", ptr(38)),
	})

	require.Len(t, r.Origins, 1)
	names := []string{}
	for _, rec := range r.Origins[0].Records {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"Nariño", "Cauca", "Huila", "Aponte", "Tolima"}, names)
	assert.Equal(t, "Nariño", r.Origins[0].Cheapest.Name)
	assert.Equal(t, "Cauca", r.Origins[0].Dearest.Name)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, testReport()))
	text := buf.String()

	assert.Contains(t, text, "Exchange rate: 1 USD = 7.1 CNY (fixed)")
	assert.Contains(t, text, "Ethiopia (3 products):\n  Average unit price: CNY 96.02/kg\n")
	assert.Contains(t, text, "  Lowest unit price: CNY 35.50/kg - Sidamo (Genuine Origin)")
	assert.Contains(t, text, "  Highest unit price: CNY 156.53/kg - Guji <Natural> (Sweet Maria's)")
	assert.NotContains(t, text, "Colombia")
	assert.Less(t, strings.Index(text, "Ethiopia"), strings.Index(text, catalog.UnknownOrigin))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, testReport()))
	html := buf.String()

	assert.Contains(t, html, "<h2>Colombia (1)</h2>")
	assert.Contains(t, html, "Guji &lt;Natural&gt;")
	assert.Contains(t, html, `<td class="price">35.50</td>`)
	assert.Contains(t, html, `<td class="price">-</td>`)
	assert.Contains(t, html, "(run run-1)")
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{"overview": true}

	assert.Equal(t, "Papua New Guinea", SheetName("Papua New Guinea", used))
	assert.Equal(t, "Kenya AA (Top)", SheetName("Kenya AA [Top]", used))
	assert.Equal(t, "A very long origin name that ex", SheetName("A very long origin name that exceeds the limit", used))
	assert.Equal(t, "A very long origin name that 2", SheetName("A very long origin name that exceeds the limit too", used))
	assert.Equal(t, "overview 2", SheetName("overview", used))
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), dir)

	files, err := writer.Write(context.Background(), testReport(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "coffee_report_20260301_090000.txt"), files.Text)
	for _, path := range []string{files.Text, files.HTML, files.Excel} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	f, err := excelize.OpenFile(files.Excel)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "Colombia", "Ethiopia", catalog.UnknownOrigin}, f.GetSheetList())

	rows, err := f.GetRows("Ethiopia")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Sidamo", rows[1][1])
	assert.Equal(t, "35.5", rows[1][2])

	overview, err := f.GetRows("Overview")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ethiopia", "3", "96.02"}, overview[2])
}
