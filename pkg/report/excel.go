package report

import (
	"strconv"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	overviewSheet = "Overview"
	// maxSheetName is Excel's sheet name length limit
	maxSheetName = 31
	maxColWidth  = 50
)

var sheetNameReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// WriteExcel saves an overview sheet and one sheet per origin to path
func WriteExcel(path string, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return pkgerrors.Wrap(err, "failed to name overview sheet")
	}
	overview := [][]any{{"Origin", "Products", "Average unit price (" + r.Meta.Currency + "/kg)"}}
	for _, o := range r.Origins {
		var avg any
		if o.Average != nil {
			avg = *o.Average
		}
		overview = append(overview, []any{o.Origin, len(o.Records), avg})
	}
	if err := writeRows(f, overviewSheet, overview); err != nil {
		return err
	}

	used := map[string]bool{strings.ToLower(overviewSheet): true}
	for _, o := range r.Origins {
		name := SheetName(o.Origin, used)
		if _, err := f.NewSheet(name); err != nil {
			return pkgerrors.Wrapf(err, "failed to create sheet %s", name)
		}

		rows := [][]any{{"Supplier", "Product", "Unit price (" + r.Meta.Currency + "/kg)", "URL", "Updated"}}
		for _, rec := range o.Records {
			var unit any
			if rec.UnitPriceConvertedPerKg != nil {
				unit = *rec.UnitPriceConvertedPerKg
			}
			rows = append(rows, []any{rec.Supplier, rec.Name, unit, rec.URL, rec.UpdatedAt})
		}
		if err := writeRows(f, name, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return pkgerrors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

// SheetName makes an origin usable as a unique sheet name
func SheetName(origin string, used map[string]bool) string {
	base := truncate(strings.TrimSpace(sheetNameReplacer.Replace(origin)), maxSheetName)
	if base == "" {
		base = "Sheet"
	}
	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := " " + strconv.Itoa(i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	widths := map[int]int{}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return pkgerrors.Wrapf(err, "failed to write row %d of %s", i+1, sheet)
		}
		for col, v := range row {
			if s, ok := v.(string); ok && utf8.RuneCountInString(s)+2 > widths[col] {
				widths[col] = utf8.RuneCountInString(s) + 2
			}
		}
	}
	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(min(width, maxColWidth))); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
