package report

import (
	"fmt"
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"price": func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *p)
	},
	"rate": formatRate,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Green coffee prices</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h1 { color: #333; }
h2 { color: #0066cc; margin-top: 30px; }
table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
tr:nth-child(even) { background-color: #f9f9f9; }
.price { text-align: right; }
</style>
</head>
<body>
<h1>Green coffee prices</h1>
<p>Generated {{.Meta.GeneratedAt.Format "2006-01-02 15:04:05"}}{{if .Meta.RunID}} (run {{.Meta.RunID}}){{end}}</p>
<p>Exchange rate: 1 USD = {{rate .Meta.Rate}} {{.Meta.Currency}} ({{.Meta.RateSource}})</p>
{{- range .Origins}}
<h2>{{.Origin}} ({{len .Records}})</h2>
<table>
<tr><th>Supplier</th><th>Product</th><th class="price">Unit price ({{$.Meta.Currency}}/kg)</th><th>Updated</th></tr>
{{- range .Records}}
<tr>
<td>{{.Supplier}}</td>
<td>{{if .URL}}<a href="{{.URL}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</td>
<td class="price">{{price .UnitPriceConvertedPerKg}}</td>
<td>{{.UpdatedAt}}</td>
</tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

// WriteHTML writes one table per origin, cheapest unit price first
func WriteHTML(w io.Writer, r Report) error {
	return htmlTemplate.Execute(w, r)
}
