package report

import (
	"fmt"
	"io"
	"strings"
)

// WriteText writes the plain-text summary. Origins without any unit price are omitted.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder

	fmt.Fprintln(&b, "Green coffee price summary")
	fmt.Fprintf(&b, "Generated: %s\n", r.Meta.GeneratedAt.Format("2006-01-02 15:04:05"))
	if r.Meta.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.Meta.RunID)
	}
	fmt.Fprintf(&b, "Exchange rate: 1 USD = %s %s (%s)\n", formatRate(r.Meta.Rate), r.Meta.Currency, r.Meta.RateSource)
	fmt.Fprintf(&b, "Products: %d\n\n", r.Total)

	for _, o := range r.Origins {
		if o.Priced == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d products):\n", o.Origin, len(o.Records))
		fmt.Fprintf(&b, "  Average unit price: %s %.2f/kg\n", r.Meta.Currency, *o.Average)
		fmt.Fprintf(&b, "  Lowest unit price: %s %.2f/kg - %s (%s)\n",
			r.Meta.Currency, *o.Cheapest.UnitPriceConvertedPerKg, o.Cheapest.Name, o.Cheapest.Supplier)
		fmt.Fprintf(&b, "  Highest unit price: %s %.2f/kg - %s (%s)\n",
			r.Meta.Currency, *o.Dearest.UnitPriceConvertedPerKg, o.Dearest.Name, o.Dearest.Supplier)
		fmt.Fprintln(&b)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatRate(rate float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", rate), "0"), ".")
}
