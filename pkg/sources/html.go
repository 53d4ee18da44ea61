package sources

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/normalizers"
)

// Card selectors used by the supplier storefronts, most specific first
var productSelectors = []string{
	"li.product-item",
	".product-item",
	".product-card",
	".grid-view-item",
	".grid__item .product",
	"article.grid__item",
	".grid__item",
}

var nameSelectors = []string{
	".product-item-link",
	".product-name",
	".product-title",
	".product-item__title",
	".product-card__title",
	".grid-product__title",
	".card__heading",
	"h2", "h3", "h4",
	"a",
}

var priceSelectors = []string{
	".price-container .price",
	".price__current",
	".price-item--regular",
	".product-price",
	".money",
	".price",
}

// navigation links that storefront grids sometimes render as cards
var ignoredNames = map[string]bool{"shop all": true, "home": true, "menu": true, "cart": true}

// ParseProductPage extracts product cards from a saved storefront page. The first card
// selector that matches anything is used. Records carry name, supplier, price, url and,
// when found in the card text, origin and weight.
func ParseProductPage(r io.Reader, supplier string) ([]models.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var cards *goquery.Selection
	for _, selector := range productSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			cards = found
			break
		}
	}

	records := []models.RawRecord{}
	if cards == nil {
		return records, nil
	}

	cards.Each(func(_ int, card *goquery.Selection) {
		nameSel := firstMatch(card, nameSelectors)
		name := strings.TrimSpace(firstLine(card.Text()))
		if nameSel != nil {
			name = strings.TrimSpace(nameSel.Text())
		}
		if name == "" || ignoredNames[strings.ToLower(name)] {
			return
		}

		record := models.RawRecord{
			models.FieldName:     name,
			models.FieldSupplier: supplier,
			models.FieldCurrency: models.DefaultCurrency,
		}

		if priceSel := firstMatch(card, priceSelectors); priceSel != nil {
			if text := strings.TrimSpace(priceSel.Text()); text != "" {
				record[models.FieldPrice] = text
			}
		}

		href, ok := "", false
		if nameSel != nil {
			href, ok = nameSel.Attr("href")
		}
		if !ok {
			href, ok = card.Find("a[href]").First().Attr("href")
		}
		if ok && href != "" {
			record[models.FieldURL] = href
		}

		for _, origin := range normalizers.KnownOrigins {
			if strings.Contains(name, origin) {
				record[models.FieldOrigin] = origin
				break
			}
		}

		if weight, ok := normalizers.ParseWeight(name); ok {
			record[models.FieldWeight] = weight
		} else if weight, ok := normalizers.ParseWeight(card.Text()); ok {
			record[models.FieldWeight] = weight
		}

		records = append(records, record)
	})

	return records, nil
}

func firstMatch(card *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := card.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
