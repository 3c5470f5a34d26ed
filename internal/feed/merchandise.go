package feed

import (
	"context"
	"strings"
)

type Product struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ComingSoon  bool   `json:"comingSoon"`
}

// Two placeholder tiles always close the catalog grid.
func comingSoonPlaceholders() []Product {
	p := Product{Name: "More coming soon", Description: "More coming soon", Image: "/", ComingSoon: true}
	return []Product{p, p}
}

type Catalog struct {
	fetcher *Fetcher
	url     string
}

func NewCatalog(fetcher *Fetcher, url string) *Catalog {
	return &Catalog{fetcher: fetcher, url: url}
}

// Merchandise lists the sheet's products, dropping any "coming soon" rows in
// favour of the standard placeholders.
func (c *Catalog) Merchandise(ctx context.Context) ([]Product, error) {
	t, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return nil, err
	}
	return merchandiseFromTable(t), nil
}

func merchandiseFromTable(t *Table) []Product {
	var products []Product
	for _, rec := range t.Records() {
		p := Product{
			Name:        rec["name"],
			Price:       rec["price"],
			Description: rec["description"],
			Image:       rec["image"],
		}
		if strings.Contains(strings.ToLower(p.Name), "coming soon") {
			continue
		}
		products = append(products, p)
	}
	return append(products, comingSoonPlaceholders()...)
}
