// Package seed loads a small demo catalog for manual testing.
package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type categoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type productWriter interface {
	UpsertBySKU(ctx context.Context, p domain.Product, stock int) (*domain.Product, error)
}

type productSeed struct {
	Category    string
	SKU         string
	Title       string
	Description string
	PriceCents  int64
	Stock       int
}

var catalog = []productSeed{
	{Category: "Apparel", SKU: "SKU-DEMO-TSHIRT", Title: "Demo T-Shirt", Description: "Soft cotton tee for demo purposes", PriceCents: 1999, Stock: 25},
	{Category: "Apparel", SKU: "SKU-DEMO-HOODIE", Title: "Demo Hoodie", Description: "Warm fleece hoodie", PriceCents: 4999, Stock: 10},
	{Category: "Kitchen", SKU: "SKU-DEMO-MUG", Title: "Demo Mug", Description: "Ceramic mug with demo logo", PriceCents: 1299, Stock: 40},
	{Category: "Kitchen", SKU: "SKU-DEMO-LAST", Title: "Last Unit Kettle", Description: "Only one in stock", PriceCents: 3500, Stock: 1},
}

// Apply upserts the demo catalog. Running it again resets titles, prices and
// stock to the seeded values.
func Apply(ctx context.Context, categories categoryWriter, products productWriter) (int, error) {
	ids := map[string]int64{}
	for _, p := range catalog {
		if _, ok := ids[p.Category]; !ok {
			c, err := categories.Upsert(ctx, domain.Category{Name: p.Category})
			if err != nil {
				return 0, fmt.Errorf("upsert category %s: %w", p.Category, err)
			}
			ids[p.Category] = c.ID
		}
	}

	for _, p := range catalog {
		catID := ids[p.Category]
		_, err := products.UpsertBySKU(ctx, domain.Product{
			CategoryID:  &catID,
			SKU:         p.SKU,
			Title:       p.Title,
			Description: p.Description,
			PriceCents:  p.PriceCents,
			IsActive:    true,
		}, p.Stock)
		if err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	return len(catalog), nil
}
