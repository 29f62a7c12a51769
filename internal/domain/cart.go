package domain

import "time"

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Lines     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartLine holds the price captured when the product was added. Title is
// joined from the catalog when the line is read.
type CartLine struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"product_id"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// Line finds the line with the given id.
func (c Cart) Line(id int64) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return CartLine{}, false
}

// SubtotalCents sums unit price times quantity over all lines.
func (c Cart) SubtotalCents() int64 {
	return SumLines(c.Lines)
}

func SumLines(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.UnitPriceCents * int64(l.Quantity)
	}
	return total
}
