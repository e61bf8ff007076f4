package cart

import (
	"github.com/google/uuid"
)

// Line is one product selection. Unit price is snapshotted when the line is
// added so totals stay stable while the buyer browses.
type Line struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
}

// Cart is the buyer's pending selection, ordered, one line per product.
type Cart struct {
	BuyerID uuid.UUID `json:"buyer_id"`
	Lines   []Line    `json:"lines"`
}

// Totals holds the derived cart aggregates, always recomputed from lines.
type Totals struct {
	TotalItems int   `json:"total_items"`
	TotalPrice int64 `json:"total_price"`
}

// Totals recomputes the aggregates from the current line set.
func (c *Cart) Totals() Totals {
	var t Totals
	for _, line := range c.Lines {
		t.TotalItems += line.Quantity
		t.TotalPrice += line.UnitPrice * int64(line.Quantity)
	}
	return t
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *Cart) findLine(productID uuid.UUID) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) removeLine(productID uuid.UUID) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}
