package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartEntry is one product line in the cart.
type CartEntry struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Price  Money  `json:"price"`
	Image  string `json:"image"`
	Amount int    `json:"amount"`
}

// Subtotal returns price times amount.
func (e CartEntry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Amount)))
}

// CartList is the ordered list of entries, in first-add order. It holds at
// most one entry per product ID.
type CartList []CartEntry

// FindIndex returns the index of the entry for productID, or -1.
func (l CartList) FindIndex(productID int64) int {
	for i := range l {
		if l[i].ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy. The clone of a nil list is empty,
// not nil, so it encodes as [].
func (l CartList) Clone() CartList {
	out := make(CartList, len(l))
	copy(out, l)
	return out
}

// Validate reports the first entry that breaks the list's shape: a
// non-positive or repeated product ID, or an amount below 1.
func (l CartList) Validate() error {
	seen := make(map[int64]struct{}, len(l))
	for i, e := range l {
		if e.ID <= 0 {
			return fmt.Errorf("entry %d: invalid product id %d", i, e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("entry %d: duplicate product %d", i, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Amount < 1 {
			return fmt.Errorf("entry %d: product %d has amount %d", i, e.ID, e.Amount)
		}
	}
	return nil
}

// Size is the number of distinct products.
func (l CartList) Size() int {
	return len(l)
}

// AmountByProduct maps product ID to the amount in the cart.
func (l CartList) AmountByProduct() map[int64]int {
	out := make(map[int64]int, len(l))
	for _, e := range l {
		out[e.ID] = e.Amount
	}
	return out
}

// Total sums the subtotals of every entry.
func (l CartList) Total() Money {
	total := decimal.Zero
	for _, e := range l {
		total = total.Add(e.Subtotal())
	}
	return NewMoney(total)
}

// NewEntry builds an entry with amount 1 from a catalog product.
func NewEntry(p Product) CartEntry {
	return CartEntry{
		ID:     p.ID,
		Title:  p.Title,
		Price:  p.Price,
		Image:  p.Image,
		Amount: 1,
	}
}
