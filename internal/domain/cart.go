package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartEntry is a product in the cart together with its quantity.
type CartEntry struct {
	Product
	Amount int
}

// MarshalJSON writes the product attributes and amount as one flat object.
func (e CartEntry) MarshalJSON() ([]byte, error) {
	obj, err := e.Product.fields()
	if err != nil {
		return nil, err
	}
	if obj[keyAmount], err = json.Marshal(e.Amount); err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// UnmarshalJSON reads a flat entry object. A missing amount decodes as 0,
// which Cart.Validate rejects.
func (e *CartEntry) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}

	var amount int
	if v, ok := raw[keyAmount]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &amount); err != nil {
			return fmt.Errorf("entry amount: %w", err)
		}
	}
	delete(raw, keyAmount)

	var p Product
	if err := p.fromFields(raw); err != nil {
		return err
	}
	e.Product = p
	e.Amount = amount
	return nil
}

// Subtotal is price × amount, or zero when the price is unknown.
func (e CartEntry) Subtotal() decimal.Decimal {
	if !e.Price.Valid {
		return decimal.Zero
	}
	return e.Price.Decimal.Mul(decimal.NewFromInt(int64(e.Amount)))
}

// Cart is the ordered list of entries; order is insertion (display) order and
// product ids are unique.
type Cart []CartEntry

// FindIndex returns the position of the entry for productID.
func (c Cart) FindIndex(productID int64) (int, bool) {
	for i := range c {
		if c[i].ID == productID {
			return i, true
		}
	}
	return -1, false
}

// Size is the number of distinct products.
func (c Cart) Size() int {
	return len(c)
}

// ItemCount is the sum of all amounts.
func (c Cart) ItemCount() int {
	var n int
	for _, e := range c {
		n += e.Amount
	}
	return n
}

// Total is the sum of all subtotals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c {
		total = total.Add(e.Subtotal())
	}
	return total
}

// Clone returns a deep copy; mutating the copy never affects c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for i, e := range c {
		out[i] = CartEntry{Product: e.Product.Clone(), Amount: e.Amount}
	}
	return out
}

// Validate checks that every amount is at least 1 and ids are unique.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for i, e := range c {
		if e.Amount < 1 {
			return fmt.Errorf("entry %d (product %d): amount %d is not positive", i, e.ID, e.Amount)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("entry %d: duplicate product %d", i, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Summary holds the aggregate values shown next to the cart.
type Summary struct {
	Size      int             `json:"size"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Summary computes Size, ItemCount and Total in one pass.
func (c Cart) Summary() Summary {
	return Summary{Size: c.Size(), ItemCount: c.ItemCount(), Total: c.Total()}
}
