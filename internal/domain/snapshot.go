package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptSnapshot wraps every DecodeSnapshot failure.
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// Stock is the available quantity of a product as reported by the stock API.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// EncodeSnapshot serializes the cart as a JSON array of flat entry objects.
// A nil cart encodes as [].
func EncodeSnapshot(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses and validates a snapshot written by EncodeSnapshot
// (or by the storefront, which uses the same layout).
func DecodeSnapshot(data []byte) (Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrCorruptSnapshot)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return c, nil
}
