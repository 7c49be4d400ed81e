package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

// Keys with a dedicated field on Product or CartEntry. Everything else the
// catalog returns is kept verbatim in Product.Attributes.
const (
	keyID     = "id"
	keyTitle  = "title"
	keyPrice  = "price"
	keyImage  = "image"
	keyAmount = "amount"
)

// ErrMissingID is returned when a product object has no usable id.
var ErrMissingID = errors.New("product id is missing")

// Product holds the display attributes of a catalog product.
type Product struct {
	ID    int64
	Title string
	Price decimal.NullDecimal
	Image string

	// Attributes carries any other catalog fields untouched.
	Attributes map[string]json.RawMessage

	// decoded is set by UnmarshalJSON and never mutated afterwards.
	decoded *decodedFields
}

// decodedFields remembers the modeled keys exactly as they were read, next to
// the typed values they produced. While a typed field still equals its
// decoded value, the original bytes are written back, so "price":"179.90" or
// "image":null survive a round trip.
type decodedFields struct {
	id    int64
	title string
	price decimal.NullDecimal
	image string
	raw   map[string]json.RawMessage
}

// MarshalJSON writes the product as one flat object.
func (p Product) MarshalJSON() ([]byte, error) {
	obj, err := p.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// UnmarshalJSON reads a flat product object. "amount" is never a product
// attribute and is dropped.
func (p *Product) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	delete(raw, keyAmount)
	return p.fromFields(raw)
}

func (p Product) fields() (map[string]json.RawMessage, error) {
	obj := make(map[string]json.RawMessage, len(p.Attributes)+4)
	maps.Copy(obj, p.Attributes)
	delete(obj, keyAmount)

	d := p.decoded
	if d == nil {
		d = &decodedFields{}
	}
	priceSame := p.Price.Valid == d.price.Valid && p.Price.Decimal.Equal(d.price.Decimal)
	modeled := []struct {
		key       string
		unchanged bool
		zero      bool
		value     func() ([]byte, error)
	}{
		{keyID, p.decoded != nil && p.ID == d.id, false, func() ([]byte, error) { return json.Marshal(p.ID) }},
		{keyTitle, p.Title == d.title, p.Title == "", func() ([]byte, error) { return json.Marshal(p.Title) }},
		// Bare JSON number, matching what the catalog sends.
		{keyPrice, priceSame, !p.Price.Valid, func() ([]byte, error) { return []byte(p.Price.Decimal.String()), nil }},
		{keyImage, p.Image == d.image, p.Image == "", func() ([]byte, error) { return json.Marshal(p.Image) }},
	}

	for _, m := range modeled {
		if m.unchanged {
			if v, ok := d.raw[m.key]; ok {
				obj[m.key] = v
				continue
			}
		}
		if m.zero {
			delete(obj, m.key)
			continue
		}
		v, err := m.value()
		if err != nil {
			return nil, err
		}
		obj[m.key] = v
	}
	return obj, nil
}

func (p *Product) fromFields(raw map[string]json.RawMessage) error {
	idRaw, ok := raw[keyID]
	if !ok || isNull(idRaw) {
		return ErrMissingID
	}

	var out Product
	if err := json.Unmarshal(idRaw, &out.ID); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	if v, ok := raw[keyTitle]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &out.Title); err != nil {
			return fmt.Errorf("product %d title: %w", out.ID, err)
		}
	}
	if v, ok := raw[keyPrice]; ok && !isNull(v) {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("product %d price: %w", out.ID, err)
		}
		out.Price = decimal.NewNullDecimal(d)
	}
	if v, ok := raw[keyImage]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &out.Image); err != nil {
			return fmt.Errorf("product %d image: %w", out.ID, err)
		}
	}

	d := &decodedFields{
		id:    out.ID,
		title: out.Title,
		price: out.Price,
		image: out.Image,
		raw:   make(map[string]json.RawMessage, 4),
	}
	for _, k := range []string{keyID, keyTitle, keyPrice, keyImage} {
		if v, ok := raw[k]; ok {
			d.raw[k] = v
			delete(raw, k)
		}
	}
	out.decoded = d
	if len(raw) > 0 {
		out.Attributes = raw
	}

	*p = out
	return nil
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	if p.Attributes != nil {
		attrs := make(map[string]json.RawMessage, len(p.Attributes))
		for k, v := range p.Attributes {
			attrs[k] = bytes.Clone(v)
		}
		p.Attributes = attrs
	}
	return p
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("expected a JSON object, got null")
	}
	return raw, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
