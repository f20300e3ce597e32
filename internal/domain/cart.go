package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Cart is a shopping cart owned either by an anonymous session or by a user.
// Total is derived from Items and only changes through the mutators below.
type Cart struct {
	ID          string     `json:"id"`
	SessionKey  *string    `json:"sessionId,omitempty"`
	UserKey     *int64     `json:"usuarioId,omitempty"`
	Items       []LineItem `json:"items"`
	Total       float64    `json:"total"`
	LastUpdated time.Time  `json:"ultimaActualizacion"`
	Version     int64      `json:"version"`
}

// LineItem is one product entry in a cart. UnitPrice is captured when the
// product is first added and is never refreshed afterwards.
type LineItem struct {
	ProductID string  `json:"productoId"`
	Label     string  `json:"nombre"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio"`
	Options   string  `json:"opciones,omitempty"`
}

// UnmarshalJSON accepts productoId as a string or as a number, since
// storefront clients send numeric catalog ids.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	type plain LineItem
	aux := struct {
		ProductID json.RawMessage `json:"productoId"`
		*plain
	}{plain: (*plain)(li)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ProductID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		li.ProductID = ""
	case raw[0] == '"':
		return json.Unmarshal(raw, &li.ProductID)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("productoId must be a string or a number: %w", err)
		}
		li.ProductID = n.String()
	}
	return nil
}

// NewSessionCart returns an empty cart owned by an anonymous session.
func NewSessionCart(sessionKey string, now time.Time) *Cart {
	key := sessionKey
	return &Cart{SessionKey: &key, Items: []LineItem{}, LastUpdated: now}
}

// NewUserCart returns an empty cart owned by an authenticated user.
func NewUserCart(userKey int64, now time.Time) *Cart {
	key := userKey
	return &Cart{UserKey: &key, Items: []LineItem{}, LastUpdated: now}
}

// AddItem merges item into the cart. A line for the same product gets its
// quantity increased and keeps its original label, price and options.
func (c *Cart) AddItem(item LineItem, now time.Time) {
	defer c.touch(now)
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			c.recomputeTotal()
			return
		}
	}
	c.Items = append(c.Items, item)
	c.recomputeTotal()
}

// RemoveItem drops every line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string, now time.Time) {
	kept := make([]LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.recomputeTotal()
	c.touch(now)
}

// SetQuantity overwrites the quantity of the first line for productID.
// Unknown products are ignored; the cart is still marked as updated.
func (c *Cart) SetQuantity(productID string, quantity int, now time.Time) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			break
		}
	}
	c.recomputeTotal()
	c.touch(now)
}

// Clear empties the cart while keeping its identity and owner keys.
func (c *Cart) Clear(now time.Time) {
	c.Items = []LineItem{}
	c.Total = 0
	c.touch(now)
}

// ItemCount returns the sum of all line quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// AssignUser moves ownership of the cart from its session to userKey.
func (c *Cart) AssignUser(userKey int64) {
	key := userKey
	c.UserKey = &key
	c.SessionKey = nil
}

// Clone returns a deep copy so callers never share line item storage.
func (c *Cart) Clone() *Cart {
	out := *c
	if c.SessionKey != nil {
		s := *c.SessionKey
		out.SessionKey = &s
	}
	if c.UserKey != nil {
		u := *c.UserKey
		out.UserKey = &u
	}
	out.Items = make([]LineItem, len(c.Items))
	copy(out.Items, c.Items)
	return &out
}

func (c *Cart) recomputeTotal() {
	total := 0.0
	for _, it := range c.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	c.Total = total
}

func (c *Cart) touch(now time.Time) {
	c.LastUpdated = now
}
