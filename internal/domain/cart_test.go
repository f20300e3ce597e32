package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

var (
	t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
	t2 = t0.Add(2 * time.Minute)
)

func sumLines(c *Cart) float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

func assertInvariants(t *testing.T, c *Cart) {
	t.Helper()
	if math.Abs(c.Total-sumLines(c)) > 1e-9 {
		t.Fatalf("total %v does not match lines %v", c.Total, sumLines(c))
	}
	seen := map[string]bool{}
	for _, it := range c.Items {
		if seen[it.ProductID] {
			t.Fatalf("duplicate line for product %s: %+v", it.ProductID, c.Items)
		}
		seen[it.ProductID] = true
	}
}

func TestCartAddItemAppends(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Label: "Producto 1", Quantity: 2, UnitPrice: 100.0}, t1)

	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", c.Items)
	}
	if c.Total != 200.0 {
		t.Fatalf("expected total 200, got %v", c.Total)
	}
	if !c.LastUpdated.Equal(t1) {
		t.Fatalf("expected lastUpdated refreshed, got %v", c.LastUpdated)
	}
}

func TestCartAddItemMergeKeepsOriginalPrice(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Label: "Producto 1", Quantity: 2, UnitPrice: 100.0}, t1)
	c.AddItem(LineItem{ProductID: "p1", Label: "renamed", Quantity: 1, UnitPrice: 999.0, Options: "xl"}, t2)

	if len(c.Items) != 1 {
		t.Fatalf("expected a single line, got %+v", c.Items)
	}
	it := c.Items[0]
	if it.Quantity != 3 || it.UnitPrice != 100.0 || it.Label != "Producto 1" || it.Options != "" {
		t.Fatalf("unexpected merged line %+v", it)
	}
	if c.Total != 300.0 {
		t.Fatalf("expected total 300, got %v", c.Total)
	}
	if !c.LastUpdated.Equal(t2) {
		t.Fatalf("expected lastUpdated refreshed on merge")
	}
}

func TestCartAddItemAdditiveRoundTrip(t *testing.T) {
	c := NewUserCart(7, t0)
	c.AddItem(LineItem{ProductID: "P", Quantity: 2, UnitPrice: 1.5}, t1)
	c.AddItem(LineItem{ProductID: "P", Quantity: 3, UnitPrice: 1.5}, t1)
	if len(c.Items) != 1 || c.Items[0].Quantity != 5 {
		t.Fatalf("expected one line with quantity 5, got %+v", c.Items)
	}
	assertInvariants(t, c)
}

func TestCartAddItemAcceptsNonPositiveQuantity(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Quantity: 0, UnitPrice: 10}, t1)
	c.AddItem(LineItem{ProductID: "p2", Quantity: -2, UnitPrice: 10}, t1)
	if len(c.Items) != 2 || c.Items[1].Quantity != -2 {
		t.Fatalf("expected quantities passed through, got %+v", c.Items)
	}
	if c.Total != -20 {
		t.Fatalf("expected total -20, got %v", c.Total)
	}
}

func TestCartAddItemPreservesInsertionOrder(t *testing.T) {
	c := NewSessionCart("s1", t0)
	for _, id := range []string{"c", "a", "b"} {
		c.AddItem(LineItem{ProductID: id, Quantity: 1, UnitPrice: 1}, t1)
	}
	c.AddItem(LineItem{ProductID: "a", Quantity: 1, UnitPrice: 1}, t1)
	got := []string{c.Items[0].ProductID, c.Items[1].ProductID, c.Items[2].ProductID}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestCartRemoveItem(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Quantity: 2, UnitPrice: 100}, t0)
	c.AddItem(LineItem{ProductID: "p2", Quantity: 1, UnitPrice: 50}, t0)

	c.RemoveItem("p2", t1)

	if len(c.Items) != 1 || c.Items[0].ProductID != "p1" || c.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", c.Items)
	}
	if c.Total != 200.0 {
		t.Fatalf("expected total 200, got %v", c.Total)
	}
	if !c.LastUpdated.Equal(t1) {
		t.Fatalf("expected lastUpdated refreshed")
	}
}

func TestCartRemoveItemIdempotent(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Quantity: 2, UnitPrice: 100}, t0)
	c.AddItem(LineItem{ProductID: "p2", Quantity: 1, UnitPrice: 50}, t0)

	c.RemoveItem("p1", t1)
	once := c.Clone()
	c.RemoveItem("p1", t1)

	if len(c.Items) != len(once.Items) || c.Total != once.Total || c.Items[0] != once.Items[0] {
		t.Fatalf("second remove changed state: %+v vs %+v", c, once)
	}
	c.RemoveItem("missing", t2)
	assertInvariants(t, c)
}

func TestCartSetQuantity(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Quantity: 2, UnitPrice: 100}, t0)
	c.AddItem(LineItem{ProductID: "p2", Quantity: 1, UnitPrice: 50}, t0)

	c.SetQuantity("p2", 4, t1)
	if c.Items[1].Quantity != 4 || c.Total != 400 {
		t.Fatalf("unexpected cart after set: %+v", c)
	}
	if !c.LastUpdated.Equal(t1) {
		t.Fatalf("expected lastUpdated refreshed")
	}
}

func TestCartSetQuantityUnknownProductIsNoop(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Quantity: 2, UnitPrice: 100}, t0)

	c.SetQuantity("nope", 9, t2)

	if len(c.Items) != 1 || c.Items[0].Quantity != 2 || c.Total != 200 {
		t.Fatalf("expected no change, got %+v", c)
	}
	if !c.LastUpdated.Equal(t2) {
		t.Fatalf("expected lastUpdated refreshed even without match")
	}
}

func TestCartClear(t *testing.T) {
	c := NewUserCart(42, t0)
	c.ID = "cart-1"
	c.AddItem(LineItem{ProductID: "p1", Quantity: 2, UnitPrice: 100}, t0)

	c.Clear(t1)

	if len(c.Items) != 0 || c.Total != 0 {
		t.Fatalf("expected empty cart, got %+v", c)
	}
	if c.ID != "cart-1" || c.UserKey == nil || *c.UserKey != 42 || c.SessionKey != nil {
		t.Fatalf("identity changed: %+v", c)
	}
	if !c.LastUpdated.Equal(t1) {
		t.Fatalf("expected lastUpdated refreshed")
	}
}

func TestCartInvariantsOverOperationSequence(t *testing.T) {
	c := NewSessionCart("s1", t0)
	ops := []func(){
		func() { c.AddItem(LineItem{ProductID: "a", Quantity: 3, UnitPrice: 0.1}, t1) },
		func() { c.AddItem(LineItem{ProductID: "b", Quantity: 1, UnitPrice: 19.99}, t1) },
		func() { c.AddItem(LineItem{ProductID: "a", Quantity: 7, UnitPrice: 5}, t1) },
		func() { c.SetQuantity("b", 3, t1) },
		func() { c.AddItem(LineItem{ProductID: "c", Quantity: 2, UnitPrice: 0.3}, t1) },
		func() { c.RemoveItem("a", t1) },
		func() { c.SetQuantity("c", 11, t1) },
		func() { c.RemoveItem("zzz", t1) },
	}
	for _, op := range ops {
		op()
		assertInvariants(t, c)
	}
}

func TestCartCloneDoesNotShareItems(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AddItem(LineItem{ProductID: "p1", Quantity: 1, UnitPrice: 1}, t0)
	cp := c.Clone()
	cp.Items[0].Quantity = 99
	*cp.SessionKey = "other"
	if c.Items[0].Quantity != 1 || *c.SessionKey != "s1" {
		t.Fatalf("clone shares storage with original")
	}
}

func TestCartAssignUser(t *testing.T) {
	c := NewSessionCart("s1", t0)
	c.AssignUser(5)
	if c.SessionKey != nil || c.UserKey == nil || *c.UserKey != 5 {
		t.Fatalf("unexpected owner keys %+v", c)
	}
	if !c.LastUpdated.Equal(t0) {
		t.Fatalf("re-keying must not refresh lastUpdated")
	}
}

func TestLineItemAcceptsNumericProductID(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"productoId":3,"nombre":"Producto 3","cantidad":2,"precio":200}`, "3"},
		{`{"productoId":"p1","cantidad":1,"precio":100}`, "p1"},
		{`{"cantidad":1}`, ""},
	}
	for _, tc := range cases {
		var li LineItem
		if err := json.Unmarshal([]byte(tc.body), &li); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tc.body, err)
		}
		if li.ProductID != tc.want {
			t.Fatalf("Unmarshal(%s): productId %q, want %q", tc.body, li.ProductID, tc.want)
		}
	}

	var li LineItem
	if err := json.Unmarshal([]byte(`{"productoId":3,"nombre":"Producto 3","cantidad":2,"precio":200,"opciones":"xl"}`), &li); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if li.Label != "Producto 3" || li.Quantity != 2 || li.UnitPrice != 200 || li.Options != "xl" {
		t.Fatalf("other fields lost: %+v", li)
	}
	if err := json.Unmarshal([]byte(`{"productoId":true}`), &li); err == nil {
		t.Fatalf("expected error for a boolean productoId")
	}
}
