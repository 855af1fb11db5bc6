package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCartTotals(t *testing.T) {
	c := Cart{Items: []CartItem{
		{ProductID: "p1", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: "p2", Price: decimal.RequireFromString("5.50"), Quantity: 1},
	}}

	if got := c.ItemCount(); got != 3 {
		t.Fatalf("ItemCount = %d, want 3", got)
	}
	if got := c.Total(); !got.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("Total = %s, want 25.50", got)
	}
}

func TestCartTotalEmpty(t *testing.T) {
	var c Cart
	if got := c.Total(); !got.Equal(decimal.Zero) {
		t.Fatalf("Total = %s, want 0", got)
	}
	if got := c.ItemCount(); got != 0 {
		t.Fatalf("ItemCount = %d, want 0", got)
	}
}

func TestCartTotalAvoidsFloatDrift(t *testing.T) {
	// 0.1 * 3 is 0.30000000000000004 in binary floating point.
	c := Cart{Items: []CartItem{
		{ProductID: "p1", Price: decimal.RequireFromString("0.10"), Quantity: 3},
	}}
	if got := c.Total(); !got.Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("Total = %s, want 0.30", got)
	}
}

func TestCartItemLookup(t *testing.T) {
	c := Cart{Items: []CartItem{
		{ProductID: "p1", Name: "Tote", Quantity: 2},
	}}
	item, ok := c.Item("p1")
	if !ok || item.Name != "Tote" {
		t.Fatalf("Item(p1) = %+v, %v", item, ok)
	}
	if _, ok := c.Item("p2"); ok {
		t.Fatal("Item(p2) should be absent")
	}
}
