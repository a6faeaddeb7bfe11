package bom

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

// TestFlattenPreOrder checks the row order, levels and ancestor paths for a
// small two-branch tree.
func TestFlattenPreOrder(t *testing.T) {
	s := newTestStore(t, "root", "A", "B", "C")
	s.AddEdge(edge("root", "A", 2))
	s.AddEdge(edge("A", "B", 3))
	s.AddEdge(edge("root", "C", 1))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	rows := Flatten(res.Root)

	wantItems := []string{"root", "A", "B", "C"}
	if len(rows) != len(wantItems) {
		t.Fatalf("rows = %d, want %d", len(rows), len(wantItems))
	}
	for i, want := range wantItems {
		if rows[i].ItemID != want {
			t.Fatalf("row %d = %s, want %s", i, rows[i].ItemID, want)
		}
	}

	if len(rows[0].Path) != 0 || rows[0].Level != 0 {
		t.Fatalf("root row: path=%v level=%d", rows[0].Path, rows[0].Level)
	}
	b := rows[2]
	if !pathEqual(b.Path, []string{"root", "A"}) {
		t.Fatalf("B path = %v, want [root A]", b.Path)
	}
	if b.Level != 2 {
		t.Fatalf("B level = %d, want 2", b.Level)
	}
	wantQty(t, b.Cumulative, 6)
}

// TestFlattenNoSilentMerge: two duplicate rows for the same child stay two
// FlatRequirement records with quantity 1 each, never one record with 2.
func TestFlattenNoSilentMerge(t *testing.T) {
	s := newTestStore(t, "root", "childX")
	s.AddEdge(scoped(edge("root", "childX", 1), "cust-a", ""))
	s.AddEdge(scoped(edge("root", "childX", 1), "cust-a", ""))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{CustomerID: "cust-a"}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	rows := Flatten(res.Root)

	var hits int
	for _, r := range rows {
		if r.ItemID == "childX" {
			hits++
			wantQty(t, r.Cumulative, 1)
		}
	}
	if hits != 2 {
		t.Fatalf("childX rows = %d, want 2 separate records", hits)
	}
}

// TestAggregateByItemOptIn: totals-by-item is a separate, explicitly
// requested view on top of the unmerged rows.
func TestAggregateByItemOptIn(t *testing.T) {
	s := newTestStore(t, "root", "X", "Y")
	s.AddEdge(edge("root", "X", 1))
	s.AddEdge(edge("root", "X", 1))
	s.AddEdge(edge("root", "Y", 5))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	rows := Flatten(res.Root)

	agg := AggregateByItem(rows[1:]) // skip the root row
	if len(agg) != 2 {
		t.Fatalf("aggregated items = %d, want 2", len(agg))
	}
	if agg[0].ItemID != "X" || agg[0].Occurrences != 2 {
		t.Fatalf("X aggregate = %+v", agg[0])
	}
	if !agg[0].Quantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("X total = %s, want 2", agg[0].Quantity)
	}
	if agg[1].ItemID != "Y" || agg[1].Occurrences != 1 {
		t.Fatalf("Y aggregate = %+v", agg[1])
	}
}

// TestFlattenDecimalPrecision: fractional quantities must not drift across
// levels the way binary floats would.
func TestFlattenDecimalPrecision(t *testing.T) {
	s := newTestStore(t, "root", "A", "B")
	s.AddEdge(edge("root", "A", 0.1))
	s.AddEdge(edge("A", "B", 3))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	b := findNode(res.Root, "B")
	want := decimal.RequireFromString("0.3")
	if !b.Cumulative.Equal(want) {
		t.Fatalf("cumulative = %s, want 0.3 exactly", b.Cumulative)
	}
}

func TestFlattenNilTree(t *testing.T) {
	if rows := Flatten(nil); rows != nil {
		t.Fatalf("Flatten(nil) = %v, want nil", rows)
	}
}

// TestFlattenCarriesFlags: cycle/truncation markers survive flattening so
// reporting layers can render flagged rows.
func TestFlattenCarriesFlags(t *testing.T) {
	s := newTestStore(t, "root", "A")
	s.AddEdge(edge("root", "A", 1))
	s.AddEdge(edge("A", "root", 1))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	rows := Flatten(res.Root)

	var flagged bool
	for _, r := range rows {
		if r.ItemID == "root" && r.Level == 2 && r.Cycle {
			flagged = true
		}
	}
	if !flagged {
		t.Fatalf("cycle flag lost in flattening: %+v", rows)
	}
}
