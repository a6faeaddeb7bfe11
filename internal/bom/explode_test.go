package bom

import (
	"context"
	"errors"
	"testing"
)

// TestExplodeQuantityRollup verifies cumulative quantity multiplication
// down a linear chain: root -> A (x2) -> B (x3).
func TestExplodeQuantityRollup(t *testing.T) {
	s := newTestStore(t, "root", "A", "B")
	s.AddEdge(edge("root", "A", 2))
	s.AddEdge(edge("A", "B", 3))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 10)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	wantQty(t, res.Root.Cumulative, 1)
	if res.Root.Level != 0 {
		t.Fatalf("root level = %d, want 0", res.Root.Level)
	}

	a := findNode(res.Root, "A")
	if a == nil {
		t.Fatal("node A missing")
	}
	wantQty(t, a.Cumulative, 2)
	if a.Level != 1 {
		t.Fatalf("A level = %d, want 1", a.Level)
	}

	b := findNode(res.Root, "B")
	if b == nil {
		t.Fatal("node B missing")
	}
	wantQty(t, b.Cumulative, 6)
	if b.Level != 2 {
		t.Fatalf("B level = %d, want 2", b.Level)
	}
	if len(res.Problems) != 0 {
		t.Fatalf("unexpected problems: %+v", res.Problems)
	}
}

// TestExplodeDuplicateEdgesNotMerged checks that two identical
// parent-child rows produce two distinct child nodes, never one summed node.
func TestExplodeDuplicateEdgesNotMerged(t *testing.T) {
	s := newTestStore(t, "root", "X")
	s.AddEdge(edge("root", "X", 1))
	s.AddEdge(edge("root", "X", 1))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(res.Root.Children) != 2 {
		t.Fatalf("children = %d, want 2 separate nodes", len(res.Root.Children))
	}
	for _, c := range res.Root.Children {
		wantQty(t, c.Cumulative, 1)
	}
}

// TestExplodeCycleDoesNotKillSiblings: a cycle in one branch must not
// prevent explosion of a clean sibling branch.
func TestExplodeCycleDoesNotKillSiblings(t *testing.T) {
	s := newTestStore(t, "root", "A", "B", "C")
	s.AddEdge(edge("root", "A", 1))
	s.AddEdge(edge("A", "B", 1))
	s.AddEdge(edge("B", "A", 1)) // back edge
	s.AddEdge(edge("root", "C", 4))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	c := findNode(res.Root, "C")
	if c == nil {
		t.Fatal("clean sibling C was dropped")
	}
	wantQty(t, c.Cumulative, 4)

	b := findNode(res.Root, "B")
	if b == nil {
		t.Fatal("node B missing")
	}
	if len(b.Children) != 1 || !b.Children[0].Cycle {
		t.Fatalf("expected cycle-flagged leaf under B, got %+v", b.Children)
	}
	if len(b.Children[0].Children) != 0 {
		t.Fatal("cycle node must not be expanded further")
	}

	found := false
	for _, p := range res.Problems {
		if p.Kind == ProblemCycle && p.ItemID == "A" {
			found = true
		}
	}
	if !found {
		t.Fatalf("cycle problem not recorded: %+v", res.Problems)
	}
}

// TestExplodeDepthTruncation: a 10-level chain exploded with maxDepth=3
// returns exactly 3 levels below root, the level-3 node marked truncated.
func TestExplodeDepthTruncation(t *testing.T) {
	ids := []string{"root", "L1", "L2", "L3", "L4", "L5", "L6", "L7", "L8", "L9", "L10"}
	s := newTestStore(t, ids...)
	for i := 0; i < len(ids)-1; i++ {
		s.AddEdge(edge(ids[i], ids[i+1], 1))
	}

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 3)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	l3 := findNode(res.Root, "L3")
	if l3 == nil {
		t.Fatal("level-3 node missing")
	}
	if !l3.Truncated {
		t.Fatal("level-3 node must be marked truncated")
	}
	if len(l3.Children) != 0 {
		t.Fatal("no node below the depth bound may be expanded")
	}
	if findNode(res.Root, "L4") != nil {
		t.Fatal("level-4 node must not be present")
	}
}

// TestExplodeLeafAtDepthBoundNotTruncated: a natural leaf sitting exactly
// at maxDepth has nothing cut off and must not carry the truncation flag.
func TestExplodeLeafAtDepthBoundNotTruncated(t *testing.T) {
	s := newTestStore(t, "root", "A", "B")
	s.AddEdge(edge("root", "A", 1))
	s.AddEdge(edge("A", "B", 1))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 2)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	b := findNode(res.Root, "B")
	if b == nil || b.Truncated {
		t.Fatalf("leaf at bound wrongly truncated: %+v", b)
	}
}

// TestExplodeScopeIsolation: an edge scoped to customer A must not appear
// in an explosion requested for customer B.
func TestExplodeScopeIsolation(t *testing.T) {
	s := newTestStore(t, "root", "A", "W")
	s.AddEdge(scoped(edge("root", "A", 1), "cust-a", ""))
	s.AddEdge(edge("root", "W", 1)) // wildcard scope

	res, err := Explode(context.Background(), s, "root", ScopeFilter{CustomerID: "cust-b"}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if findNode(res.Root, "A") != nil {
		t.Fatal("customer-a edge leaked into customer-b explosion")
	}
	if findNode(res.Root, "W") == nil {
		t.Fatal("wildcard edge must match any customer filter")
	}

	exact, err := Explode(context.Background(), s, "root", ScopeFilter{CustomerID: "cust-b", ExactOnly: true}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(exact.Root.Children) != 0 {
		t.Fatal("exact-only filter must exclude wildcard edges")
	}
}

// TestExplodeInvalidQuantitySkipped: a non-positive quantity excludes that
// single edge and is recorded, without aborting the traversal.
func TestExplodeInvalidQuantitySkipped(t *testing.T) {
	s := newTestStore(t, "root", "BAD", "OK")
	s.AddEdge(edge("root", "BAD", 0))
	s.AddEdge(edge("root", "OK", 2))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if findNode(res.Root, "BAD") != nil {
		t.Fatal("zero-quantity edge must be skipped")
	}
	if findNode(res.Root, "OK") == nil {
		t.Fatal("sibling of skipped edge was lost")
	}
	if len(res.Problems) != 1 || res.Problems[0].Kind != ProblemInvalidQuantity {
		t.Fatalf("invalid quantity not recorded: %+v", res.Problems)
	}
}

// TestExplodeSelfLoopFlagged: a self-referencing edge is tolerated and
// surfaces as a cycle-flagged child without special-casing.
func TestExplodeSelfLoopFlagged(t *testing.T) {
	s := newTestStore(t, "root")
	s.AddEdge(edge("root", "root", 1))

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 5)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(res.Root.Children) != 1 || !res.Root.Children[0].Cycle {
		t.Fatalf("self-loop not flagged: %+v", res.Root.Children)
	}
}

func TestExplodeUnknownRoot(t *testing.T) {
	s := newTestStore(t, "root")
	_, err := Explode(context.Background(), s, "missing", ScopeFilter{}, 5)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestExplodeRequiresDepthBound(t *testing.T) {
	s := newTestStore(t, "root")
	for _, depth := range []int{0, -1} {
		if _, err := Explode(context.Background(), s, "root", ScopeFilter{}, depth); !errors.Is(err, ErrInvalidMaxDepth) {
			t.Fatalf("maxDepth=%d: err = %v, want ErrInvalidMaxDepth", depth, err)
		}
	}
}

// TestExplodeDeterministicOrder: children expand in store order (sequence
// ascending), so repeated runs yield identical trees.
func TestExplodeDeterministicOrder(t *testing.T) {
	s := newTestStore(t, "root", "A", "B", "C")
	e1 := edge("root", "C", 1)
	e1.Sequence = 30
	e2 := edge("root", "A", 1)
	e2.Sequence = 10
	e3 := edge("root", "B", 1)
	e3.Sequence = 20
	s.AddEdge(e1)
	s.AddEdge(e2)
	s.AddEdge(e3)

	res, err := Explode(context.Background(), s, "root", ScopeFilter{}, 3)
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	got := collect(res.Root)
	want := []string{"root", "A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("visit order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visit order = %v, want %v", got, want)
		}
	}
}
