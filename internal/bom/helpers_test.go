package bom

import (
	"fmt"
	"testing"

	"github.com/bitfantasy/nimo-bom/internal/model/entity"
	"github.com/shopspring/decimal"
)

// newTestStore builds a MemoryStore pre-loaded with the given item ids.
func newTestStore(t *testing.T, itemIDs ...string) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	for _, id := range itemIDs {
		s.AddItem(entity.Item{
			ID:       id,
			Code:     "CODE-" + id,
			Name:     "Item " + id,
			Category: entity.ItemCategoryRawMaterial,
			Unit:     "pcs",
			Status:   entity.ItemStatusActive,
		})
	}
	return s
}

var edgeSeq int

// edge builds an active test edge with an auto-assigned id and sequence.
func edge(parent, child string, qty float64) entity.BOMEdge {
	edgeSeq++
	return entity.BOMEdge{
		ID:           fmt.Sprintf("e%03d", edgeSeq),
		ParentItemID: parent,
		ChildItemID:  child,
		Quantity:     decimal.NewFromFloat(qty),
		Sequence:     edgeSeq,
		Active:       true,
	}
}

func scoped(e entity.BOMEdge, customerID, supplierID string) entity.BOMEdge {
	e.CustomerID = customerID
	e.SupplierID = supplierID
	return e
}

func wantQty(t *testing.T, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("quantity = %s, want %d", got, want)
	}
}

// collect walks the tree pre-order and returns item ids in visit order.
func collect(root *ExplodedNode) []string {
	if root == nil {
		return nil
	}
	out := []string{root.ItemID}
	for _, c := range root.Children {
		out = append(out, collect(c)...)
	}
	return out
}

// findNode returns the first node for the item id in pre-order, or nil.
func findNode(root *ExplodedNode, itemID string) *ExplodedNode {
	if root == nil {
		return nil
	}
	if root.ItemID == itemID {
		return root
	}
	for _, c := range root.Children {
		if n := findNode(c, itemID); n != nil {
			return n
		}
	}
	return nil
}
