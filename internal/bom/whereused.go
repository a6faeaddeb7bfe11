package bom

import (
	"context"
	"fmt"

	"github.com/bitfantasy/nimo-bom/internal/model/entity"
)

// UsageNode 反查结果中的一个上级用途。
// Path 为从查询品目一路向上到该父件的品目ID链；
// Level 为距查询品目的层数，直接父件为1。
type UsageNode struct {
	ItemID    string       `json:"item_id"`
	Item      *entity.Item `json:"item,omitempty"`
	EdgeID    string       `json:"edge_id"`
	Level     int          `json:"level"`
	Path      []string     `json:"path"`
	Cycle     bool         `json:"cycle,omitempty"`
	Truncated bool         `json:"truncated,omitempty"`
}

// WhereUsedResult 反查结果。Uses 按发现顺序保留每个 (父件, 路径) 组合。
type WhereUsedResult struct {
	ItemID string       `json:"item_id"`
	Item   *entity.Item `json:"item,omitempty"`
	Uses   []UsageNode  `json:"uses"`
}

// AncestorIDs 去重后的上级品目ID集合，按发现顺序
func (r *WhereUsedResult) AncestorIDs() []string {
	seen := make(map[string]bool, len(r.Uses))
	var out []string
	for _, u := range r.Uses {
		if !seen[u.ItemID] {
			seen[u.ItemID] = true
			out = append(out, u.ItemID)
		}
	}
	return out
}

// WhereUsed 反查用途：沿子→父方向逐层上溯，找出消耗该品目的全部直接和
// 间接上级，直到范围内不再作为子件出现的根级品目为止。
// 与展开同样的防环纪律：路径上重复出现的品目标记 Cycle 后停止上溯；
// maxDepth 同样必填。数量不参与反查，数量异常的边也会列入受影响范围。
func WhereUsed(ctx context.Context, store GraphStore, itemID string, filter ScopeFilter, maxDepth int) (*WhereUsedResult, error) {
	if maxDepth <= 0 {
		return nil, ErrInvalidMaxDepth
	}

	item, err := store.ItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}
	result := &WhereUsedResult{ItemID: itemID, Item: item}

	startEdges, err := store.EdgesByChild(ctx, itemID, filter)
	if err != nil {
		return nil, fmt.Errorf("usages of %s: %w", itemID, err)
	}

	type frame struct {
		id    string
		level int
		path  []string
		edges []entity.BOMEdge
		next  int
	}
	stack := []frame{{id: itemID, path: []string{itemID}, edges: startEdges}}
	onPath := map[string]bool{itemID: true}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := &stack[len(stack)-1]
		if f.next >= len(f.edges) {
			stack = stack[:len(stack)-1]
			delete(onPath, f.id)
			continue
		}
		e := f.edges[f.next]
		f.next++

		parentItem, err := store.ItemByID(ctx, e.ParentItemID)
		if err != nil {
			return nil, fmt.Errorf("parent item %s of edge %s: %w", e.ParentItemID, e.ID, err)
		}

		use := UsageNode{
			ItemID: e.ParentItemID,
			Item:   parentItem,
			EdgeID: e.ID,
			Level:  f.level + 1,
			Path:   append(copyPath(f.path), e.ParentItemID),
		}

		if onPath[use.ItemID] {
			use.Cycle = true
			result.Uses = append(result.Uses, use)
			continue
		}

		parentEdges, err := store.EdgesByChild(ctx, use.ItemID, filter)
		if err != nil {
			return nil, fmt.Errorf("usages of %s: %w", use.ItemID, err)
		}

		if use.Level >= maxDepth {
			if len(parentEdges) > 0 {
				use.Truncated = true
			}
			result.Uses = append(result.Uses, use)
			continue
		}

		result.Uses = append(result.Uses, use)
		stack = append(stack, frame{
			id:    use.ItemID,
			level: use.Level,
			path:  use.Path,
			edges: parentEdges,
		})
		onPath[use.ItemID] = true
	}

	return result, nil
}
