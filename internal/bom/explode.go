package bom

import (
	"context"
	"fmt"

	"github.com/bitfantasy/nimo-bom/internal/model/entity"
	"github.com/shopspring/decimal"
)

// ExplodedNode 展开树节点。构建后不再修改，直接交给扁平化处理。
// 根节点 Level=0，Quantity 与 Cumulative 均为 1。
type ExplodedNode struct {
	ItemID     string          `json:"item_id"`
	Item       *entity.Item    `json:"item,omitempty"`
	EdgeID     string          `json:"edge_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`   // 相对直接父件的单件用量
	Cumulative decimal.Decimal `json:"cumulative"` // 根到该节点的用量累乘
	Level      int             `json:"level"`
	Cycle      bool            `json:"cycle,omitempty"`     // 品目已在当前路径上，分支就地截断
	Truncated  bool            `json:"truncated,omitempty"` // 达到深度上限，下层未展开
	Children   []*ExplodedNode `json:"children,omitempty"`
}

// Problem 展开过程中记录的数据质量问题。
// 只做标注不中断调用：单条坏边不应阻止其余分支的展开。
type Problem struct {
	Kind   string   `json:"kind"`
	EdgeID string   `json:"edge_id,omitempty"`
	ItemID string   `json:"item_id"`
	Path   []string `json:"path"`
}

// Problem 类型
const (
	ProblemCycle           = "cycle"
	ProblemInvalidQuantity = "invalid_quantity"
)

// ExplodeResult 展开结果：完整树加问题标注
type ExplodeResult struct {
	Root     *ExplodedNode `json:"root"`
	Problems []Problem     `json:"problems,omitempty"`
}

// Explode 从根品目沿父→子方向展开多级BOM树。
// 显式栈深搜，不用语言递归，防止畸形数据打穿调用栈。
// 数量非正的边跳过并记录标注；路径上重复出现的品目标记 Cycle 后截断该分支，
// 兄弟分支继续展开（读路径必须独立防环，不依赖写路径校验）。
// maxDepth 为必填安全参数，到达上限且仍有下层时节点标记 Truncated。
// 同一父件下的重复边生成各自独立的子节点，永不合并数量。
func Explode(ctx context.Context, store GraphStore, rootItemID string, filter ScopeFilter, maxDepth int) (*ExplodeResult, error) {
	if maxDepth <= 0 {
		return nil, ErrInvalidMaxDepth
	}

	rootItem, err := store.ItemByID(ctx, rootItemID)
	if err != nil {
		return nil, fmt.Errorf("root item %s: %w", rootItemID, err)
	}

	one := decimal.NewFromInt(1)
	root := &ExplodedNode{
		ItemID:     rootItemID,
		Item:       rootItem,
		Quantity:   one,
		Cumulative: one,
	}
	result := &ExplodeResult{Root: root}

	rootEdges, err := store.EdgesByParent(ctx, rootItemID, filter)
	if err != nil {
		return nil, fmt.Errorf("edges of %s: %w", rootItemID, err)
	}

	type frame struct {
		node  *ExplodedNode
		edges []entity.BOMEdge
		next  int
	}
	stack := []frame{{node: root, edges: rootEdges}}
	onPath := map[string]bool{rootItemID: true}
	path := []string{rootItemID}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := &stack[len(stack)-1]
		if f.next >= len(f.edges) {
			stack = stack[:len(stack)-1]
			delete(onPath, f.node.ItemID)
			path = path[:len(path)-1]
			continue
		}
		e := f.edges[f.next]
		f.next++

		if !e.Quantity.IsPositive() {
			result.Problems = append(result.Problems, Problem{
				Kind:   ProblemInvalidQuantity,
				EdgeID: e.ID,
				ItemID: e.ChildItemID,
				Path:   copyPath(path),
			})
			continue
		}

		childItem, err := store.ItemByID(ctx, e.ChildItemID)
		if err != nil {
			return nil, fmt.Errorf("child item %s of edge %s: %w", e.ChildItemID, e.ID, err)
		}

		child := &ExplodedNode{
			ItemID:     e.ChildItemID,
			Item:       childItem,
			EdgeID:     e.ID,
			Quantity:   e.Quantity,
			Cumulative: f.node.Cumulative.Mul(e.Quantity),
			Level:      f.node.Level + 1,
		}
		f.node.Children = append(f.node.Children, child)

		if onPath[child.ItemID] {
			child.Cycle = true
			result.Problems = append(result.Problems, Problem{
				Kind:   ProblemCycle,
				EdgeID: e.ID,
				ItemID: child.ItemID,
				Path:   append(copyPath(path), child.ItemID),
			})
			continue
		}

		childEdges, err := store.EdgesByParent(ctx, child.ItemID, filter)
		if err != nil {
			return nil, fmt.Errorf("edges of %s: %w", child.ItemID, err)
		}

		if child.Level >= maxDepth {
			if len(childEdges) > 0 {
				child.Truncated = true
			}
			continue
		}

		stack = append(stack, frame{node: child, edges: childEdges})
		onPath[child.ItemID] = true
		path = append(path, child.ItemID)
	}

	return result, nil
}

func copyPath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}
