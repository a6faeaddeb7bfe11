package bom

import (
	"github.com/bitfantasy/nimo-bom/internal/model/entity"
	"github.com/shopspring/decimal"
)

// FlatRequirement 扁平化后的一行用料需求。
// Path 为从根到直接父件的品目ID链，用于追溯数量来源。
// 同一品目在树中不同位置各生成一行，保持行项独立，永不合并。
type FlatRequirement struct {
	ItemID     string          `json:"item_id"`
	Item       *entity.Item    `json:"item,omitempty"`
	EdgeID     string          `json:"edge_id,omitempty"`
	Level      int             `json:"level"`
	Quantity   decimal.Decimal `json:"quantity"`
	Cumulative decimal.Decimal `json:"cumulative"`
	Path       []string        `json:"path"`
	Cycle      bool            `json:"cycle,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
}

// Flatten 先序遍历展开树，每个节点生成一行（含根节点，Level=0）。
func Flatten(root *ExplodedNode) []FlatRequirement {
	if root == nil {
		return nil
	}

	type frame struct {
		node *ExplodedNode
		path []string
	}
	var rows []FlatRequirement
	stack := []frame{{node: root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rows = append(rows, FlatRequirement{
			ItemID:     f.node.ItemID,
			Item:       f.node.Item,
			EdgeID:     f.node.EdgeID,
			Level:      f.node.Level,
			Quantity:   f.node.Quantity,
			Cumulative: f.node.Cumulative,
			Path:       f.path,
			Cycle:      f.node.Cycle,
			Truncated:  f.node.Truncated,
		})

		if len(f.node.Children) == 0 {
			continue
		}
		childPath := make([]string, 0, len(f.path)+1)
		childPath = append(childPath, f.path...)
		childPath = append(childPath, f.node.ItemID)
		// 倒序压栈保持先序输出
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], path: childPath})
		}
	}
	return rows
}

// AggregatedRequirement 按品目汇总的合计行
type AggregatedRequirement struct {
	ItemID      string          `json:"item_id"`
	Item        *entity.Item    `json:"item,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"` // 各行累乘用量之和
	Occurrences int             `json:"occurrences"`
}

// AggregateByItem 显式的按品目合计视图，按首次出现顺序输出。
// 默认输出（Flatten 的行集）保持行项独立，本视图只在调用方明确请求时使用；
// 传入哪些行就汇总哪些行，需要排除根行时由调用方自行切片。
func AggregateByItem(rows []FlatRequirement) []AggregatedRequirement {
	index := make(map[string]int)
	var out []AggregatedRequirement
	for _, row := range rows {
		if i, ok := index[row.ItemID]; ok {
			out[i].Quantity = out[i].Quantity.Add(row.Cumulative)
			out[i].Occurrences++
			continue
		}
		index[row.ItemID] = len(out)
		out = append(out, AggregatedRequirement{
			ItemID:      row.ItemID,
			Item:        row.Item,
			Quantity:    row.Cumulative,
			Occurrences: 1,
		})
	}
	return out
}
