package bom

import (
	"context"
	"fmt"

	"github.com/bitfantasy/nimo-bom/internal/model/entity"
)

// ValidateEdge 校验候选边加入后是否会在指定范围内引入环路。
// 从候选边的子件沿父→子方向深搜，凡能回到候选边的父件即为环路。
// 写路径必须在同一事务内先调用本函数再落库；返回 *CycleError 时调用方应拒绝写入。
// 自环（parent == child）无需特判，深搜起点即命中目标。
func ValidateEdge(ctx context.Context, store GraphStore, candidate entity.BOMEdge, filter ScopeFilter) error {
	target := candidate.ParentItemID

	visited := map[string]bool{candidate.ChildItemID: true}
	came := map[string]string{}
	stack := []string{candidate.ChildItemID}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == target {
			// 重建环路：parent -> child -> ... -> parent
			chain := []string{id}
			for cur := id; cur != candidate.ChildItemID; {
				cur = came[cur]
				chain = append(chain, cur)
			}
			cycle := []string{target}
			for i := len(chain) - 1; i >= 0; i-- {
				cycle = append(cycle, chain[i])
			}
			return &CycleError{Path: cycle}
		}

		edges, err := store.EdgesByParent(ctx, id, filter)
		if err != nil {
			return fmt.Errorf("read edges of %s: %w", id, err)
		}
		for _, e := range edges {
			if !visited[e.ChildItemID] {
				visited[e.ChildItemID] = true
				came[e.ChildItemID] = id
				stack = append(stack, e.ChildItemID)
			}
		}
	}
	return nil
}

// DetectCycle 对范围内的全部有效边做一次完整性校验。
// 白/灰/黑三色标记：灰色节点被再次到达即为环路，返回重建的环路路径；
// 无环时返回 (nil, nil)。已处理完的节点标黑，避免重复遍历。
func DetectCycle(ctx context.Context, store GraphStore, filter ScopeFilter) (*CycleError, error) {
	edges, err := store.Edges(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("read edge set: %w", err)
	}

	adj := make(map[string][]string)
	var nodes []string
	seen := map[string]bool{}
	for _, e := range edges {
		adj[e.ParentItemID] = append(adj[e.ParentItemID], e.ChildItemID)
		for _, id := range [2]string{e.ParentItemID, e.ChildItemID} {
			if !seen[id] {
				seen[id] = true
				nodes = append(nodes, id)
			}
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(nodes))

	type frame struct {
		id   string
		next int
	}

	for _, start := range nodes {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: start}}
		color[start] = gray
		path := []string{start}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			f := &stack[len(stack)-1]
			children := adj[f.id]
			if f.next >= len(children) {
				color[f.id] = black
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}
			child := children[f.next]
			f.next++

			switch color[child] {
			case gray:
				i := 0
				for ; path[i] != child; i++ {
				}
				cycle := append(append([]string{}, path[i:]...), child)
				return &CycleError{Path: cycle}, nil
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
				path = append(path, child)
			}
		}
	}
	return nil, nil
}
