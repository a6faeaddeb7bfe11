package bom

import (
	"context"
	"sort"
	"sync"

	"github.com/bitfantasy/nimo-bom/internal/model/entity"
)

// ScopeFilter BOM变体范围过滤。空字段表示不限制（全局视图）。
// 边上的空 customer/supplier 是通配，匹配任意过滤值；
// ExactOnly 时通配边不再匹配非空过滤值，空过滤值只匹配通配边。
type ScopeFilter struct {
	CustomerID string `json:"customer_id"`
	SupplierID string `json:"supplier_id"`
	ExactOnly  bool   `json:"exact_only"`
}

// Matches 判断边的范围是否与过滤条件兼容
func (f ScopeFilter) Matches(e entity.BOMEdge) bool {
	return matchScopeField(e.CustomerID, f.CustomerID, f.ExactOnly) &&
		matchScopeField(e.SupplierID, f.SupplierID, f.ExactOnly)
}

func matchScopeField(edgeVal, filterVal string, exact bool) bool {
	if filterVal == "" {
		if exact {
			return edgeVal == ""
		}
		return true
	}
	if edgeVal == filterVal {
		return true
	}
	return edgeVal == "" && !exact
}

// GraphStore BOM图只读接口。实现方只做过滤读取，不做环路检查或数量计算；
// 任何存储后端（关系库、内存map）实现该接口即可驱动展开/反查算法。
// 未知品目ID返回空集而非错误；存储故障包装为 ErrStorageUnavailable。
type GraphStore interface {
	// ItemByID 按ID读取品目，不存在时返回 ErrItemNotFound
	ItemByID(ctx context.Context, id string) (*entity.Item, error)
	// EdgesByParent 返回父件的有效边，按 sequence 稳定排序
	EdgesByParent(ctx context.Context, itemID string, filter ScopeFilter) ([]entity.BOMEdge, error)
	// EdgesByChild 返回子件的有效边（反查用）
	EdgesByChild(ctx context.Context, itemID string, filter ScopeFilter) ([]entity.BOMEdge, error)
	// Edges 返回范围内的全部有效边，供全图完整性校验使用
	Edges(ctx context.Context, filter ScopeFilter) ([]entity.BOMEdge, error)
}

// MemoryStore map实现的 GraphStore，用于测试和单机工具场景。
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]entity.Item
	edges []entity.BOMEdge
}

// NewMemoryStore 创建内存图存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]entity.Item)}
}

// AddItem 登记品目
func (s *MemoryStore) AddItem(item entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// AddEdge 追加边，保留插入顺序
func (s *MemoryStore) AddEdge(edge entity.BOMEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edge)
}

func (s *MemoryStore) ItemByID(ctx context.Context, id string) (*entity.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

func (s *MemoryStore) EdgesByParent(ctx context.Context, itemID string, filter ScopeFilter) ([]entity.BOMEdge, error) {
	return s.filtered(filter, func(e entity.BOMEdge) bool {
		return e.ParentItemID == itemID
	}), nil
}

func (s *MemoryStore) EdgesByChild(ctx context.Context, itemID string, filter ScopeFilter) ([]entity.BOMEdge, error) {
	return s.filtered(filter, func(e entity.BOMEdge) bool {
		return e.ChildItemID == itemID
	}), nil
}

func (s *MemoryStore) Edges(ctx context.Context, filter ScopeFilter) ([]entity.BOMEdge, error) {
	return s.filtered(filter, func(entity.BOMEdge) bool { return true }), nil
}

func (s *MemoryStore) filtered(filter ScopeFilter, keep func(entity.BOMEdge) bool) []entity.BOMEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.BOMEdge
	for _, e := range s.edges {
		if e.Active && keep(e) && filter.Matches(e) {
			out = append(out, e)
		}
	}
	// 稳定排序：sequence 相同时保持插入顺序
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out
}
