package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-bom/internal/bom"
	"github.com/bitfantasy/nimo-bom/internal/config"
	"github.com/bitfantasy/nimo-bom/internal/model/entity"
	"github.com/bitfantasy/nimo-bom/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cacheGenKey 图版本号，任何边变更后自增，旧版本缓存键自然失效
const cacheGenKey = "bom:graph:gen"

// BOMService BOM服务。读路径（展开/扁平化/反查/校验）是图快照上的纯函数，
// 可并发调用；写路径在事务内按范围加咨询锁，串行化"环路校验+落库"。
type BOMService struct {
	edgeRepo *repository.BOMEdgeRepository
	itemRepo *repository.ItemRepository
	db       *gorm.DB
	rdb      *redis.Client
	logger   *zap.Logger
	cfg      config.BOMConfig
}

// NewBOMService 创建BOM服务
func NewBOMService(
	edgeRepo *repository.BOMEdgeRepository,
	itemRepo *repository.ItemRepository,
	db *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
	cfg config.BOMConfig,
) *BOMService {
	return &BOMService{
		edgeRepo: edgeRepo,
		itemRepo: itemRepo,
		db:       db,
		rdb:      rdb,
		logger:   logger,
		cfg:      cfg,
	}
}

// clampDepth 深度上限保护：0取默认值，超过硬上限截到上限
func (s *BOMService) clampDepth(maxDepth int) int {
	if maxDepth <= 0 {
		maxDepth = s.cfg.DefaultMaxDepth
	}
	if s.cfg.MaxDepthLimit > 0 && maxDepth > s.cfg.MaxDepthLimit {
		maxDepth = s.cfg.MaxDepthLimit
	}
	return maxDepth
}

// Explode 展开多级BOM树
func (s *BOMService) Explode(ctx context.Context, rootItemID string, filter bom.ScopeFilter, maxDepth int) (*bom.ExplodeResult, error) {
	maxDepth = s.clampDepth(maxDepth)

	cacheKey := s.explodeCacheKey(ctx, rootItemID, filter, maxDepth)
	if cacheKey != "" {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var result bom.ExplodeResult
			if json.Unmarshal(cached, &result) == nil {
				return &result, nil
			}
		}
	}

	result, err := bom.Explode(ctx, s.edgeRepo, rootItemID, filter, maxDepth)
	if err != nil {
		return nil, err
	}
	for _, p := range result.Problems {
		s.logger.Warn("BOM data problem during explosion",
			zap.String("root_item_id", rootItemID),
			zap.String("kind", p.Kind),
			zap.String("item_id", p.ItemID),
			zap.String("edge_id", p.EdgeID),
			zap.Strings("path", p.Path),
		)
	}

	if cacheKey != "" {
		if data, err := json.Marshal(result); err == nil {
			s.rdb.Set(ctx, cacheKey, data, s.cfg.CacheTTL)
		}
	}
	return result, nil
}

// explodeCacheKey 返回带图版本号的缓存键；Redis不可用时返回空串跳过缓存
func (s *BOMService) explodeCacheKey(ctx context.Context, rootItemID string, filter bom.ScopeFilter, maxDepth int) string {
	if s.rdb == nil || s.cfg.CacheTTL <= 0 {
		return ""
	}
	gen, err := s.rdb.Get(ctx, cacheGenKey).Int64()
	if err != nil && err != redis.Nil {
		return ""
	}
	return fmt.Sprintf("bom:explode:%d:%s:%s:%t:%s:%d",
		gen, filter.CustomerID, filter.SupplierID, filter.ExactOnly, rootItemID, maxDepth)
}

// invalidateCache 写路径后递增图版本号
func (s *BOMService) invalidateCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, cacheGenKey).Err(); err != nil {
		s.logger.Warn("Failed to bump BOM cache generation", zap.Error(err))
	}
}

// FlattenResult 扁平化结果。Rows 保持行项独立；Totals 仅在显式请求汇总时返回。
type FlattenResult struct {
	Rows     []bom.FlatRequirement       `json:"rows"`
	Totals   []bom.AggregatedRequirement `json:"totals,omitempty"`
	Problems []bom.Problem               `json:"problems,omitempty"`
}

// Flatten 展开并扁平化为用料需求行。aggregate 为显式选择的按品目汇总视图，
// 汇总不含根行（根是被展开的对象，不是需求）。
func (s *BOMService) Flatten(ctx context.Context, rootItemID string, filter bom.ScopeFilter, maxDepth int, aggregate bool) (*FlattenResult, error) {
	exploded, err := s.Explode(ctx, rootItemID, filter, maxDepth)
	if err != nil {
		return nil, err
	}
	result := &FlattenResult{
		Rows:     bom.Flatten(exploded.Root),
		Problems: exploded.Problems,
	}
	if aggregate && len(result.Rows) > 1 {
		result.Totals = bom.AggregateByItem(result.Rows[1:])
	}
	return result, nil
}

// WhereUsed 反查品目的全部直接/间接上级用途
func (s *BOMService) WhereUsed(ctx context.Context, itemID string, filter bom.ScopeFilter, maxDepth int) (*bom.WhereUsedResult, error) {
	return bom.WhereUsed(ctx, s.edgeRepo, itemID, filter, s.clampDepth(maxDepth))
}

// Validate 对范围内全图做完整性校验，返回发现的环路（无环为nil）
func (s *BOMService) Validate(ctx context.Context, filter bom.ScopeFilter) (*bom.CycleError, error) {
	return bom.DetectCycle(ctx, s.edgeRepo, filter)
}

// ListEdges 父件的直接边列表（含停用，管理界面用）
func (s *BOMService) ListEdges(ctx context.Context, parentItemID string, filter bom.ScopeFilter) ([]entity.BOMEdge, error) {
	if _, err := s.itemRepo.FindByID(ctx, parentItemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, bom.ErrItemNotFound
		}
		return nil, err
	}
	return s.edgeRepo.ListByParent(ctx, parentItemID, filter)
}

// AddEdgeRequest 添加BOM边请求
type AddEdgeRequest struct {
	ParentItemID string          `json:"parent_item_id" binding:"required"`
	ChildItemID  string          `json:"child_item_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	CustomerID   string          `json:"customer_id"`
	SupplierID   string          `json:"supplier_id"`
	Sequence     *int            `json:"sequence"`
	Notes        string          `json:"notes"`
	Strict       bool            `json:"strict"`
}

// UpdateEdgeRequest 更新BOM边请求。父子品目不可改，改图结构请删旧建新。
type UpdateEdgeRequest struct {
	Quantity *decimal.Decimal `json:"quantity"`
	Sequence *int             `json:"sequence"`
	Notes    *string          `json:"notes"`
	Active   *bool            `json:"active"`
}

// scopeLockKey 咨询锁键：同范围的写互相串行，避免并发写各自通过校验后合谋成环
func scopeLockKey(customerID, supplierID string) string {
	return fmt.Sprintf("bom-edge:%s:%s", customerID, supplierID)
}

// AddEdge 添加BOM边。环路校验与落库在同一事务内完成，事务按范围持有
// Postgres 咨询锁。自环默认容忍（读取时标记），strict 时拒绝。
func (s *BOMService) AddEdge(ctx context.Context, userID string, req *AddEdgeRequest) (*entity.BOMEdge, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", req.Quantity)
	}

	if _, err := s.itemRepo.FindByID(ctx, req.ParentItemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("parent item %s: %w", req.ParentItemID, bom.ErrItemNotFound)
		}
		return nil, err
	}
	if _, err := s.itemRepo.FindByID(ctx, req.ChildItemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("child item %s: %w", req.ChildItemID, bom.ErrItemNotFound)
		}
		return nil, err
	}

	edge := &entity.BOMEdge{
		ParentItemID: req.ParentItemID,
		ChildItemID:  req.ChildItemID,
		Quantity:     req.Quantity,
		CustomerID:   req.CustomerID,
		SupplierID:   req.SupplierID,
		Active:       true,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}

	selfLoop := req.ParentItemID == req.ChildItemID
	if selfLoop && req.Strict {
		return nil, &bom.CycleError{Path: []string{req.ParentItemID, req.ChildItemID}}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))",
			scopeLockKey(req.CustomerID, req.SupplierID)).Error; err != nil {
			return fmt.Errorf("acquire scope lock: %w", err)
		}
		txRepo := s.edgeRepo.WithTx(tx)

		if !selfLoop {
			filter := bom.ScopeFilter{CustomerID: req.CustomerID, SupplierID: req.SupplierID}
			if err := bom.ValidateEdge(ctx, txRepo, *edge, filter); err != nil {
				return err
			}
		}

		if req.Sequence != nil {
			edge.Sequence = *req.Sequence
		} else {
			maxSeq, err := txRepo.GetMaxSequence(ctx, req.ParentItemID,
				bom.ScopeFilter{CustomerID: req.CustomerID, SupplierID: req.SupplierID})
			if err != nil {
				return err
			}
			edge.Sequence = maxSeq + 10
		}

		return txRepo.Create(ctx, edge)
	})
	if err != nil {
		return nil, err
	}

	if selfLoop {
		s.logger.Warn("Self-referencing BOM edge created",
			zap.String("item_id", req.ParentItemID),
			zap.String("edge_id", edge.ID),
		)
	}

	s.invalidateCache(ctx)
	return edge, nil
}

// UpdateEdge 更新BOM边。重新启用停用边会把该边重新引入图，需重走环路校验。
func (s *BOMService) UpdateEdge(ctx context.Context, id string, req *UpdateEdgeRequest) (*entity.BOMEdge, error) {
	edge, err := s.edgeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if !req.Quantity.IsPositive() {
			return nil, fmt.Errorf("quantity must be positive, got %s", req.Quantity)
		}
		edge.Quantity = *req.Quantity
	}
	if req.Sequence != nil {
		edge.Sequence = *req.Sequence
	}
	if req.Notes != nil {
		edge.Notes = *req.Notes
	}

	reactivating := req.Active != nil && *req.Active && !edge.Active
	if req.Active != nil {
		edge.Active = *req.Active
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))",
			scopeLockKey(edge.CustomerID, edge.SupplierID)).Error; err != nil {
			return fmt.Errorf("acquire scope lock: %w", err)
		}
		txRepo := s.edgeRepo.WithTx(tx)

		if reactivating && edge.ParentItemID != edge.ChildItemID {
			filter := bom.ScopeFilter{CustomerID: edge.CustomerID, SupplierID: edge.SupplierID}
			if err := bom.ValidateEdge(ctx, txRepo, *edge, filter); err != nil {
				return err
			}
		}
		return txRepo.Update(ctx, edge)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	return edge, nil
}

// DeleteEdge 删除BOM边
func (s *BOMService) DeleteEdge(ctx context.Context, id string) error {
	if _, err := s.edgeRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.edgeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}
