package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-bom/internal/bom"
	"github.com/bitfantasy/nimo-bom/internal/model/entity"
	"gorm.io/gorm"
)

// BOMEdgeRepository BOM边仓库，同时实现 bom.GraphStore 供展开/反查算法读取。
// 非"记录不存在"类的存储错误统一包装为 bom.ErrStorageUnavailable，
// 保证核心算法的错误分类不被GORM细节污染。
type BOMEdgeRepository struct {
	db *gorm.DB
}

// NewBOMEdgeRepository 创建BOM边仓库
func NewBOMEdgeRepository(db *gorm.DB) *BOMEdgeRepository {
	return &BOMEdgeRepository{db: db}
}

// WithTx 返回绑定到事务的仓库视图，写路径的环路校验在事务内读取
func (r *BOMEdgeRepository) WithTx(tx *gorm.DB) *BOMEdgeRepository {
	return &BOMEdgeRepository{db: tx}
}

// applyScope 将范围过滤翻译为SQL条件。
// 空过滤字段不加限制；边上的空值是通配，ExactOnly 时退化为等值匹配。
func applyScope(query *gorm.DB, filter bom.ScopeFilter) *gorm.DB {
	query = applyScopeField(query, "customer_id", filter.CustomerID, filter.ExactOnly)
	query = applyScopeField(query, "supplier_id", filter.SupplierID, filter.ExactOnly)
	return query
}

func applyScopeField(query *gorm.DB, column, value string, exact bool) *gorm.DB {
	if value == "" {
		if exact {
			return query.Where(column + " = ''")
		}
		return query
	}
	if exact {
		return query.Where(column+" = ?", value)
	}
	return query.Where(column+" IN (?, '')", value)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, bom.ErrStorageUnavailable, err)
}

// ItemByID 实现 bom.GraphStore
func (r *BOMEdgeRepository) ItemByID(ctx context.Context, id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bom.ErrItemNotFound
		}
		return nil, storageErr("read item", err)
	}
	return &item, nil
}

// EdgesByParent 实现 bom.GraphStore，按 sequence 稳定排序
func (r *BOMEdgeRepository) EdgesByParent(ctx context.Context, itemID string, filter bom.ScopeFilter) ([]entity.BOMEdge, error) {
	var edges []entity.BOMEdge
	err := applyScope(r.db.WithContext(ctx).
		Where("parent_item_id = ? AND active = true", itemID), filter).
		Order("sequence ASC, created_at ASC, id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, storageErr("read edges by parent", err)
	}
	return edges, nil
}

// EdgesByChild 实现 bom.GraphStore，反查用
func (r *BOMEdgeRepository) EdgesByChild(ctx context.Context, itemID string, filter bom.ScopeFilter) ([]entity.BOMEdge, error) {
	var edges []entity.BOMEdge
	err := applyScope(r.db.WithContext(ctx).
		Where("child_item_id = ? AND active = true", itemID), filter).
		Order("sequence ASC, created_at ASC, id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, storageErr("read edges by child", err)
	}
	return edges, nil
}

// Edges 实现 bom.GraphStore，全量有效边供完整性校验
func (r *BOMEdgeRepository) Edges(ctx context.Context, filter bom.ScopeFilter) ([]entity.BOMEdge, error) {
	var edges []entity.BOMEdge
	err := applyScope(r.db.WithContext(ctx).
		Where("active = true"), filter).
		Order("sequence ASC, created_at ASC, id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, storageErr("read edge set", err)
	}
	return edges, nil
}

// GetByID 根据ID获取边
func (r *BOMEdgeRepository) GetByID(ctx context.Context, id string) (*entity.BOMEdge, error) {
	var edge entity.BOMEdge
	err := r.db.WithContext(ctx).
		Preload("ParentItem").
		Preload("ChildItem").
		Where("id = ?", id).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &edge, nil
}

// ListByParent 父件的全部边（含停用），带品目关联，管理界面用
func (r *BOMEdgeRepository) ListByParent(ctx context.Context, parentItemID string, filter bom.ScopeFilter) ([]entity.BOMEdge, error) {
	var edges []entity.BOMEdge
	err := applyScope(r.db.WithContext(ctx).
		Preload("ChildItem").
		Preload("Customer").
		Preload("Supplier").
		Where("parent_item_id = ?", parentItemID), filter).
		Order("sequence ASC, created_at ASC, id ASC").
		Find(&edges).Error
	return edges, err
}

// Create 创建边
func (r *BOMEdgeRepository) Create(ctx context.Context, edge *entity.BOMEdge) error {
	if edge.ID == "" {
		edge.ID = generateID()
	}
	now := time.Now()
	edge.CreatedAt = now
	edge.UpdatedAt = now
	return r.db.WithContext(ctx).Create(edge).Error
}

// Update 更新边
func (r *BOMEdgeRepository) Update(ctx context.Context, edge *entity.BOMEdge) error {
	edge.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(edge).Error
}

// Delete 删除边
func (r *BOMEdgeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.BOMEdge{}).Error
}

// GetMaxSequence 同一父件同范围下的最大序号
func (r *BOMEdgeRepository) GetMaxSequence(ctx context.Context, parentItemID string, filter bom.ScopeFilter) (int, error) {
	var maxSeq int
	err := applyScope(r.db.WithContext(ctx).
		Model(&entity.BOMEdge{}).
		Select("COALESCE(MAX(sequence), 0)").
		Where("parent_item_id = ?", parentItemID), filter).
		Scan(&maxSeq).Error
	return maxSeq, err
}
