package service

import (
	"context"

	"github.com/bitfantasy/nimo-bom/internal/model/entity"
	"github.com/bitfantasy/nimo-bom/internal/repository"
	"github.com/shopspring/decimal"
)

// ItemService 品目及客户/供应商主数据服务
type ItemService struct {
	itemRepo     *repository.ItemRepository
	customerRepo *repository.CustomerRepository
	supplierRepo *repository.SupplierRepository
}

// NewItemService 创建品目服务
func NewItemService(
	itemRepo *repository.ItemRepository,
	customerRepo *repository.CustomerRepository,
	supplierRepo *repository.SupplierRepository,
) *ItemService {
	return &ItemService{
		itemRepo:     itemRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
	}
}

// CreateItemRequest 创建品目请求
type CreateItemRequest struct {
	Code      string           `json:"code" binding:"required"`
	Name      string           `json:"name" binding:"required"`
	Category  string           `json:"category" binding:"required,oneof=finished semi_finished raw_material coil customer_owned"`
	Unit      string           `json:"unit"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Spec      string           `json:"spec"`
}

// UpdateItemRequest 更新品目请求
type UpdateItemRequest struct {
	Name      *string          `json:"name"`
	Category  *string          `json:"category"`
	Unit      *string          `json:"unit"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Spec      *string          `json:"spec"`
	Status    *string          `json:"status"`
}

// Create 创建品目，编码唯一
func (s *ItemService) Create(ctx context.Context, userID string, req *CreateItemRequest) (*entity.Item, error) {
	if _, err := s.itemRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, repository.ErrDuplicate
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	item := &entity.Item{
		Code:      req.Code,
		Name:      req.Name,
		Category:  req.Category,
		Unit:      unit,
		UnitPrice: req.UnitPrice,
		Spec:      req.Spec,
		Status:    "active",
		CreatedBy: userID,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get 按ID查询品目
func (s *ItemService) Get(ctx context.Context, id string) (*entity.Item, error) {
	return s.itemRepo.FindByID(ctx, id)
}

// List 品目列表，支持类别/状态/关键字过滤和分页
func (s *ItemService) List(ctx context.Context, category, status, keyword string, page, pageSize int) ([]entity.Item, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return s.itemRepo.List(ctx, category, status, keyword, page, pageSize)
}

// Update 更新品目
func (s *ItemService) Update(ctx context.Context, id string, req *UpdateItemRequest) (*entity.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.UnitPrice != nil {
		item.UnitPrice = req.UnitPrice
	}
	if req.Spec != nil {
		item.Spec = *req.Spec
	}
	if req.Status != nil {
		item.Status = *req.Status
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListCustomers 客户列表，BOM范围过滤器的客户选项来源
func (s *ItemService) ListCustomers(ctx context.Context) ([]entity.Customer, error) {
	return s.customerRepo.List(ctx)
}

// ListSuppliers 供应商列表，BOM范围过滤器的供应商选项来源
func (s *ItemService) ListSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	return s.supplierRepo.List(ctx)
}
