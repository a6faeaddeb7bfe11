package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// ErrDuplicate 唯一键冲突
var ErrDuplicate = errors.New("record already exists")

// generateID 生成32位ID
func generateID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:32]
}

// Repositories 仓库集合
type Repositories struct {
	Item     *ItemRepository
	Customer *CustomerRepository
	Supplier *SupplierRepository
	BOMEdge  *BOMEdgeRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Item:     NewItemRepository(db),
		Customer: NewCustomerRepository(db),
		Supplier: NewSupplierRepository(db),
		BOMEdge:  NewBOMEdgeRepository(db),
	}
}
