package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMEdge BOM父子关系：一单位父件需要 Quantity 单位子件。
// CustomerID/SupplierID 为空表示通配（对任意客户/供应商生效）。
// (parent, child, customer, supplier) 组合故意不加唯一约束：
// 同一子件在装配的不同位置重复出现时以多行表示，读取时不合并。
type BOMEdge struct {
	ID           string          `json:"id" gorm:"primaryKey;size:32"`
	ParentItemID string          `json:"parent_item_id" gorm:"size:32;not null;index"`
	ChildItemID  string          `json:"child_item_id" gorm:"size:32;not null;index"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	CustomerID   string          `json:"customer_id" gorm:"size:32;index"`
	SupplierID   string          `json:"supplier_id" gorm:"size:32;index"`
	Sequence     int             `json:"sequence" gorm:"not null;default:0"`
	Active       bool            `json:"active" gorm:"not null;default:true"`
	Notes        string          `json:"notes" gorm:"type:text"`
	CreatedBy    string          `json:"created_by" gorm:"size:32"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// 关联
	ParentItem *Item     `json:"parent_item,omitempty" gorm:"foreignKey:ParentItemID"`
	ChildItem  *Item     `json:"child_item,omitempty" gorm:"foreignKey:ChildItemID"`
	Customer   *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Supplier   *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (BOMEdge) TableName() string {
	return "bom_edges"
}
