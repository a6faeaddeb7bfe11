package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item 品目实体（成品/半成品/原材料等物料主数据）
type Item struct {
	ID        string           `json:"id" gorm:"primaryKey;size:32"`
	Code      string           `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name      string           `json:"name" gorm:"size:128;not null"`
	Category  string           `json:"category" gorm:"size:16;not null;default:raw_material"`
	Unit      string           `json:"unit" gorm:"size:16;not null;default:pcs"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" gorm:"type:decimal(15,4)"`
	Spec      string           `json:"spec" gorm:"size:256"`
	Status    string           `json:"status" gorm:"size:16;not null;default:active"`
	CreatedBy string           `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// ItemCategory 品目类别
const (
	ItemCategoryFinished      = "finished"       // 成品
	ItemCategorySemiFinished  = "semi_finished"  // 半成品
	ItemCategoryRawMaterial   = "raw_material"   // 原材料
	ItemCategoryCoil          = "coil"           // 卷料
	ItemCategoryCustomerOwned = "customer_owned" // 客供料
)

// ItemStatus 品目状态
const (
	ItemStatusActive   = "active"
	ItemStatusInactive = "inactive"
)

// Customer 客户实体，BOM变体按客户区分
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Status    string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Supplier 供应商实体，标记BOM行项中子件的供货来源
type Supplier struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Status    string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}
