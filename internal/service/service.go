package service

import (
	"github.com/bitfantasy/nimo-bom/internal/config"
	"github.com/bitfantasy/nimo-bom/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Item *ItemService
	BOM  *BOMService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, logger *zap.Logger, cfg *config.Config) *Services {
	return &Services{
		Item: NewItemService(repos.Item, repos.Customer, repos.Supplier),
		BOM:  NewBOMService(repos.BOMEdge, repos.Item, db, rdb, logger, cfg.BOM),
	}
}
