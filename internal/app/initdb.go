package app

import (
	"strings"
	"time"

	"github.com/greenshelf/catalog/internal/domain"
	"go.uber.org/zap"
)

// checkCategories seeds the configured default categories into an empty table
func (a *Application) checkCategories() {
	var count int64
	if err := a.gormDB.Model(&domain.Category{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count categories", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	for _, name := range a.appConfig.Catalog.DefaultCategories {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c := domain.Category{Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		if err := a.gormDB.Create(&c).Error; err != nil {
			zap.L().Error("failed to create default category", zap.String("name", name), zap.Error(err))
		} else {
			zap.L().Info("initialized default category", zap.String("name", name), zap.Int64("id", c.ID))
		}
	}
}
