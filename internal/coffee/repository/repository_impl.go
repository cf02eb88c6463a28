package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coffeeshop/internal/coffee/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func withFlavors(db *gorm.DB) *gorm.DB {
	return db.Preload("Flavors", func(db *gorm.DB) *gorm.DB {
		return db.Order("flavors.name ASC")
	})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit, offset int) ([]domain.Coffee, error) {
	var items []domain.Coffee
	stmt := withFlavors(db.WithContext(ctx).Model(&domain.Coffee{})).Order("id ASC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Coffee, error) {
	var coffee domain.Coffee
	err := withFlavors(db.WithContext(ctx)).
		Where("id = ?", id).
		First(&coffee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coffee, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, coffee *domain.Coffee) error {
	if coffee == nil {
		return gorm.ErrInvalidData
	}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(coffee).Error; err != nil {
		return err
	}
	return r.linkFlavors(ctx, db, coffee.ID, coffee.Flavors)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, coffee *domain.Coffee, replaceFlavors bool) error {
	if coffee == nil {
		return gorm.ErrInvalidData
	}
	result := db.WithContext(ctx).
		Model(&domain.Coffee{}).
		Where("id = ?", coffee.ID).
		Updates(map[string]any{
			"name":       coffee.Name,
			"brand":      coffee.Brand,
			"updated_at": coffee.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if !replaceFlavors {
		return nil
	}

	if err := db.WithContext(ctx).
		Where("coffee_id = ?", coffee.ID).
		Delete(&domain.CoffeeFlavor{}).Error; err != nil {
		return err
	}
	return r.linkFlavors(ctx, db, coffee.ID, coffee.Flavors)
}

func (r *repo) linkFlavors(ctx context.Context, db *gorm.DB, coffeeID snowflake.ID, flavors []domain.Flavor) error {
	if len(flavors) == 0 {
		return nil
	}
	links := make([]domain.CoffeeFlavor, 0, len(flavors))
	for _, flavor := range flavors {
		links = append(links, domain.CoffeeFlavor{CoffeeID: coffeeID, FlavorID: flavor.ID})
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Coffee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) IncrementRecommendations(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.Coffee{}).
		Where("id = ?", id).
		Update("recommendations", gorm.Expr("recommendations + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindFlavorByName(ctx context.Context, db *gorm.DB, name string) (*domain.Flavor, error) {
	var flavor domain.Flavor
	err := db.WithContext(ctx).
		Where("name = ?", strings.TrimSpace(name)).
		Take(&flavor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &flavor, nil
}

func (r *repo) CreateFlavor(ctx context.Context, db *gorm.DB, flavor *domain.Flavor) (bool, error) {
	if flavor == nil {
		return false, gorm.ErrInvalidData
	}
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(flavor)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
