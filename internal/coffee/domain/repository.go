package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, db *gorm.DB, limit, offset int) ([]Coffee, error)
	// FindByID returns nil without error when the coffee is absent or deleted.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Coffee, error)
	Create(ctx context.Context, db *gorm.DB, coffee *Coffee) error
	// Update writes the scalar columns. Flavor links are rewritten only when
	// replaceFlavors is set.
	Update(ctx context.Context, db *gorm.DB, coffee *Coffee, replaceFlavors bool) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	// IncrementRecommendations reports whether a live row was updated.
	IncrementRecommendations(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)

	FindFlavorByName(ctx context.Context, db *gorm.DB, name string) (*Flavor, error)
	// CreateFlavor inserts the flavor unless the name already exists and
	// reports whether a row was written.
	CreateFlavor(ctx context.Context, db *gorm.DB, flavor *Flavor) (bool, error)
}
