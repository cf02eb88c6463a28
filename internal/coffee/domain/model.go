package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Coffee is a catalog entry. Deleted rows keep their flavor links and
// disappear from every read through DeletedAt.
type Coffee struct {
	ID              snowflake.ID   `gorm:"primaryKey;autoIncrement:false"`
	Name            string         `gorm:"type:varchar(255);not null"`
	Brand           string         `gorm:"type:varchar(255);not null"`
	Recommendations int            `gorm:"not null;default:0"`
	Flavors         []Flavor       `gorm:"many2many:coffee_flavors;joinForeignKey:CoffeeID;joinReferences:FlavorID"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Coffee) TableName() string { return "coffees" }

// Flavor names are unique and flavors are shared across coffees.
type Flavor struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Name      string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_flavors_name"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (Flavor) TableName() string { return "flavors" }

type CoffeeFlavor struct {
	CoffeeID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	FlavorID snowflake.ID `gorm:"primaryKey;autoIncrement:false;index"`
}

func (CoffeeFlavor) TableName() string { return "coffee_flavors" }
