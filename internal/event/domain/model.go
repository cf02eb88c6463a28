package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event is an append-only audit record. Rows are never updated or deleted.
type Event struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string            `json:"name" gorm:"type:varchar(255);not null;index:ix_events_name_type,priority:1"`
	Type      string            `json:"type" gorm:"type:varchar(255);not null;index:ix_events_name_type,priority:2"`
	Payload   datatypes.JSONMap `json:"payload"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null"`
}

func (Event) TableName() string { return "events" }
