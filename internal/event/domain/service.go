package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/coffeeshop/pkg/db/pagination"
	"gorm.io/gorm"
)

const (
	NameRecommendCoffee = "recommend_coffee"
	TypeCoffee          = "coffee"
)

type Service interface {
	// Record appends an event using db, which may be an open transaction.
	Record(ctx context.Context, db *gorm.DB, req RecordRequest) (*Event, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}

type RecordRequest struct {
	Name    string
	Type    string
	Payload map[string]any
}

type ListRequest struct {
	pagination.Pagination
	Name string
	Type string
}

type ListResponse struct {
	pagination.PageInfo
	Events []Event `json:"events"`
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidType       = errors.New("invalid_type")
	ErrInvalidPagination = errors.New("invalid_pagination")
)
