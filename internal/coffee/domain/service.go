package domain

import (
	"context"
	"errors"
	"time"

	eventdomain "github.com/smallbiznis/coffeeshop/internal/event/domain"
	"github.com/smallbiznis/coffeeshop/pkg/db/pagination"
)

type Service interface {
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) (*Response, error)
	Recommend(ctx context.Context, id string) (*RecommendResult, error)
}

type ListRequest struct {
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Coffees []Response `json:"coffees"`
}

type CreateRequest struct {
	Name    string   `json:"name"`
	Brand   string   `json:"brand"`
	Flavors []string `json:"flavors"`
}

// UpdateRequest leaves a field untouched when it is nil. An empty, non-nil
// Flavors clears every flavor link.
type UpdateRequest struct {
	Name    *string  `json:"name"`
	Brand   *string  `json:"brand"`
	Flavors []string `json:"flavors"`
}

type Response struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Brand           string           `json:"brand"`
	Recommendations int              `json:"recommendations"`
	Flavors         []FlavorResponse `json:"flavors"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type FlavorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RecommendResult struct {
	Coffee Response           `json:"coffee"`
	Event  *eventdomain.Event `json:"event"`
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidBrand      = errors.New("invalid_brand")
	ErrInvalidFlavor     = errors.New("invalid_flavor")
	ErrInvalidPagination = errors.New("invalid_pagination")
	ErrNotFound          = errors.New("not_found")
	ErrRecommendFailed   = errors.New("recommend_failed")
)
