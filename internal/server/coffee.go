package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	coffeedomain "github.com/smallbiznis/coffeeshop/internal/coffee/domain"
)

type createCoffeeRequest struct {
	Name    string   `json:"name" binding:"required,notblank,max=255" maxLength:"255"`
	Brand   string   `json:"brand" binding:"required,notblank,max=255" maxLength:"255"`
	Flavors []string `json:"flavors" binding:"required,dive,notblank,max=255"`
}

type updateCoffeeRequest struct {
	Name    *string  `json:"name,omitempty" binding:"omitempty,notblank,max=255" maxLength:"255"`
	Brand   *string  `json:"brand,omitempty" binding:"omitempty,notblank,max=255" maxLength:"255"`
	Flavors []string `json:"flavors,omitempty" binding:"omitempty,dive,notblank,max=255"`
}

func (s *Server) ListCoffees(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.coffeeSvc.List(c.Request.Context(), coffeedomain.ListRequest{Pagination: page})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, resp)
}

func (s *Server) GetCoffee(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.coffeeSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, resp)
}

func (s *Server) CreateCoffee(c *gin.Context) {
	var req createCoffeeRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.coffeeSvc.Create(c.Request.Context(), coffeedomain.CreateRequest{
		Name:    req.Name,
		Brand:   req.Brand,
		Flavors: req.Flavors,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, resp)
}

func (s *Server) UpdateCoffee(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateCoffeeRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.coffeeSvc.Update(c.Request.Context(), id, coffeedomain.UpdateRequest{
		Name:    req.Name,
		Brand:   req.Brand,
		Flavors: req.Flavors,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, resp)
}

func (s *Server) DeleteCoffee(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.coffeeSvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, resp)
}

func (s *Server) RecommendCoffee(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.coffeeSvc.Recommend(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, resp)
}

func isCoffeeValidationError(err error) bool {
	switch err {
	case coffeedomain.ErrInvalidID,
		coffeedomain.ErrInvalidName,
		coffeedomain.ErrInvalidBrand,
		coffeedomain.ErrInvalidFlavor,
		coffeedomain.ErrInvalidPagination:
		return true
	default:
		return false
	}
}
