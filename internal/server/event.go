package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/smallbiznis/coffeeshop/internal/event/domain"
)

func (s *Server) ListEvents(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.eventSvc.List(c.Request.Context(), eventdomain.ListRequest{
		Pagination: page,
		Name:       strings.TrimSpace(c.Query("name")),
		Type:       strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, resp)
}

func isEventValidationError(err error) bool {
	switch err {
	case eventdomain.ErrInvalidName,
		eventdomain.ErrInvalidType,
		eventdomain.ErrInvalidPagination:
		return true
	default:
		return false
	}
}
