package server

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coffeeshop/pkg/db/pagination"
)

var errInvalidSnowflakeID = errors.New("invalid_snowflake_id")

func parseSnowflakeID(value string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errInvalidSnowflakeID
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return 0, errInvalidSnowflakeID
	}
	return parsed, nil
}

// pathID validates the :id route parameter before it reaches a service.
func pathID(c *gin.Context) (string, error) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		return "", newValidationError("id", "invalid_id", "id must be a numeric identifier")
	}
	return id.String(), nil
}

func parsePagination(c *gin.Context) (pagination.Pagination, error) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		return pagination.Pagination{}, pagination.ErrInvalidPage
	}
	if page.Limit < 0 || page.Offset < 0 {
		return pagination.Pagination{}, pagination.ErrInvalidPage
	}
	return page, nil
}
