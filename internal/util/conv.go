package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Pagination reads ?page= and ?limit=. Invalid values fall back to defaults.
func Pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// IfMatchVersion reads an optimistic concurrency version from If-Match.
func IfMatchVersion(c *gin.Context) (*int, error) {
	raw := c.GetHeader("If-Match")
	if raw == "" {
		return nil, nil
	}
	if n := len(raw); n >= 2 && raw[0] == '"' && raw[n-1] == '"' {
		raw = raw[1 : n-1]
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, NewValidationError("If-Match must be a lesson version number")
	}
	return &v, nil
}
