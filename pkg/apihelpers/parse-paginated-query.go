package apihelpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

type PaginatedQuery struct {
	Page  int64
	Limit int64
}

func ParsePaginatedQueryFromCtx(c *gin.Context) (*PaginatedQuery, error) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return &PaginatedQuery{
		Page:  page,
		Limit: limit,
	}, nil
}

func (q *PaginatedQuery) Skip() int64 {
	return (q.Page - 1) * q.Limit
}
