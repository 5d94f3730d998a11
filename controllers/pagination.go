package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type pageQuery struct {
	Page  int
	Limit int
}

// readPage đọc ?page=&limit=, mặc định trang 1, 10 mục
func readPage(c *gin.Context) pageQuery {
	q := pageQuery{Page: 1, Limit: 10}
	if p := c.Query("page"); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &q.Page); err != nil || q.Page < 1 {
			q.Page = 1
		}
	}
	if l := c.Query("limit"); l != "" {
		if _, err := fmt.Sscanf(l, "%d", &q.Limit); err != nil || q.Limit < 1 {
			q.Limit = 10
		}
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q
}

// paginate cắt một trang và trả về body chuẩn của danh sách
func paginate[T any](items []T, q pageQuery) gin.H {
	total := len(items)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return gin.H{
		"data":       items[start:end],
		"total":      total,
		"page":       q.Page,
		"limit":      q.Limit,
		"totalPages": (total + q.Limit - 1) / q.Limit,
	}
}
