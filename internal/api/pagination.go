package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 10

// pageParams reads ?page= and ?limit= with sane fallbacks.
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 {
		limit = defaultPageSize
	}
	return page, limit
}

// paginated is the list envelope: the unpaged total plus the current page.
func paginated(total int64, results interface{}) gin.H {
	return gin.H{
		"count":   total,
		"results": results,
	}
}
