package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/respond"
)

const requestTimeout = 5 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// pathID parses a numeric path parameter. Non-numeric ids answer 404
// like any other unknown object.
func pathID(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		respond.Error(c, apperr.NotFound(resource))
		return 0, false
	}
	return id, true
}

// pageParams reads ?page=1&page_size=20.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(dto.DefaultPageSize)))
	return dto.NormalizePage(page, pageSize)
}
