package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prakarsa-dev/hcm-api/internal/middleware"
	"github.com/prakarsa-dev/hcm-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func parsePagination(c *gin.Context) (int, int) {
	page := 1
	size := 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 {
		size = v
	}
	return page, size
}

func parseBoolQuery(c *gin.Context, name string) *bool {
	switch c.Query(name) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func parseStatusQuery(c *gin.Context) *models.ApprovalStatus {
	if raw := c.Query("status"); raw != "" {
		status := models.ApprovalStatus(raw)
		return &status
	}
	return nil
}

func optionalQuery(c *gin.Context, name string) *string {
	if raw := c.Query(name); raw != "" {
		return &raw
	}
	return nil
}

func pagination(page, size, total int) *models.Pagination {
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
