package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/response"
	"github.com/machinetrade/pos-api/internal/presentation/http/middleware"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"github.com/machinetrade/pos-api/pkg/validation"
)

const dateLayout = "2006-01-02"

// bindJSON decodes the body and writes a validation response on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, validation.FromError(err))
		return false
	}
	return true
}

// uuidParam parses a path parameter, writing a 400 when it is malformed
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) *pagination.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(pagination.DefaultPerPage)))
	params := &pagination.PaginationParams{Page: page, PerPage: perPage}
	params.Validate()
	return params
}

// dateQuery parses an optional YYYY-MM-DD query value
func dateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperror.NewFieldValidationError(name, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

// processedBy names the caller for the order's audit field
func processedBy(c *gin.Context) string {
	return middleware.GetIdentity(c)
}
