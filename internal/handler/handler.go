package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/validator"
)

// BindJSON decodes the body into req and validates its struct tags.
// Validation failures are 400 with per-field messages.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperrors.NewBadRequest("invalid request body", err)
	}
	if fields := validator.Struct(req); fields != nil {
		return &apperrors.AppError{
			Code:    http.StatusBadRequest,
			Message: "validation failed",
			Fields:  fields,
		}
	}
	return nil
}

// UUIDParam parses a path parameter as a UUID.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequest("invalid "+name, err)
	}
	return id, nil
}

// UUIDQuery parses an optional query parameter. Absent means uuid.Nil.
func UUIDQuery(c *gin.Context, name string) (uuid.UUID, error) {
	v := c.Query(name)
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequest("invalid "+name, err)
	}
	return id, nil
}

// Caller returns the authenticated caller. Routes using it sit behind
// AuthMiddleware.Authenticate.
func Caller(c *gin.Context) (model.Caller, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return model.Caller{}, apperrors.NewUnauthorized("authentication required")
	}
	return caller, nil
}

// CallerAndID combines Caller and UUIDParam for routes on a single resource.
func CallerAndID(c *gin.Context, param string) (model.Caller, uuid.UUID, error) {
	caller, err := Caller(c)
	if err != nil {
		return model.Caller{}, uuid.Nil, err
	}
	id, err := UUIDParam(c, param)
	if err != nil {
		return model.Caller{}, uuid.Nil, err
	}
	return caller, id, nil
}

// Page binds ?limit= and ?offset=.
func Page(c *gin.Context) (model.Pagination, error) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperrors.NewBadRequest("invalid pagination", err)
	}
	return page, nil
}
