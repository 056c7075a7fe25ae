// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

// BindJSON decodes and validates the body into obj. On failure it writes a
// 400 envelope and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(middleware.DescribeBindError(err), err))
		return false
	}
	return true
}

// ParamID parses the named path parameter as a UUID.
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses an optional UUID query parameter. A missing parameter
// gives uuid.Nil.
func QueryID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}
