package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sangkips/pos-terminal-api/internal/infrastructure/remote"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/middleware"
	"github.com/sangkips/pos-terminal-api/pkg/apperror"
	"github.com/sangkips/pos-terminal-api/pkg/utils"
)

// GetOperatorID extracts the operator ID from the Gin context
func GetOperatorID(c *gin.Context) *uuid.UUID {
	value, exists := c.Get(middleware.ContextOperatorID)
	if !exists {
		return nil
	}
	operatorID, ok := value.(uuid.UUID)
	if !ok || operatorID == uuid.Nil {
		return nil
	}
	return &operatorID
}

// GetOperatorName extracts the operator display name from the Gin context
func GetOperatorName(c *gin.Context) string {
	return c.GetString(middleware.ContextOperatorName)
}

// requestContext returns the request context carrying the operator's token
// for calls to the remote sales service.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if token := c.GetString(middleware.ContextAccessToken); token != "" {
		ctx = remote.WithBearerToken(ctx, token)
	}
	return ctx
}

// requireOperator writes a 401 and returns false when no operator is set
func requireOperator(c *gin.Context) (uuid.UUID, bool) {
	operatorID := GetOperatorID(c)
	if operatorID == nil {
		response.Unauthorized(c, "Operator not authenticated")
		return uuid.Nil, false
	}
	return *operatorID, true
}

// pathUUID parses a UUID path parameter, writing a 400 on failure
func pathUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// pathInt parses an integer path parameter, writing a 400 on failure
func pathInt(c *gin.Context, name, label string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid "+label)
		return 0, false
	}
	return n, true
}

// bindJSON binds the request body, answering 422 with the binding error
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.ValidationError(c, []apperror.FieldError{{Field: "body", Message: err.Error()}})
		return false
	}
	return true
}
