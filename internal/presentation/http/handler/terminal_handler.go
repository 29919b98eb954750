package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sangkips/pos-terminal-api/internal/application/service"
	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/domain/enum"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-terminal-api/pkg/apperror"
)

// TerminalHandler handles order building on a terminal session
type TerminalHandler struct {
	terminalService *service.TerminalService
}

// NewTerminalHandler creates a new terminal handler
func NewTerminalHandler(terminalService *service.TerminalService) *TerminalHandler {
	return &TerminalHandler{terminalService: terminalService}
}

// OpenSession handles opening a terminal session
func (h *TerminalHandler) OpenSession(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}

	session, err := h.terminalService.OpenSession(c.Request.Context(), operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Terminal session opened", session)
}

// GetSession handles reading a terminal session
func (h *TerminalHandler) GetSession(c *gin.Context) {
	h.run(c, "Terminal session retrieved", h.terminalService.GetSession)
}

// CloseSession handles discarding a terminal session
func (h *TerminalHandler) CloseSession(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id", "session")
	if !ok {
		return
	}

	if err := h.terminalService.CloseSession(c.Request.Context(), operatorID, sessionID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Terminal session closed", nil)
}

// SelectProduct handles choosing the product of the current selection
func (h *TerminalHandler) SelectProduct(c *gin.Context) {
	var req request.SelectProductRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Product selected", func(ctx context.Context, op, id uuid.UUID) (*entity.TerminalSnapshot, error) {
		return h.terminalService.SelectProduct(ctx, op, id, req.ProductID)
	})
}

// SelectFlavor handles choosing a flavor
func (h *TerminalHandler) SelectFlavor(c *gin.Context) {
	var req request.SelectFlavorRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Flavor selected", func(ctx context.Context, op, id uuid.UUID) (*entity.TerminalSnapshot, error) {
		return h.terminalService.SelectFlavor(ctx, op, id, req.Flavor)
	})
}

// SelectVariant handles choosing a variant
func (h *TerminalHandler) SelectVariant(c *gin.Context) {
	var req request.SelectVariantRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Variant selected", func(ctx context.Context, op, id uuid.UUID) (*entity.TerminalSnapshot, error) {
		return h.terminalService.SelectVariant(ctx, op, id, req.VariantID)
	})
}

// SetQuantity handles updating the typed quantity
func (h *TerminalHandler) SetQuantity(c *gin.Context) {
	var req request.SetQuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Quantity updated", func(ctx context.Context, op, id uuid.UUID) (*entity.TerminalSnapshot, error) {
		return h.terminalService.SetQuantity(ctx, op, id, string(req.Quantity))
	})
}

// CommitSelection handles adding the selection to the cart
func (h *TerminalHandler) CommitSelection(c *gin.Context) {
	h.run(c, "Item added to cart", h.terminalService.CommitSelection)
}

// ClearSelection handles going back from the current selection
func (h *TerminalHandler) ClearSelection(c *gin.Context) {
	h.run(c, "Selection cleared", h.terminalService.ClearSelection)
}

// RemoveCartItem handles removing a cart line by its zero-based index
func (h *TerminalHandler) RemoveCartItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "Invalid cart item index")
		return
	}
	h.run(c, "Item removed from cart", func(ctx context.Context, op, id uuid.UUID) (*entity.TerminalSnapshot, error) {
		return h.terminalService.RemoveCartItem(ctx, op, id, index)
	})
}

// SetObservation handles updating the pending observation
func (h *TerminalHandler) SetObservation(c *gin.Context) {
	var req request.SetObservationRequest
	if !bindJSON(c, &req) {
		return
	}
	h.run(c, "Observation updated", func(ctx context.Context, op, id uuid.UUID) (*entity.TerminalSnapshot, error) {
		return h.terminalService.SetObservation(ctx, op, id, req.Observation)
	})
}

// Settle handles submitting the cart as a sale
func (h *TerminalHandler) Settle(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id", "session")
	if !ok {
		return
	}

	var req request.SettleRequest
	if !bindJSON(c, &req) {
		return
	}
	method, err := enum.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		response.Error(c, apperror.NewFieldError("payment_method", "payment method must be one of CASH, CARD, TRANSFER, OTHER"))
		return
	}

	result, err := h.terminalService.Settle(requestContext(c), operatorID, sessionID, service.SettleInput{
		PaymentMethod: method,
		Observation:   req.Observation,
		OperatorName:  GetOperatorName(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Sale recorded"
	if result.PrintWarning != "" {
		message = result.PrintWarning
	}
	response.Created(c, message, result)
}

// run resolves operator and session, calls fn and writes the snapshot.
func (h *TerminalHandler) run(c *gin.Context, message string, fn func(ctx context.Context, operatorID, sessionID uuid.UUID) (*entity.TerminalSnapshot, error)) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "session")
	if !ok {
		return
	}

	snapshot, err := fn(requestContext(c), operatorID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, snapshot)
}
