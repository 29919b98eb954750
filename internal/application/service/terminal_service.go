package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/domain/enum"
	"github.com/sangkips/pos-terminal-api/internal/domain/repository"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/metrics"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/remote"
	"github.com/sangkips/pos-terminal-api/pkg/apperror"
)

// ReceiptPrinter prints the receipt of a confirmed settlement.
type ReceiptPrinter interface {
	PrintSettlement(ctx context.Context, operator string, items []entity.CartItem, req *entity.SettlementRequest, sale *entity.SubmittedSale) (*entity.Receipt, error)
}

// TerminalService drives the order building of terminal sessions: product
// selection, cart edits and settlement.
type TerminalService struct {
	sessions   repository.TerminalSessionRepository
	catalog    repository.CatalogGateway
	sales      repository.SalesGateway
	receipts   ReceiptPrinter
	metrics    *metrics.Metrics
	locationID int64
	logger     *zap.Logger
}

// TerminalServiceDeps groups the collaborators of TerminalService
type TerminalServiceDeps struct {
	Sessions   repository.TerminalSessionRepository
	Catalog    repository.CatalogGateway
	Sales      repository.SalesGateway
	Receipts   ReceiptPrinter
	Metrics    *metrics.Metrics
	LocationID int64
	Logger     *zap.Logger
}

// NewTerminalService creates a new terminal service
func NewTerminalService(deps TerminalServiceDeps) *TerminalService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TerminalService{
		sessions:   deps.Sessions,
		catalog:    deps.Catalog,
		sales:      deps.Sales,
		receipts:   deps.Receipts,
		metrics:    deps.Metrics,
		locationID: deps.LocationID,
		logger:     logger.Named("terminal"),
	}
}

// SettleInput is the settlement request of an operator
type SettleInput struct {
	PaymentMethod enum.PaymentMethod
	// Observation replaces the pending observation when set
	Observation *string
	// OperatorName is printed on the receipt
	OperatorName string
}

// SettlementResult is returned after a confirmed settlement
type SettlementResult struct {
	Sale         *entity.SubmittedSale     `json:"sale"`
	Request      *entity.SettlementRequest `json:"request"`
	Receipt      *entity.Receipt           `json:"receipt,omitempty"`
	PrintWarning string                    `json:"print_warning,omitempty"`
	Session      entity.TerminalSnapshot   `json:"session"`
}

// OpenSession starts a terminal session with an empty selection and cart.
func (s *TerminalService) OpenSession(ctx context.Context, operatorID uuid.UUID) (*entity.TerminalSnapshot, error) {
	session := entity.NewTerminalSession(operatorID)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.SetActiveSessions(s.sessions.Count(ctx))

	s.logger.Info("terminal session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("operator_id", operatorID.String()),
	)

	session.Lock()
	defer session.Unlock()
	snap := session.Snapshot()
	return &snap, nil
}

// GetSession returns the current state of a session.
func (s *TerminalService) GetSession(ctx context.Context, operatorID, sessionID uuid.UUID) (*entity.TerminalSnapshot, error) {
	session, err := s.session(ctx, operatorID, sessionID)
	if err != nil {
		return nil, err
	}
	session.Lock()
	defer session.Unlock()
	snap := session.Snapshot()
	return &snap, nil
}

// CloseSession discards a session and everything pending in it.
func (s *TerminalService) CloseSession(ctx context.Context, operatorID, sessionID uuid.UUID) error {
	session, err := s.session(ctx, operatorID, sessionID)
	if err != nil {
		return err
	}

	// wait for a running settlement before dropping the session
	session.Lock()
	defer session.Unlock()

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return toAppError(err)
	}
	s.metrics.SetActiveSessions(s.sessions.Count(ctx))
	return nil
}

// SelectProduct loads a product from the catalog and starts a new selection.
func (s *TerminalService) SelectProduct(ctx context.Context, operatorID, sessionID uuid.UUID, productID int64) (*entity.TerminalSnapshot, error) {
	if _, err := s.session(ctx, operatorID, sessionID); err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("Product")
		}
		return nil, toAppError(err)
	}

	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		ts.Selection = ts.Selection.SelectProduct(*product)
		return nil
	})
}

// SelectFlavor picks a flavor of the selected product by name or id.
func (s *TerminalService) SelectFlavor(ctx context.Context, operatorID, sessionID uuid.UUID, flavor string) (*entity.TerminalSnapshot, error) {
	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		next, err := ts.Selection.SelectFlavor(flavor)
		if err != nil {
			return err
		}
		ts.Selection = next
		return nil
	})
}

// SelectVariant picks a variant of the selected product.
func (s *TerminalService) SelectVariant(ctx context.Context, operatorID, sessionID uuid.UUID, variantID int64) (*entity.TerminalSnapshot, error) {
	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		next, err := ts.Selection.SelectVariant(variantID)
		if err != nil {
			return err
		}
		ts.Selection = next
		return nil
	})
}

// SetQuantity stores the raw quantity text of the selection.
func (s *TerminalService) SetQuantity(ctx context.Context, operatorID, sessionID uuid.UUID, raw string) (*entity.TerminalSnapshot, error) {
	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		ts.Selection = ts.Selection.SetQuantity(raw)
		return nil
	})
}

// CommitSelection adds the selection to the cart as a new line.
func (s *TerminalService) CommitSelection(ctx context.Context, operatorID, sessionID uuid.UUID) (*entity.TerminalSnapshot, error) {
	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		next, item, err := ts.Selection.Commit()
		if err != nil {
			return err
		}
		ts.Cart.Add(item)
		ts.Selection = next
		return nil
	})
}

// ClearSelection abandons the current selection.
func (s *TerminalService) ClearSelection(ctx context.Context, operatorID, sessionID uuid.UUID) (*entity.TerminalSnapshot, error) {
	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		ts.Selection = ts.Selection.Back()
		return nil
	})
}

// RemoveCartItem removes the cart line at a zero-based position.
func (s *TerminalService) RemoveCartItem(ctx context.Context, operatorID, sessionID uuid.UUID, index int) (*entity.TerminalSnapshot, error) {
	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		_, err := ts.Cart.RemoveAt(index)
		return err
	})
}

// SetObservation stores the observation sent with the next settlement.
func (s *TerminalService) SetObservation(ctx context.Context, operatorID, sessionID uuid.UUID, observation string) (*entity.TerminalSnapshot, error) {
	return s.mutate(ctx, operatorID, sessionID, func(ts *entity.TerminalSession) error {
		ts.Observation = &observation
		return nil
	})
}

// Settle submits the cart as a sale paid in full by one method. The session
// stays locked until the remote service answers. The cart, observation and
// selection are cleared only after the sale is confirmed; on any failure they
// are kept so the operator can retry. The receipt is printed after the
// session is released.
func (s *TerminalService) Settle(ctx context.Context, operatorID, sessionID uuid.UUID, input SettleInput) (*SettlementResult, error) {
	result, items, err := s.submit(ctx, operatorID, sessionID, input)
	if err != nil {
		return nil, err
	}

	if s.receipts != nil {
		receipt, printErr := s.receipts.PrintSettlement(ctx, input.OperatorName, items, result.Request, result.Sale)
		result.Receipt = receipt
		if printErr != nil {
			s.metrics.ReceiptFailed()
			result.PrintWarning = "Sale recorded but the receipt could not be printed"
		}
	}

	return result, nil
}

// submit composes and submits the settlement under the session lock. It
// returns the settled lines for the receipt.
func (s *TerminalService) submit(ctx context.Context, operatorID, sessionID uuid.UUID, input SettleInput) (*SettlementResult, []entity.CartItem, error) {
	session, err := s.session(ctx, operatorID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	session.Lock()
	defer session.Unlock()
	session.Touch()

	if input.Observation != nil {
		obs := *input.Observation
		session.Observation = &obs
	}
	observation := ""
	if session.Observation != nil {
		observation = *session.Observation
	}

	req, err := entity.ComposeSettlement(session.Cart, input.PaymentMethod, observation, s.locationID)
	if err != nil {
		s.metrics.SettlementFailed(metrics.OutcomeInvalid)
		return nil, nil, toAppError(err)
	}
	items := session.Cart.Items()

	sale, err := s.sales.SubmitSale(ctx, req)
	if err != nil {
		s.metrics.SettlementFailed(metrics.OutcomeFailure)
		s.logger.Warn("settlement rejected",
			zap.String("session_id", session.ID.String()),
			zap.Int("items", len(req.Items)),
			zap.Error(err),
		)
		return nil, nil, toAppError(err)
	}

	session.Reset()
	session.Touch()

	amount := req.Total()
	s.metrics.SettlementSucceeded(input.PaymentMethod.Label(), amount)
	s.logger.Info("settlement confirmed",
		zap.String("session_id", session.ID.String()),
		zap.Int64("sale_id", sale.SaleID),
		zap.String("method", input.PaymentMethod.Label()),
		zap.String("amount", amount.StringFixed(2)),
	)

	return &SettlementResult{
		Sale:    sale,
		Request: req,
		Session: session.Snapshot(),
	}, items, nil
}

// StartCleanup evicts idle sessions every interval until ctx is done.
func (s *TerminalService) StartCleanup(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.sessions.EvictIdle(ctx, ttl); n > 0 {
					s.logger.Info("idle terminal sessions evicted", zap.Int("count", n))
				}
				s.metrics.SetActiveSessions(s.sessions.Count(ctx))
			}
		}
	}()
}

// session loads a session and checks that it belongs to the operator.
func (s *TerminalService) session(ctx context.Context, operatorID, sessionID uuid.UUID) (*entity.TerminalSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, toAppError(err)
	}
	if session.OperatorID != operatorID {
		return nil, apperror.ErrForbidden
	}
	return session, nil
}

// mutate applies fn to a locked session. A failing fn must leave the session
// untouched.
func (s *TerminalService) mutate(ctx context.Context, operatorID, sessionID uuid.UUID, fn func(*entity.TerminalSession) error) (*entity.TerminalSnapshot, error) {
	session, err := s.session(ctx, operatorID, sessionID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	if err := fn(session); err != nil {
		return nil, toAppError(err)
	}
	session.Touch()

	snap := session.Snapshot()
	return &snap, nil
}
