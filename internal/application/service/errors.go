package service

import (
	"context"
	"errors"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/domain/repository"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/remote"
	"github.com/sangkips/pos-terminal-api/pkg/apperror"
)

// toAppError translates domain and remote errors into HTTP-facing errors.
// Errors that are already AppErrors pass through.
func toAppError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ve *entity.ValidationError
	var re *remote.RemoteError
	switch {
	case errors.As(err, &ve):
		return apperror.NewFieldError(ve.Field, ve.Reason)
	case errors.Is(err, entity.ErrEmptyCart):
		return apperror.NewUnprocessableError("Cart is empty")
	case errors.Is(err, entity.ErrCartIndexOutOfRange):
		return apperror.NewNotFoundError("Cart item")
	case errors.Is(err, repository.ErrSessionNotFound):
		return apperror.NewNotFoundError("Terminal session")
	case errors.As(err, &re):
		return apperror.NewBadGatewayError(re.Message)
	case errors.Is(err, remote.ErrUnavailable),
		errors.Is(err, remote.ErrUnrecognizedShape),
		errors.Is(err, context.DeadlineExceeded):
		return apperror.NewBadGatewayError("")
	}
	return err
}
