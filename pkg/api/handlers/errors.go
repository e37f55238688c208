package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pantryplay/pantryplay/pkg/agent"
	"github.com/pantryplay/pantryplay/pkg/api/middleware"
	"github.com/pantryplay/pantryplay/pkg/api/response"
	"github.com/pantryplay/pantryplay/pkg/extract"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/memory"
	"github.com/pantryplay/pantryplay/pkg/storage"
)

// classify wraps domain errors in the response sentinel that picks their
// HTTP status.
func classify(err error) error {
	var (
		unavailable *storage.StorageUnavailableError
		invalid     validator.ValidationErrors
	)
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return fmt.Errorf("%w: %v", response.ErrUnsupportedMediaType, err)
	case errors.Is(err, extract.ErrTooLarge):
		return fmt.Errorf("%w: %v", response.ErrPayloadTooLarge, err)
	case errors.Is(err, extract.ErrEmptyDocument),
		errors.Is(err, memory.ErrInvalidKind),
		errors.Is(err, agent.ErrAchievementName):
		return fmt.Errorf("%w: %v", response.ErrInvalidInput, err)
	case errors.As(err, &invalid):
		return fmt.Errorf("%w: %v", response.ErrValidationFailed, err)
	case errors.As(err, &unavailable):
		return fmt.Errorf("%w: %v", response.ErrServiceUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", response.ErrTimeout, err)
	}
	return err
}

// writeError logs err and writes the matching error envelope.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, msg string, err error) {
	ctx := r.Context()
	err = classify(err)
	status := response.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(ctx, msg, "error", err, "request_id", middleware.GetRequestID(ctx))
	} else {
		log.WarnContext(ctx, msg, "error", err, "request_id", middleware.GetRequestID(ctx))
	}
	response.HandleError(w, err, middleware.GetRequestID(ctx))
}

// badRequest writes a 400 with a fixed message.
func badRequest(w http.ResponseWriter, r *http.Request, code, msg string) {
	response.Error(w, http.StatusBadRequest, code, msg, middleware.GetRequestID(r.Context()))
}

func validationDetails(err error) map[string]any {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return nil
	}
	details := make(map[string]any, len(invalid))
	for _, fe := range invalid {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
