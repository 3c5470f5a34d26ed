package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	cart "github.com/joinsangha/storefront/internal/cart/domain"
	checkout "github.com/joinsangha/storefront/internal/checkout/domain"
	"github.com/joinsangha/storefront/pkg/apperr"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// MessageResponse is the body shape of the order and inquiry endpoints.
type MessageResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

var (
	errInvalidJSON = apperr.Validation("", "invalid JSON body")
	errTooLarge    = apperr.Validation("", "request body too large")
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; a failed encode only means the client went away.
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, MessageResponse{Message: message})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errTooLarge
		}
		return errInvalidJSON
	}
	return nil
}

// userMessage returns the validation message when err carries one.
func userMessage(err error) string {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

// handleServiceError maps domain and service errors to a status and the
// ErrorResponse body. Unknown errors are logged and hidden behind a 500.
func handleServiceError(ctx context.Context, w http.ResponseWriter, log *zap.Logger, err error) {
	status, code, message := classify(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err), zap.String("request_id", requestID(ctx)))
	}

	resp := ErrorResponse{Error: message, Code: code}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Details = verr.Field
	}
	respondJSON(w, status, resp)
}

func classify(err error) (int, string, string) {
	var (
		verr *apperr.ValidationError
		gerr *apperr.GatewayError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_error", verr.Message
	case errors.As(err, &gerr):
		return http.StatusBadGateway, "payment_failed", gerr.Message
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart", err.Error()
	case errors.Is(err, checkout.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition", err.Error()
	case errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, cart.ErrMissingName),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidDelta):
		return http.StatusBadRequest, "invalid_argument", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "request timed out"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}
