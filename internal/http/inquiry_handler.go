package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/joinsangha/storefront/internal/inquiry"
	"github.com/joinsangha/storefront/pkg/apperr"
	"go.uber.org/zap"
)

type InquiryRelay interface {
	SendSupport(ctx context.Context, req inquiry.SupportRequest) error
	SendPartnership(ctx context.Context, req inquiry.PartnershipRequest) error
	SendApplication(ctx context.Context, req inquiry.ApplicationRequest) error
}

type InquiryHandler struct {
	relay   InquiryRelay
	timeout time.Duration
	maxBody int64
	log     *zap.Logger
}

func NewInquiryHandler(relay InquiryRelay, timeout time.Duration, maxBody int64, log *zap.Logger) *InquiryHandler {
	return &InquiryHandler{relay: relay, timeout: timeout, maxBody: maxBody, log: log}
}

type ContactRequestDTO struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *InquiryHandler) SendSupport(w http.ResponseWriter, r *http.Request) {
	var req inquiry.SupportRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.relayForm(w, r, "Support ticket sent successfully", "Failed to send support ticket. Please try again.",
		func(ctx context.Context) error { return h.relay.SendSupport(ctx, req) })
}

func (h *InquiryHandler) SendPartnership(w http.ResponseWriter, r *http.Request) {
	var req inquiry.PartnershipRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.relayForm(w, r, "Email sent successfully", "Failed to send email. Please try again.",
		func(ctx context.Context) error { return h.relay.SendPartnership(ctx, req) })
}

func (h *InquiryHandler) SendApplication(w http.ResponseWriter, r *http.Request) {
	var req inquiry.ApplicationRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.relayForm(w, r, "Application sent successfully", "Failed to send application. Please try again.",
		func(ctx context.Context) error { return h.relay.SendApplication(ctx, req) })
}

// Contact acknowledges the message without forwarding it.
func (h *InquiryHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	h.log.Info("contact message received",
		zap.String("email", req.Email),
		zap.Int("message_length", len(req.Message)),
		zap.String("request_id", requestID(r.Context())))
	respondMessage(w, http.StatusOK, "Thank you for your message!")
}

func (h *InquiryHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, h.maxBody, dst); err != nil {
		respondMessage(w, http.StatusBadRequest, userMessage(err))
		return false
	}
	return true
}

func (h *InquiryHandler) relayForm(w http.ResponseWriter, r *http.Request, ok, failed string, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := send(ctx)
	var verr *apperr.ValidationError
	switch {
	case err == nil:
		respondMessage(w, http.StatusOK, ok)
	case errors.As(err, &verr):
		respondMessage(w, http.StatusBadRequest, verr.Message)
	default:
		h.log.Error("relay inquiry", zap.Error(err), zap.String("request_id", requestID(ctx)))
		respondMessage(w, http.StatusInternalServerError, failed)
	}
}
