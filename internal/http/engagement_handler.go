package http

import (
	"context"
	"net/http"
	"time"

	"github.com/joinsangha/storefront/internal/engagement/domain"
	"github.com/joinsangha/storefront/pkg/logger"
	"go.uber.org/zap"
)

type EngagementService interface {
	RecordView(ctx context.Context, postID string) (domain.Stats, error)
	RecordLike(ctx context.Context, postID, action string) (domain.Stats, domain.Action, error)
	GetStats(ctx context.Context, postID string) (map[string]domain.Stats, error)
}

type EngagementHandler struct {
	stats   EngagementService
	timeout time.Duration
	maxBody int64
	log     *zap.Logger
}

func NewEngagementHandler(stats EngagementService, timeout time.Duration, maxBody int64, log *zap.Logger) *EngagementHandler {
	return &EngagementHandler{stats: stats, timeout: timeout, maxBody: maxBody, log: log}
}

type TrackViewRequestDTO struct {
	PostID string `json:"postId"`
}

type TrackLikeRequestDTO struct {
	PostID string `json:"postId"`
	Action string `json:"action"`
}

type TrackResponseDTO struct {
	Success bool          `json:"success"`
	Views   float64       `json:"views"`
	Likes   int64         `json:"likes"`
	Action  domain.Action `json:"action,omitempty"`
}

func (h *EngagementHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req TrackViewRequestDTO
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}

	stats, err := h.stats.RecordView(ctx, req.PostID)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, TrackResponseDTO{Success: true, Views: stats.Views, Likes: stats.Likes})
}

func (h *EngagementHandler) TrackLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req TrackLikeRequestDTO
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}

	stats, action, err := h.stats.RecordLike(ctx, req.PostID, req.Action)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, TrackResponseDTO{Success: true, Views: stats.Views, Likes: stats.Likes, Action: action})
}

func (h *EngagementHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.stats.GetStats(ctx, r.URL.Query().Get("postId"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// fail keeps the {error} body these endpoints have always returned; storage
// failures become a generic 500.
func (h *EngagementHandler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status, code, message := classify(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(ctx, h.log).Error("engagement request failed", zap.Error(err))
		message = "Internal server error"
	}
	respondError(w, status, code, message)
}
