package http

import (
	"context"
	"net/http"
	"time"

	"github.com/joinsangha/storefront/internal/feed"
	"go.uber.org/zap"
)

type MerchandiseSource interface {
	Merchandise(ctx context.Context) ([]feed.Product, error)
}

type BlogSource interface {
	Posts(ctx context.Context) []feed.Post
}

type JobSource interface {
	Jobs(ctx context.Context) ([]feed.Job, error)
}

type FeedHandler struct {
	merch   MerchandiseSource
	blog    BlogSource
	jobs    JobSource
	timeout time.Duration
	log     *zap.Logger
}

func NewFeedHandler(merch MerchandiseSource, blog BlogSource, jobs JobSource, timeout time.Duration, log *zap.Logger) *FeedHandler {
	return &FeedHandler{merch: merch, blog: blog, jobs: jobs, timeout: timeout, log: log}
}

func (h *FeedHandler) GetMerchandise(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.merch.Merchandise(ctx)
	if err != nil {
		h.log.Error("fetch merchandise", zap.Error(err), zap.String("request_id", requestID(ctx)))
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch merchandise data")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GetBlogPosts never fails: the blog falls back to built-in posts.
func (h *FeedHandler) GetBlogPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.blog.Posts(ctx))
}

func (h *FeedHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	jobs, err := h.jobs.Jobs(ctx)
	if err != nil {
		h.log.Error("fetch jobs", zap.Error(err), zap.String("request_id", requestID(ctx)))
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch job listings")
		return
	}

	respondJSON(w, http.StatusOK, jobs)
}
