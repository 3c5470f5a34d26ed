package service

import (
	"context"
	"strings"

	"github.com/joinsangha/storefront/internal/engagement/domain"
	r "github.com/joinsangha/storefront/internal/engagement/repository"
	"go.uber.org/zap"
)

type EngagementService struct {
	repo r.StatsRepository
	log  *zap.Logger
}

func NewEngagementService(repo r.StatsRepository, log *zap.Logger) *EngagementService {
	return &EngagementService{repo: repo, log: log}
}

// RecordView adds one view increment. Every call counts; callers throttle.
func (s *EngagementService) RecordView(ctx context.Context, postID string) (domain.Stats, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return domain.Stats{}, domain.ErrMissingPostID
	}

	stats, err := s.repo.Increment(ctx, postID, domain.ViewIncrement, 0)
	if err != nil {
		s.log.Error("failed to record view", zap.String("post_id", postID), zap.Error(err))
		return domain.Stats{}, err
	}
	return stats, nil
}

func (s *EngagementService) RecordLike(ctx context.Context, postID, action string) (domain.Stats, domain.Action, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return domain.Stats{}, "", domain.ErrMissingAction
	}
	a, err := domain.ParseAction(action)
	if err != nil {
		return domain.Stats{}, "", err
	}

	stats, err := s.repo.Increment(ctx, postID, 0, a.Delta())
	if err != nil {
		s.log.Error("failed to record like", zap.String("post_id", postID), zap.String("action", string(a)), zap.Error(err))
		return domain.Stats{}, "", err
	}
	return stats, a, nil
}

func (s *EngagementService) GetStats(ctx context.Context, postID string) (map[string]domain.Stats, error) {
	return s.repo.GetStats(ctx, strings.TrimSpace(postID))
}
