package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/joinsangha/storefront/internal/engagement/domain"
	"github.com/joinsangha/storefront/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository applies the same floor rule as the SQL upsert.
type MockRepository struct {
	mu    sync.Mutex
	Stats map[string]domain.Stats
	Err   error
	Calls int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{Stats: make(map[string]domain.Stats)}
}

func (m *MockRepository) Increment(_ context.Context, postID string, views float64, likes int64) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return domain.Stats{}, m.Err
	}
	s := m.Stats[postID]
	s.Views += views
	s.Likes = max(0, s.Likes+likes)
	m.Stats[postID] = s
	return s, nil
}

func (m *MockRepository) GetStats(_ context.Context, postID string) (map[string]domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.Stats)
	for id, s := range m.Stats {
		if postID == "" || id == postID {
			out[id] = s
		}
	}
	return out, nil
}

func TestRecordView_TwoViewsMakeOne(t *testing.T) {
	svc := NewEngagementService(NewMockRepository(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.RecordView(ctx, "hello-world")
	require.NoError(t, err)
	s, err := svc.RecordView(ctx, "hello-world")
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.Views)
}

func TestRecordView_MissingPostID(t *testing.T) {
	repo := NewMockRepository()
	svc := NewEngagementService(repo, zap.NewNop())

	_, err := svc.RecordView(context.Background(), "  ")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Post ID is required", verr.Message)
	assert.Zero(t, repo.Calls)
}

func TestRecordLike_FloorAtZero(t *testing.T) {
	svc := NewEngagementService(NewMockRepository(), zap.NewNop())
	ctx := context.Background()

	s, a, err := svc.RecordLike(ctx, "p", "like")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionLike, a)
	assert.Equal(t, int64(1), s.Likes)

	for i := 0; i < 3; i++ {
		s, a, err = svc.RecordLike(ctx, "p", "unlike")
		require.NoError(t, err)
	}
	assert.Equal(t, domain.ActionUnlike, a)
	assert.Equal(t, int64(0), s.Likes)
}

func TestRecordLike_Validation(t *testing.T) {
	repo := NewMockRepository()
	svc := NewEngagementService(repo, zap.NewNop())

	_, _, err := svc.RecordLike(context.Background(), "", "like")
	assert.ErrorIs(t, err, domain.ErrMissingAction)

	_, _, err = svc.RecordLike(context.Background(), "p", "")
	assert.ErrorIs(t, err, domain.ErrMissingAction)

	_, _, err = svc.RecordLike(context.Background(), "p", "love")
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
	assert.Zero(t, repo.Calls)
}

func TestRecordLike_RepositoryError(t *testing.T) {
	repo := NewMockRepository()
	repo.Err = errors.New("db down")
	svc := NewEngagementService(repo, zap.NewNop())

	_, _, err := svc.RecordLike(context.Background(), "p", "like")
	assert.EqualError(t, err, "db down")
}

func TestGetStats(t *testing.T) {
	repo := NewMockRepository()
	svc := NewEngagementService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.RecordView(ctx, "a")
	require.NoError(t, err)
	_, _, err = svc.RecordLike(ctx, "b", "like")
	require.NoError(t, err)

	all, err := svc.GetStats(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := svc.GetStats(ctx, " b ")
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Stats{"b": {Likes: 1}}, one)
}
