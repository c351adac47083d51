package service

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
	"yamdb/internal/testutil"
)

// testStore wires the real repositories to an in-memory database.
type testStore struct {
	db         *gorm.DB
	users      repository.UserRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	titles     repository.TitleRepository
	reviews    repository.ReviewRepository
	comments   repository.CommentRepository
	policy     *rbac.Policy
	cache      *fakeRatingCache
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	db := testutil.NewDB(t)
	return &testStore{
		db:         db,
		users:      repository.NewUserRepository(db),
		categories: repository.NewCategoryRepo(db),
		genres:     repository.NewGenreRepo(db),
		titles:     repository.NewTitleRepo(db),
		reviews:    repository.NewReviewRepository(db),
		comments:   repository.NewCommentRepository(db),
		policy:     rbac.MustNewPolicy(discardLogger()),
		cache:      newFakeRatingCache(),
	}
}

func (s *testStore) titleService() TitleService {
	return NewTitleService(s.titles, s.categories, s.genres, s.reviews, s.cache, s.policy, discardLogger())
}

func (s *testStore) reviewService() ReviewService {
	return NewReviewService(s.reviews, s.titles, s.cache, s.policy, discardLogger())
}

func (s *testStore) commentService() CommentService {
	return NewCommentService(s.comments, s.reviews, s.policy)
}

func (s *testStore) userService() UserService {
	return NewUserService(s.users, s.reviews, s.cache, s.policy, discardLogger())
}

// fakeRatingCache is an in-process RatingCache that records invalidations.
type fakeRatingCache struct {
	mu          sync.Mutex
	entries     map[int64]*int
	invalidated []int64
}

func newFakeRatingCache() *fakeRatingCache {
	return &fakeRatingCache{entries: map[int64]*int{}}
}

func (c *fakeRatingCache) Get(_ context.Context, titleID int64) (*int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[titleID]
	return r, ok, nil
}

func (c *fakeRatingCache) Set(_ context.Context, titleID int64, rating *int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[titleID] = rating
	return nil
}

func (c *fakeRatingCache) Invalidate(_ context.Context, titleID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, titleID)
	c.invalidated = append(c.invalidated, titleID)
	return nil
}

func (c *fakeRatingCache) cached(titleID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[titleID]
	return ok
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }
