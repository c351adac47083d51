package service

import (
	"context"
	"log/slog"

	"yamdb/internal/microservices/http-api/repository"
)

// RatingCache stores computed title ratings. nil rating means "no reviews".
type RatingCache interface {
	Get(ctx context.Context, titleID int64) (*int, bool, error)
	Set(ctx context.Context, titleID int64, rating *int) error
	Invalidate(ctx context.Context, titleID int64) error
}

// ratings derives a title's rating from its review scores. The cache is
// best-effort: its failures are logged and the store is used instead.
type ratings struct {
	reviews repository.ReviewRepository
	cache   RatingCache
	logger  *slog.Logger
}

func newRatings(reviews repository.ReviewRepository, cache RatingCache, logger *slog.Logger) *ratings {
	return &ratings{reviews: reviews, cache: cache, logger: logger}
}

// toRating truncates the average to an integer.
func toRating(avg float64) *int {
	n := int(avg)
	return &n
}

func (r *ratings) forTitle(ctx context.Context, titleID int64) (*int, error) {
	if r.cache != nil {
		if rating, ok, err := r.cache.Get(ctx, titleID); err != nil {
			r.logger.WarnContext(ctx, "rating cache get failed", "title_id", titleID, "error", err)
		} else if ok {
			return rating, nil
		}
	}
	avg, err := r.reviews.AverageScore(ctx, titleID)
	if err != nil {
		return nil, err
	}
	var rating *int
	if avg != nil {
		rating = toRating(*avg)
	}
	r.store(ctx, titleID, rating)
	return rating, nil
}

func (r *ratings) forTitles(ctx context.Context, titleIDs []int64) (map[int64]*int, error) {
	out := make(map[int64]*int, len(titleIDs))
	misses := make([]int64, 0, len(titleIDs))
	for _, id := range titleIDs {
		if r.cache != nil {
			rating, ok, err := r.cache.Get(ctx, id)
			if err != nil {
				r.logger.WarnContext(ctx, "rating cache get failed", "title_id", id, "error", err)
			} else if ok {
				out[id] = rating
				continue
			}
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}
	avgs, err := r.reviews.AverageScores(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, id := range misses {
		var rating *int
		if avg, ok := avgs[id]; ok {
			rating = toRating(avg)
		}
		out[id] = rating
		r.store(ctx, id, rating)
	}
	return out, nil
}

func (r *ratings) store(ctx context.Context, titleID int64, rating *int) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, titleID, rating); err != nil {
		r.logger.WarnContext(ctx, "rating cache set failed", "title_id", titleID, "error", err)
	}
}

func (r *ratings) invalidate(ctx context.Context, titleID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, titleID); err != nil {
		r.logger.WarnContext(ctx, "rating cache invalidate failed", "title_id", titleID, "error", err)
	}
}
