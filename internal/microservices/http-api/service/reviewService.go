package service

import (
	"context"
	"errors"
	"log/slog"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

type ReviewInput struct {
	Text  string
	Score *int
}

type ReviewChanges struct {
	Text  *string
	Score *int
}

type ReviewService interface {
	List(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	// Create fails with Conflict when the caller already reviewed the title.
	Create(ctx context.Context, caller rbac.Identity, titleID int64, in ReviewInput) (*models.Review, error)
	Update(ctx context.Context, caller rbac.Identity, titleID, reviewID int64, ch ReviewChanges) (*models.Review, error)
	Delete(ctx context.Context, caller rbac.Identity, titleID, reviewID int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
	ratings *ratings
	authz   Authorizer
}

func NewReviewService(
	reviews repository.ReviewRepository,
	titles repository.TitleRepository,
	cache RatingCache,
	authz Authorizer,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		reviews: reviews,
		titles:  titles,
		ratings: newRatings(reviews, cache, logger),
		authz:   authz,
	}
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	ok, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("title")
	}
	return nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	list, total, err := s.reviews.ListByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err, "review")
	}
	return list, total, nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, storeError(err, "review")
	}
	return review, nil
}

func (s *reviewService) Create(ctx context.Context, caller rbac.Identity, titleID int64, in ReviewInput) (*models.Review, error) {
	if err := s.authz.Authorize(caller, rbac.ActionCreate, rbac.ResourceReview, rbac.Own); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	fe := apperr.FieldErrors{}
	if err := fe.Merge(validateRequired("text", in.Text, maxTextLen)); err != nil {
		return nil, err
	}
	if in.Score == nil {
		fe.Add("score", "This field is required.")
	} else if err := fe.Merge(ValidateScore(*in.Score)); err != nil {
		return nil, err
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsForAuthor(ctx, titleID, caller.UserID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, alreadyReviewed()
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: caller.UserID,
		Text:     in.Text,
		Score:    *in.Score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		// the unique index settles concurrent creates
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, alreadyReviewed()
		}
		return nil, storeError(err, "title")
	}
	s.ratings.invalidate(ctx, titleID)
	return s.Get(ctx, titleID, review.ID)
}

func (s *reviewService) Update(ctx context.Context, caller rbac.Identity, titleID, reviewID int64, ch ReviewChanges) (*models.Review, error) {
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(caller, rbac.ActionUpdate, rbac.ResourceReview, caller.OwnershipOf(review.AuthorID)); err != nil {
		return nil, err
	}

	fe := apperr.FieldErrors{}
	if ch.Text != nil {
		review.Text = *ch.Text
		if err := fe.Merge(validateRequired("text", review.Text, maxTextLen)); err != nil {
			return nil, err
		}
	}
	if ch.Score != nil {
		review.Score = *ch.Score
		if err := fe.Merge(ValidateScore(review.Score)); err != nil {
			return nil, err
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, storeError(err, "review")
	}
	s.ratings.invalidate(ctx, titleID)
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, caller rbac.Identity, titleID, reviewID int64) error {
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(caller, rbac.ActionDelete, rbac.ResourceReview, caller.OwnershipOf(review.AuthorID)); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, titleID, reviewID); err != nil {
		return storeError(err, "review")
	}
	s.ratings.invalidate(ctx, titleID)
	return nil
}

func alreadyReviewed() error {
	return apperr.Conflict(apperr.NonFieldErrors, "You have already reviewed this title.")
}
