package service

import (
	"context"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error)
	Create(ctx context.Context, caller rbac.Identity, titleID, reviewID int64, text string) (*models.Comment, error)
	Update(ctx context.Context, caller rbac.Identity, titleID, reviewID, commentID int64, text *string) (*models.Comment, error)
	Delete(ctx context.Context, caller rbac.Identity, titleID, reviewID, commentID int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	authz    Authorizer
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository, authz Authorizer) CommentService {
	return &commentService{comments: comments, reviews: reviews, authz: authz}
}

// requireReview checks that the review exists under the given title.
func (s *commentService) requireReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviews.GetByID(ctx, titleID, reviewID); err != nil {
		return storeError(err, "review")
	}
	return nil
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	list, total, err := s.comments.ListByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err, "comment")
	}
	return list, total, nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	c, err := s.comments.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, storeError(err, "comment")
	}
	return c, nil
}

func (s *commentService) Create(ctx context.Context, caller rbac.Identity, titleID, reviewID int64, text string) (*models.Comment, error) {
	if err := s.authz.Authorize(caller, rbac.ActionCreate, rbac.ResourceComment, rbac.Own); err != nil {
		return nil, err
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateRequired("text", text, maxTextLen); err != nil {
		return nil, err
	}

	c := &models.Comment{ReviewID: reviewID, AuthorID: caller.UserID, Text: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, storeError(err, "review")
	}
	return s.Get(ctx, titleID, reviewID, c.ID)
}

func (s *commentService) Update(ctx context.Context, caller rbac.Identity, titleID, reviewID, commentID int64, text *string) (*models.Comment, error) {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(caller, rbac.ActionUpdate, rbac.ResourceComment, caller.OwnershipOf(c.AuthorID)); err != nil {
		return nil, err
	}
	if text == nil {
		return c, nil
	}
	if err := validateRequired("text", *text, maxTextLen); err != nil {
		return nil, err
	}
	c.Text = *text
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, storeError(err, "comment")
	}
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, caller rbac.Identity, titleID, reviewID, commentID int64) error {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(caller, rbac.ActionDelete, rbac.ResourceComment, caller.OwnershipOf(c.AuthorID)); err != nil {
		return err
	}
	return storeError(s.comments.Delete(ctx, reviewID, commentID), "comment")
}
