package repository

import (
	"context"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, reviewID, commentID int64) error
	GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	ListByReview(ctx context.Context, reviewID int64, page, pageSize int) ([]models.Comment, int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit("Author", "Review").Create(comment).Error
	return translateError(err, "create comment")
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND review_id = ?", comment.ID, comment.ReviewID).
		Update("text", comment.Text)
	if res.Error != nil {
		return translateError(res.Error, "update comment")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "update comment")
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, reviewID, commentID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND review_id = ?", commentID, reviewID).
		Delete(&models.Comment{})
	if res.Error != nil {
		return translateError(res.Error, "delete comment")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "delete comment")
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("id = ? AND review_id = ?", commentID, reviewID).
		Preload("Author").
		First(&comment).Error
	if err != nil {
		return nil, translateError(err, "get comment")
	}
	return &comment, nil
}

// ListByReview returns comments ordered by id.
func (r *commentRepository) ListByReview(ctx context.Context, reviewID int64, page, pageSize int) ([]models.Comment, int64, error) {
	var comments []models.Comment
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Comment{}).Where("review_id = ?", reviewID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count comments")
	}
	err := q.Preload("Author").
		Order("id asc").
		Scopes(paginate(page, pageSize)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, translateError(err, "list comments")
	}
	return comments, total, nil
}
