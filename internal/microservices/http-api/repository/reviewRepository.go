package repository

import (
	"context"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	// Create fails with ErrDuplicate when the author already reviewed the title.
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, titleID, reviewID int64) error
	GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	ExistsForAuthor(ctx context.Context, titleID int64, authorID string) (bool, error)
	TitleIDsByAuthor(ctx context.Context, authorID string) ([]int64, error)
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	AverageScore(ctx context.Context, titleID int64) (*float64, error)
	AverageScores(ctx context.Context, titleIDs []int64) (map[int64]float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Omit("Author", "Title").Create(review).Error
	return translateError(err, "create review")
}

// Update changes text and score only; pub_date and author are fixed at creation.
func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	res := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ? AND title_id = ?", review.ID, review.TitleID).
		Updates(map[string]interface{}{"text": review.Text, "score": review.Score})
	if res.Error != nil {
		return translateError(res.Error, "update review")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "update review")
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, titleID, reviewID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND title_id = ?", reviewID, titleID).Delete(&models.Review{})
		if res.Error != nil {
			return translateError(res.Error, "delete review")
		}
		if res.RowsAffected == 0 {
			return translateError(gorm.ErrRecordNotFound, "delete review")
		}
		if err := tx.Where("review_id = ?", reviewID).Delete(&models.Comment{}).Error; err != nil {
			return translateError(err, "delete review comments")
		}
		return nil
	})
}

func (r *reviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ? AND title_id = ?", reviewID, titleID).
		Preload("Author").
		First(&review).Error
	if err != nil {
		return nil, translateError(err, "get review")
	}
	return &review, nil
}

func (r *reviewRepository) ExistsForAuthor(ctx context.Context, titleID int64, authorID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&n).Error
	if err != nil {
		return false, translateError(err, "check review")
	}
	return n > 0, nil
}

func (r *reviewRepository) TitleIDsByAuthor(ctx context.Context, authorID string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("author_id = ?", authorID).
		Distinct().
		Pluck("title_id", &ids).Error
	if err != nil {
		return nil, translateError(err, "list reviewed titles")
	}
	return ids, nil
}

// ListByTitle returns reviews in insertion order.
func (r *reviewRepository) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	var reviews []models.Review
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count reviews")
	}
	err := q.Preload("Author").
		Order("id asc").
		Scopes(paginate(page, pageSize)).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, translateError(err, "list reviews")
	}
	return reviews, total, nil
}

// AverageScore is nil when the title has no reviews.
func (r *reviewRepository) AverageScore(ctx context.Context, titleID int64) (*float64, error) {
	var avg struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(score) AS average, COUNT(*) AS count").
		Where("title_id = ?", titleID).
		Scan(&avg).Error
	if err != nil {
		return nil, translateError(err, "average score")
	}
	if avg.Count == 0 {
		return nil, nil
	}
	return avg.Average, nil
}

// AverageScores omits titles without reviews from the result.
func (r *reviewRepository) AverageScores(ctx context.Context, titleIDs []int64) (map[int64]float64, error) {
	out := make(map[int64]float64, len(titleIDs))
	if len(titleIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TitleID int64
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("title_id, AVG(score) AS average").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "average scores")
	}
	for _, row := range rows {
		out[row.TitleID] = row.Average
	}
	return out, nil
}
