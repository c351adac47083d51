package repository

import (
	"context"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter narrows List; zero values are ignored.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

type TitleRepository interface {
	Create(ctx context.Context, t *models.Title) error
	// Update writes scalar columns; genres are replaced only when replaceGenres is set.
	Update(ctx context.Context, t *models.Title, replaceGenres bool) error
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	Delete(ctx context.Context, id int64) error
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	// link existing genres only, never upsert them
	err := r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(t).Error
	return translateError(err, "create title")
}

func (r *TitleRepo) Update(ctx context.Context, t *models.Title, replaceGenres bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Title{}).
			Where("id = ?", t.ID).
			Select("name", "year", "description", "category_id").
			Updates(map[string]interface{}{
				"name":        t.Name,
				"year":        t.Year,
				"description": t.Description,
				"category_id": t.CategoryID,
			})
		if res.Error != nil {
			return translateError(res.Error, "update title")
		}
		if res.RowsAffected == 0 {
			return translateError(gorm.ErrRecordNotFound, "update title")
		}
		if !replaceGenres {
			return nil
		}
		genres := t.Genres
		if genres == nil {
			genres = []models.Genre{}
		}
		if err := tx.Model(&models.Title{ID: t.ID}).Omit("Genres.*").Association("Genres").Replace(genres); err != nil {
			return translateError(err, "replace title genres")
		}
		return nil
	})
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.id asc") }).
		First(&t, id).Error
	if err != nil {
		return nil, translateError(err, "get title")
	}
	return &t, nil
}

func (r *TitleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, translateError(err, "check title")
	}
	return n > 0, nil
}

func (r *TitleRepo) List(ctx context.Context, f TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Title{})
	if f.CategorySlug != "" {
		q = q.Where("titles.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", f.CategorySlug))
	}
	if f.GenreSlug != "" {
		q = q.Where("titles.id IN (?)",
			r.db.Table("title_genres").
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", f.GenreSlug))
	}
	if f.Name != "" {
		q = q.Where("LOWER(titles.name) LIKE ? ESCAPE '\\'", "%"+lowerLike(f.Name)+"%")
	}
	if f.Year != nil {
		q = q.Where("titles.year = ?", *f.Year)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count titles")
	}
	err := q.
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.id asc") }).
		Order("titles.id asc").
		Scopes(paginate(page, pageSize)).
		Find(&list).Error
	if err != nil {
		return nil, 0, translateError(err, "list titles")
	}
	return list, total, nil
}

// Delete removes the title together with its reviews, their comments and genre links.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&models.Comment{}).Error; err != nil {
			return translateError(err, "delete title comments")
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return translateError(err, "delete title reviews")
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
			return translateError(err, "unlink title genres")
		}
		res := tx.Delete(&models.Title{}, id)
		if res.Error != nil {
			return translateError(res.Error, "delete title")
		}
		if res.RowsAffected == 0 {
			return translateError(gorm.ErrRecordNotFound, "delete title")
		}
		return nil
	})
}
