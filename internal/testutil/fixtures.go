package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/rbac"
)

// CreateUser inserts a confirmed account with the given role.
func CreateUser(t *testing.T, db *gorm.DB, username string, role rbac.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username:         username,
		Email:            username + "@example.com",
		Role:             role,
		ConfirmationCode: "code-" + username,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCategory inserts a category.
func CreateCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slug}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateGenre inserts a genre.
func CreateGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	t.Helper()
	g := &models.Genre{Name: name, Slug: slug}
	require.NoError(t, db.Create(g).Error)
	return g
}

// CreateTitle inserts a title linked to the given category and genres.
func CreateTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category, genres ...*models.Genre) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	require.NoError(t, db.Omit("Category", "Genres").Create(title).Error)
	for _, g := range genres {
		require.NoError(t, db.Create(&models.TitleGenre{TitleID: title.ID, GenreID: g.ID}).Error)
	}
	return title
}

// CreateReview inserts a review by author on title.
func CreateReview(t *testing.T, db *gorm.DB, title *models.Title, author *models.User, score int) *models.Review {
	t.Helper()
	r := &models.Review{TitleID: title.ID, AuthorID: author.ID, Text: "review by " + author.Username, Score: score}
	require.NoError(t, db.Omit("Author", "Title").Create(r).Error)
	return r
}

// CreateComment inserts a comment by author on review.
func CreateComment(t *testing.T, db *gorm.DB, review *models.Review, author *models.User, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{ReviewID: review.ID, AuthorID: author.ID, Text: text}
	require.NoError(t, db.Omit("Author", "Review").Create(c).Error)
	return c
}
