package dto

import (
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"
)

// SlugRequest creates a category or genre.
type SlugRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// SlugResponse is the public shape of categories and genres.
type SlugResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (d SlugRequest) ToInput() service.SlugInput {
	return service.SlugInput{Name: d.Name, Slug: d.Slug}
}

func FromCategory(c *models.Category) SlugResponse {
	return SlugResponse{Name: c.Name, Slug: c.Slug}
}

func FromCategories(list []models.Category) []SlugResponse {
	out := make([]SlugResponse, len(list))
	for i := range list {
		out[i] = FromCategory(&list[i])
	}
	return out
}

func FromGenre(g *models.Genre) SlugResponse {
	return SlugResponse{Name: g.Name, Slug: g.Slug}
}

func FromGenres(list []models.Genre) []SlugResponse {
	out := make([]SlugResponse, len(list))
	for i := range list {
		out[i] = FromGenre(&list[i])
	}
	return out
}
