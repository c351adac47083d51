package dto

import (
	"yamdb/internal/microservices/http-api/service"
)

// CreateTitleDTO used for POST /titles/
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required"`
	Year        *int     `json:"year"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genre       []string `json:"genre"`
}

// UpdateTitleDTO used for PATCH /titles/:title_id/ (partial updates allowed)
type UpdateTitleDTO struct {
	Name        *string   `json:"name,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Genre       *[]string `json:"genre,omitempty"`
}

// TitleResponse nests category and genres and carries the derived rating.
type TitleResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Year        int            `json:"year"`
	Rating      *int           `json:"rating"`
	Description string         `json:"description"`
	Genre       []SlugResponse `json:"genre"`
	Category    *SlugResponse  `json:"category"`
}

func (d CreateTitleDTO) ToInput() service.TitleInput {
	return service.TitleInput{
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
		Category:    d.Category,
		Genres:      d.Genre,
	}
}

func (d UpdateTitleDTO) ToChanges() service.TitleChanges {
	return service.TitleChanges{
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
		Category:    d.Category,
		Genres:      d.Genre,
	}
}

func FromTitle(v *service.TitleView) TitleResponse {
	resp := TitleResponse{
		ID:          v.ID,
		Name:        v.Name,
		Year:        v.Year,
		Rating:      v.Rating,
		Description: v.Description,
		Genre:       FromGenres(v.Genres),
	}
	if v.Category != nil {
		c := FromCategory(v.Category)
		resp.Category = &c
	}
	return resp
}

func FromTitles(list []service.TitleView) []TitleResponse {
	out := make([]TitleResponse, len(list))
	for i := range list {
		out[i] = FromTitle(&list[i])
	}
	return out
}
