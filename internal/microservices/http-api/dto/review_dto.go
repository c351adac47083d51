package dto

import (
	"time"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"
)

// CreateReviewDTO for creating a review
type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required"`
	Score *int   `json:"score"`
}

// UpdateReviewDTO for partial review updates
type UpdateReviewDTO struct {
	Text  *string `json:"text,omitempty"`
	Score *int    `json:"score,omitempty"`
}

// ReviewResponse exposes the author by username.
type ReviewResponse struct {
	ID      int64     `json:"id"`
	Title   int64     `json:"title"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func (d CreateReviewDTO) ToInput() service.ReviewInput {
	return service.ReviewInput{Text: d.Text, Score: d.Score}
}

func (d UpdateReviewDTO) ToChanges() service.ReviewChanges {
	return service.ReviewChanges{Text: d.Text, Score: d.Score}
}

func FromReview(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Title:   r.TitleID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

func FromReviews(list []models.Review) []ReviewResponse {
	out := make([]ReviewResponse, len(list))
	for i := range list {
		out[i] = FromReview(&list[i])
	}
	return out
}
