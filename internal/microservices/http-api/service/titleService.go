package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

// TitleInput creates a title. Category and Genres are slugs.
type TitleInput struct {
	Name        string
	Year        *int
	Description string
	Category    string
	Genres      []string
}

// TitleChanges is a partial update. An empty Category clears it.
type TitleChanges struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genres      *[]string
}

// TitleView is a title with its derived rating.
type TitleView struct {
	models.Title
	Rating *int
}

type TitleService interface {
	List(ctx context.Context, f repository.TitleFilter, page, pageSize int) ([]TitleView, int64, error)
	Get(ctx context.Context, id int64) (*TitleView, error)
	Create(ctx context.Context, caller rbac.Identity, in TitleInput) (*TitleView, error)
	Update(ctx context.Context, caller rbac.Identity, id int64, ch TitleChanges) (*TitleView, error)
	Delete(ctx context.Context, caller rbac.Identity, id int64) error
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	ratings    *ratings
	authz      Authorizer
	now        func() time.Time
}

func NewTitleService(
	titles repository.TitleRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
	reviews repository.ReviewRepository,
	cache RatingCache,
	authz Authorizer,
	logger *slog.Logger,
) TitleService {
	return &titleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		ratings:    newRatings(reviews, cache, logger),
		authz:      authz,
		now:        time.Now,
	}
}

func (s *titleService) List(ctx context.Context, f repository.TitleFilter, page, pageSize int) ([]TitleView, int64, error) {
	list, total, err := s.titles.List(ctx, f, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err, "title")
	}
	ids := make([]int64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	rs, err := s.ratings.forTitles(ctx, ids)
	if err != nil {
		return nil, 0, storeError(err, "title")
	}
	views := make([]TitleView, len(list))
	for i := range list {
		views[i] = TitleView{Title: list[i], Rating: rs[list[i].ID]}
	}
	return views, total, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*TitleView, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "title")
	}
	rating, err := s.ratings.forTitle(ctx, id)
	if err != nil {
		return nil, storeError(err, "title")
	}
	return &TitleView{Title: *t, Rating: rating}, nil
}

func (s *titleService) Create(ctx context.Context, caller rbac.Identity, in TitleInput) (*TitleView, error) {
	if err := s.authz.Authorize(caller, rbac.ActionCreate, rbac.ResourceTitle, rbac.Other); err != nil {
		return nil, err
	}

	t := &models.Title{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}
	fe := apperr.FieldErrors{}
	if err := fe.Merge(validateRequired("name", t.Name, maxNameLen)); err != nil {
		return nil, err
	}
	if in.Year == nil {
		fe.Add("year", "This field is required.")
	} else {
		t.Year = *in.Year
		if err := fe.Merge(s.validateYear(t.Year)); err != nil {
			return nil, err
		}
	}
	if err := s.resolveCategory(ctx, t, in.Category, fe); err != nil {
		return nil, err
	}
	if err := s.resolveGenres(ctx, t, in.Genres, fe); err != nil {
		return nil, err
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	if err := s.titles.Create(ctx, t); err != nil {
		return nil, storeError(err, "title")
	}
	return s.Get(ctx, t.ID)
}

func (s *titleService) Update(ctx context.Context, caller rbac.Identity, id int64, ch TitleChanges) (*TitleView, error) {
	if err := s.authz.Authorize(caller, rbac.ActionUpdate, rbac.ResourceTitle, rbac.Other); err != nil {
		return nil, err
	}
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "title")
	}

	fe := apperr.FieldErrors{}
	if ch.Name != nil {
		t.Name = strings.TrimSpace(*ch.Name)
		if err := fe.Merge(validateRequired("name", t.Name, maxNameLen)); err != nil {
			return nil, err
		}
	}
	if ch.Year != nil {
		t.Year = *ch.Year
		if err := fe.Merge(s.validateYear(t.Year)); err != nil {
			return nil, err
		}
	}
	if ch.Description != nil {
		t.Description = *ch.Description
	}
	if ch.Category != nil {
		if err := s.resolveCategory(ctx, t, *ch.Category, fe); err != nil {
			return nil, err
		}
	}
	if ch.Genres != nil {
		if err := s.resolveGenres(ctx, t, *ch.Genres, fe); err != nil {
			return nil, err
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	if err := s.titles.Update(ctx, t, ch.Genres != nil); err != nil {
		return nil, storeError(err, "title")
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, caller rbac.Identity, id int64) error {
	if err := s.authz.Authorize(caller, rbac.ActionDelete, rbac.ResourceTitle, rbac.Other); err != nil {
		return err
	}
	if err := s.titles.Delete(ctx, id); err != nil {
		return storeError(err, "title")
	}
	s.ratings.invalidate(ctx, id)
	return nil
}

func (s *titleService) validateYear(year int) error {
	if year < 0 {
		return apperr.Validation("year", "Ensure this value is greater than or equal to 0.")
	}
	return ValidateYear(year, s.now())
}

func (s *titleService) resolveCategory(ctx context.Context, t *models.Title, slug string, fe apperr.FieldErrors) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		t.CategoryID = nil
		t.Category = nil
		return nil
	}
	c, err := s.categories.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		fe.Add("category", fmt.Sprintf("Object with slug=%s does not exist.", slug))
		return nil
	}
	if err != nil {
		return apperr.Internal(err)
	}
	t.CategoryID = &c.ID
	t.Category = c
	return nil
}

func (s *titleService) resolveGenres(ctx context.Context, t *models.Title, slugs []string, fe apperr.FieldErrors) error {
	uniq := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, sl := range slugs {
		sl = strings.TrimSpace(sl)
		if sl == "" || seen[sl] {
			continue
		}
		seen[sl] = true
		uniq = append(uniq, sl)
	}
	found, err := s.genres.FindBySlugs(ctx, uniq)
	if err != nil {
		return apperr.Internal(err)
	}
	if len(found) != len(uniq) {
		have := make(map[string]bool, len(found))
		for _, g := range found {
			have[g.Slug] = true
		}
		for _, sl := range uniq {
			if !have[sl] {
				fe.Add("genre", fmt.Sprintf("Object with slug=%s does not exist.", sl))
			}
		}
		return nil
	}
	t.Genres = found
	return nil
}
