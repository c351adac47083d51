package service

import (
	"context"
	"errors"
	"strings"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

// SlugInput creates a category or genre. An empty Slug is derived from Name.
type SlugInput struct {
	Name string
	Slug string
}

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error)
	Create(ctx context.Context, caller rbac.Identity, in SlugInput) (*models.Category, error)
	// Delete keeps the category's titles; they lose their category.
	Delete(ctx context.Context, caller rbac.Identity, slug string) error
}

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error)
	Create(ctx context.Context, caller rbac.Identity, in SlugInput) (*models.Genre, error)
	Delete(ctx context.Context, caller rbac.Identity, slug string) error
}

type categoryService struct {
	repo  repository.CategoryRepository
	authz Authorizer
}

func NewCategoryService(repo repository.CategoryRepository, authz Authorizer) CategoryService {
	return &categoryService{repo: repo, authz: authz}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error) {
	list, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err, "category")
	}
	return list, total, nil
}

func (s *categoryService) Create(ctx context.Context, caller rbac.Identity, in SlugInput) (*models.Category, error) {
	if err := s.authz.Authorize(caller, rbac.ActionCreate, rbac.ResourceCategory, rbac.Other); err != nil {
		return nil, err
	}
	name, slug, err := validateSlugInput(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, apperr.Conflict("slug", "category with this slug already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	c := &models.Category{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, duplicateOr(err, "category")
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, caller rbac.Identity, slug string) error {
	if err := s.authz.Authorize(caller, rbac.ActionDelete, rbac.ResourceCategory, rbac.Other); err != nil {
		return err
	}
	return storeError(s.repo.DeleteBySlug(ctx, slug), "category")
}

type genreService struct {
	repo  repository.GenreRepository
	authz Authorizer
}

func NewGenreService(repo repository.GenreRepository, authz Authorizer) GenreService {
	return &genreService{repo: repo, authz: authz}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error) {
	list, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err, "genre")
	}
	return list, total, nil
}

func (s *genreService) Create(ctx context.Context, caller rbac.Identity, in SlugInput) (*models.Genre, error) {
	if err := s.authz.Authorize(caller, rbac.ActionCreate, rbac.ResourceGenre, rbac.Other); err != nil {
		return nil, err
	}
	name, slug, err := validateSlugInput(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, apperr.Conflict("slug", "genre with this slug already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	g := &models.Genre{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, duplicateOr(err, "genre")
	}
	return g, nil
}

func (s *genreService) Delete(ctx context.Context, caller rbac.Identity, slug string) error {
	if err := s.authz.Authorize(caller, rbac.ActionDelete, rbac.ResourceGenre, rbac.Other); err != nil {
		return err
	}
	return storeError(s.repo.DeleteBySlug(ctx, slug), "genre")
}

func validateSlugInput(in SlugInput) (string, string, error) {
	name := strings.TrimSpace(in.Name)
	fe := apperr.FieldErrors{}
	if err := fe.Merge(validateRequired("name", name, maxNameLen)); err != nil {
		return "", "", err
	}
	var slug string
	if fe["name"] == nil || strings.TrimSpace(in.Slug) != "" {
		var err error
		slug, err = resolveSlug(in.Slug, name)
		if err := fe.Merge(err); err != nil {
			return "", "", err
		}
	}
	if err := fe.Err(); err != nil {
		return "", "", err
	}
	return name, slug, nil
}

// duplicateOr maps a lost uniqueness race on name to Conflict.
func duplicateOr(err error, resource string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict("name", resource+" with this name already exists.")
	}
	return storeError(err, resource)
}
