package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/respond"
	"yamdb/internal/microservices/http-api/service"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GET /api/v1/categories/?search=
func (h *CategoryHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.categoryService.List(ctx, c.Query("search"), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(dto.FromCategories(list), total, page, pageSize))
}

// POST /api/v1/categories/
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.SlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.categoryService.Create(ctx, middleware.IdentityFrom(c), req.ToInput())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromCategory(cat))
}

// DELETE /api/v1/categories/:slug/
func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.categoryService.Delete(ctx, middleware.IdentityFrom(c), c.Param("slug")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type GenreHandler struct {
	genreService service.GenreService
}

func NewGenreHandler(genreService service.GenreService) *GenreHandler {
	return &GenreHandler{genreService: genreService}
}

// GET /api/v1/genres/?search=
func (h *GenreHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.genreService.List(ctx, c.Query("search"), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(dto.FromGenres(list), total, page, pageSize))
}

// POST /api/v1/genres/
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.SlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	g, err := h.genreService.Create(ctx, middleware.IdentityFrom(c), req.ToInput())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromGenre(g))
}

// DELETE /api/v1/genres/:slug/
func (h *GenreHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.genreService.Delete(ctx, middleware.IdentityFrom(c), c.Param("slug")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
