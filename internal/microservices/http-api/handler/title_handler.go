package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/respond"
	"yamdb/internal/microservices/http-api/service"
)

type TitleHandler struct {
	titleService service.TitleService
}

func NewTitleHandler(titleService service.TitleService) *TitleHandler {
	return &TitleHandler{titleService: titleService}
}

// List supports ?category=<slug>&genre=<slug>&name=<substring>&year=<int>
// GET /api/v1/titles/
func (h *TitleHandler) List(c *gin.Context) {
	f := repository.TitleFilter{
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Name:         c.Query("name"),
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			respond.Error(c, apperr.Validation("year", "Enter a whole number."))
			return
		}
		f.Year = &year
	}
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.titleService.List(ctx, f, page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(dto.FromTitles(list), total, page, pageSize))
}

// GET /api/v1/titles/:title_id/
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	v, err := h.titleService.Get(ctx, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTitle(v))
}

// POST /api/v1/titles/
func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	v, err := h.titleService.Create(ctx, middleware.IdentityFrom(c), req.ToInput())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTitle(v))
}

// PATCH /api/v1/titles/:title_id/
func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}
	var req dto.UpdateTitleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	v, err := h.titleService.Update(ctx, middleware.IdentityFrom(c), id, req.ToChanges())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTitle(v))
}

// DELETE /api/v1/titles/:title_id/
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "title_id", "title")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.titleService.Delete(ctx, middleware.IdentityFrom(c), id); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
