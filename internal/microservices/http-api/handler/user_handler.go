package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/respond"
	"yamdb/internal/microservices/http-api/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/v1/users/?search=&page=1&page_size=20
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	users, total, err := h.userService.List(ctx, middleware.IdentityFrom(c), c.Query("search"), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(dto.FromUsers(users), total, page, pageSize))
}

// POST /api/v1/users/
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.userService.Create(ctx, middleware.IdentityFrom(c), req.ToInput())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// Get serves /users/:username/; "me" resolves to the caller.
func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	caller := middleware.IdentityFrom(c)
	username := c.Param("username")
	var user *models.User
	var err error
	if username == service.ReservedUsername {
		user, err = h.userService.Me(ctx, caller)
	} else {
		user, err = h.userService.Get(ctx, caller, username)
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// Update serves PATCH /users/:username/; role is ignored on /users/me/.
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	caller := middleware.IdentityFrom(c)
	username := c.Param("username")
	var user *models.User
	var err error
	if username == service.ReservedUsername {
		user, err = h.userService.UpdateMe(ctx, caller, req.ToChanges())
	} else {
		user, err = h.userService.Update(ctx, caller, username, req.ToChanges())
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// DELETE /api/v1/users/:username/
func (h *UserHandler) Delete(c *gin.Context) {
	username := c.Param("username")
	if username == service.ReservedUsername {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": `method "DELETE" not allowed`, "code": "method_not_allowed"})
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.userService.Delete(ctx, middleware.IdentityFrom(c), username); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
