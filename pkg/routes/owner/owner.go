package owner

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/request"
)

type Owners interface {
	CreateOwner(ctx context.Context, input models.CreateOwnerInput) (*models.Owner, error)
	GetOwner(ctx context.Context, id string) (*models.Owner, error)
	ListOwners(ctx context.Context) ([]models.Owner, error)
	DeleteOwner(ctx context.Context, id string) error
}

type Handler struct {
	owners Owners
}

func NewHandler(owners Owners) *Handler {
	return &Handler{owners: owners}
}

// Register mounts the owner routes on /owners.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	owners, err := h.owners.ListOwners(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, owners)
}

func (h *Handler) Create(c echo.Context) error {
	input, err := request.Bind[models.CreateOwnerInput](c)
	if err != nil {
		return err
	}

	created, err := h.owners.CreateOwner(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	owner, err := h.owners.GetOwner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, owner)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.owners.DeleteOwner(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
