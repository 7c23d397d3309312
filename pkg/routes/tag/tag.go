package tag

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/events"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/request"
)

const defaultPopularLimit = 10

type Tags interface {
	CreateTag(ctx context.Context, input models.CreateTagInput) (*models.Tag, error)
	GetTag(ctx context.Context, id string) (*models.Tag, error)
	ListTags(ctx context.Context, includeInactive bool) ([]models.Tag, error)
	UpdateTag(ctx context.Context, id string, input models.UpdateTagInput) (*models.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	SearchTags(ctx context.Context, query string) ([]models.Tag, error)
	PopularTags(ctx context.Context, limit int) ([]models.TagUsage, error)
	ContactsWithTag(ctx context.Context, tagID string) ([]models.Contact, error)
	ContactsWithEmailForTag(ctx context.Context, tagID string) ([]models.Contact, error)
	AddTagToContacts(ctx context.Context, tagID string, contactIDs []string) (*models.BatchResult, error)
	RemoveTagFromContacts(ctx context.Context, tagID string, contactIDs []string) (*models.BatchResult, error)
}

type Handler struct {
	tags   Tags
	events *events.Emitter
}

func NewHandler(tags Tags, emitter *events.Emitter) *Handler {
	return &Handler{tags: tags, events: emitter}
}

// Register mounts the tag routes on /tags.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/search", h.Search)
	g.GET("/popular", h.Popular)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/contacts", h.Contacts)
	g.POST("/:id/contacts", h.AddContacts)
	g.POST("/:id/contacts/remove", h.RemoveContacts)
}

func (h *Handler) List(c echo.Context) error {
	includeInactive, err := request.Bool(c, "include_inactive")
	if err != nil {
		return err
	}

	tags, err := h.tags.ListTags(c.Request().Context(), includeInactive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	input, err := request.Bind[models.CreateTagInput](c)
	if err != nil {
		return err
	}

	created, err := h.tags.CreateTag(ctx, input)
	if err != nil {
		return err
	}

	h.events.TagCreated(ctx, created)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Search(c echo.Context) error {
	tags, err := h.tags.SearchTags(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *Handler) Popular(c echo.Context) error {
	limit, err := request.Int(c, "limit", defaultPopularLimit)
	if err != nil {
		return err
	}

	usage, err := h.tags.PopularTags(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usage)
}

func (h *Handler) Get(c echo.Context) error {
	tag, err := h.tags.GetTag(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	input, err := request.Bind[models.UpdateTagInput](c)
	if err != nil {
		return err
	}

	updated, err := h.tags.UpdateTag(ctx, c.Param("id"), input)
	if err != nil {
		return err
	}

	h.events.TagUpdated(ctx, updated)
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if err := h.tags.DeleteTag(ctx, id); err != nil {
		return err
	}

	h.events.TagDeleted(ctx, id)
	return c.NoContent(http.StatusNoContent)
}

// Contacts lists the tagged contacts; with_email=true keeps only those that
// can be emailed.
func (h *Handler) Contacts(c echo.Context) error {
	ctx := c.Request().Context()

	withEmail, err := request.Bool(c, "with_email")
	if err != nil {
		return err
	}

	var contacts []models.Contact
	if withEmail {
		contacts, err = h.tags.ContactsWithEmailForTag(ctx, c.Param("id"))
	} else {
		contacts, err = h.tags.ContactsWithTag(ctx, c.Param("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contacts)
}

type ContactIDsRequest struct {
	ContactIDs []string `json:"contact_ids" validate:"required,min=1"`
}

func (h *Handler) AddContacts(c echo.Context) error {
	ctx := c.Request().Context()
	tagID := c.Param("id")

	req, err := request.Bind[ContactIDsRequest](c)
	if err != nil {
		return err
	}

	result, err := h.tags.AddTagToContacts(ctx, tagID, req.ContactIDs)
	if err != nil {
		return err
	}

	for _, contactID := range result.Applied(req.ContactIDs) {
		h.events.TagsChanged(ctx, contactID, []string{tagID}, nil)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RemoveContacts(c echo.Context) error {
	ctx := c.Request().Context()
	tagID := c.Param("id")

	req, err := request.Bind[ContactIDsRequest](c)
	if err != nil {
		return err
	}

	result, err := h.tags.RemoveTagFromContacts(ctx, tagID, req.ContactIDs)
	if err != nil {
		return err
	}

	for _, contactID := range result.Applied(req.ContactIDs) {
		h.events.TagsChanged(ctx, contactID, nil, []string{tagID})
	}
	return c.JSON(http.StatusOK, result)
}
