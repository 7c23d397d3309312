package contact

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/consolidation"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/events"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/request"
)

type Contacts interface {
	Create(ctx context.Context, input models.CreateContactInput) (*models.Contact, error)
	Update(ctx context.Context, id string, input models.UpdateContactInput) (*models.Contact, error)
	FindOne(ctx context.Context, id string) (*models.Contact, error)
	Remove(ctx context.Context, id string) error
	FindAll(ctx context.Context, filter models.ContactFilter) (*models.Page[models.Contact], error)
}

type Consolidation interface {
	Ingest(ctx context.Context, input models.CreateContactInput) (*consolidation.IngestResult, error)
	Merge(ctx context.Context, req consolidation.MergeRequest) (*consolidation.MergeResult, error)
}

type Associations interface {
	OwnersForContact(ctx context.Context, contactID string) ([]models.Owner, error)
	AddOwner(ctx context.Context, contactID, ownerID string) error
	RemoveOwner(ctx context.Context, contactID, ownerID string) error
	TagsForContact(ctx context.Context, contactID string) ([]models.Tag, error)
	AddTag(ctx context.Context, contactID, tagID string) error
	RemoveTag(ctx context.Context, contactID, tagID string) error
	AddTagsToContact(ctx context.Context, contactID string, tagIDs []string) (*models.BatchResult, error)
	RemoveTagsFromContact(ctx context.Context, contactID string, tagIDs []string) (*models.BatchResult, error)
}

type Handler struct {
	contacts      Contacts
	consolidation Consolidation
	associations  Associations
	events        *events.Emitter
	defaultLimit  int
}

func NewHandler(contacts Contacts, consolidation Consolidation, associations Associations, emitter *events.Emitter, defaultLimit int) *Handler {
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &Handler{
		contacts:      contacts,
		consolidation: consolidation,
		associations:  associations,
		events:        emitter,
		defaultLimit:  defaultLimit,
	}
}

// Register mounts the contact routes on /contacts.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/ingest", h.Ingest)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/merge", h.Merge)

	g.GET("/:id/owners", h.ListOwners)
	g.POST("/:id/owners/:ownerId", h.AddOwner)
	g.DELETE("/:id/owners/:ownerId", h.RemoveOwner)

	g.GET("/:id/tags", h.ListTags)
	g.POST("/:id/tags", h.AddTags)
	g.POST("/:id/tags/remove", h.RemoveTags)
	g.POST("/:id/tags/:tagId", h.AddTag)
	g.DELETE("/:id/tags/:tagId", h.RemoveTag)
}

func (h *Handler) List(c echo.Context) error {
	filter, err := parseFilter(c, h.defaultLimit)
	if err != nil {
		return err
	}

	page, err := h.contacts.FindAll(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func parseFilter(c echo.Context, defaultLimit int) (models.ContactFilter, error) {
	filter := models.ContactFilter{
		Search:    c.QueryParam("search"),
		OwnerName: c.QueryParam("owner"),
		Company:   c.QueryParam("company"),
	}

	var err error
	if filter.Page, err = request.Int(c, "page", 1); err != nil {
		return filter, err
	}
	if filter.Limit, err = request.Int(c, "limit", defaultLimit); err != nil {
		return filter, err
	}
	if filter.MinScore, err = request.OptionalInt(c, "min_score"); err != nil {
		return filter, err
	}
	if filter.IsWhatsappReachable, err = request.OptionalBool(c, "is_whatsapp_reachable"); err != nil {
		return filter, err
	}
	if raw := c.QueryParam("relationship_type"); raw != "" {
		relationshipType, err := models.ParseRelationshipType(raw)
		if err != nil {
			return filter, err
		}
		filter.RelationshipType = &relationshipType
	}
	if raw := c.QueryParam("source_system"); raw != "" {
		source, err := models.ParseSourceSystem(raw)
		if err != nil {
			return filter, err
		}
		filter.SourceSystem = &source
	}
	return filter, nil
}

func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	input, err := request.Bind[models.CreateContactInput](c)
	if err != nil {
		return err
	}

	created, err := h.contacts.Create(ctx, input)
	if err != nil {
		return err
	}

	h.events.ContactCreated(ctx, created)
	return c.JSON(http.StatusCreated, created)
}

// Ingest creates the contact or folds it into the existing one holding the
// same name and mobile.
func (h *Handler) Ingest(c echo.Context) error {
	ctx := c.Request().Context()

	input, err := request.Bind[models.CreateContactInput](c)
	if err != nil {
		return err
	}

	result, err := h.consolidation.Ingest(ctx, input)
	if err != nil {
		return err
	}

	h.events.ContactIngested(ctx, result)
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, result)
}

func (h *Handler) Get(c echo.Context) error {
	contact, err := h.contacts.FindOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	input, err := request.Bind[models.UpdateContactInput](c)
	if err != nil {
		return err
	}

	updated, err := h.contacts.Update(ctx, c.Param("id"), input)
	if err != nil {
		return err
	}

	h.events.ContactUpdated(ctx, updated)
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if err := h.contacts.Remove(ctx, id); err != nil {
		return err
	}

	h.events.ContactDeleted(ctx, id)
	return c.NoContent(http.StatusNoContent)
}

type MergeRequest struct {
	MergedID string             `json:"merged_id" validate:"required"`
	Reason   models.MergeReason `json:"merge_reason,omitempty"`
	MergedBy string             `json:"merged_by,omitempty"`
	Details  map[string]any     `json:"merge_details,omitempty"`
}

// Merge folds merged_id into the contact in the path.
func (h *Handler) Merge(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := request.Bind[MergeRequest](c)
	if err != nil {
		return err
	}

	result, err := h.consolidation.Merge(ctx, consolidation.MergeRequest{
		PrimaryID: c.Param("id"),
		MergedID:  req.MergedID,
		Reason:    req.Reason,
		MergedBy:  req.MergedBy,
		Details:   req.Details,
	})
	if err != nil {
		return err
	}

	h.events.ContactMerged(ctx, result)
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListOwners(c echo.Context) error {
	owners, err := h.associations.OwnersForContact(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, owners)
}

func (h *Handler) AddOwner(c echo.Context) error {
	ctx := c.Request().Context()
	contactID, ownerID := c.Param("id"), c.Param("ownerId")

	if err := h.associations.AddOwner(ctx, contactID, ownerID); err != nil {
		return err
	}

	h.events.OwnersChanged(ctx, contactID, []string{ownerID}, nil)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveOwner(c echo.Context) error {
	ctx := c.Request().Context()
	contactID, ownerID := c.Param("id"), c.Param("ownerId")

	if err := h.associations.RemoveOwner(ctx, contactID, ownerID); err != nil {
		return err
	}

	h.events.OwnersChanged(ctx, contactID, nil, []string{ownerID})
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTags(c echo.Context) error {
	tags, err := h.associations.TagsForContact(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *Handler) AddTag(c echo.Context) error {
	ctx := c.Request().Context()
	contactID, tagID := c.Param("id"), c.Param("tagId")

	if err := h.associations.AddTag(ctx, contactID, tagID); err != nil {
		return err
	}

	h.events.TagsChanged(ctx, contactID, []string{tagID}, nil)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveTag(c echo.Context) error {
	ctx := c.Request().Context()
	contactID, tagID := c.Param("id"), c.Param("tagId")

	if err := h.associations.RemoveTag(ctx, contactID, tagID); err != nil {
		return err
	}

	h.events.TagsChanged(ctx, contactID, nil, []string{tagID})
	return c.NoContent(http.StatusNoContent)
}

type TagIDsRequest struct {
	TagIDs []string `json:"tag_ids" validate:"required,min=1"`
}

// AddTags applies every tag it can and reports the rest as skipped.
func (h *Handler) AddTags(c echo.Context) error {
	ctx := c.Request().Context()
	contactID := c.Param("id")

	req, err := request.Bind[TagIDsRequest](c)
	if err != nil {
		return err
	}

	result, err := h.associations.AddTagsToContact(ctx, contactID, req.TagIDs)
	if err != nil {
		return err
	}

	if applied := result.Applied(req.TagIDs); len(applied) > 0 {
		h.events.TagsChanged(ctx, contactID, applied, nil)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RemoveTags(c echo.Context) error {
	ctx := c.Request().Context()
	contactID := c.Param("id")

	req, err := request.Bind[TagIDsRequest](c)
	if err != nil {
		return err
	}

	result, err := h.associations.RemoveTagsFromContact(ctx, contactID, req.TagIDs)
	if err != nil {
		return err
	}

	if applied := result.Applied(req.TagIDs); len(applied) > 0 {
		h.events.TagsChanged(ctx, contactID, nil, applied)
	}
	return c.JSON(http.StatusOK, result)
}
