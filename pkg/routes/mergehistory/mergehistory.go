package mergehistory

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/request"
)

const defaultContactLimit = 50

type Ledger interface {
	Query(ctx context.Context, filter models.MergeHistoryFilter) (*models.Page[models.MergeHistory], error)
	Statistics(ctx context.Context) (*models.MergeStatistics, error)
	ForContact(ctx context.Context, contactID string, limit int) ([]models.MergeHistory, error)
}

type Handler struct {
	ledger       Ledger
	defaultLimit int
}

func NewHandler(ledger Ledger, defaultLimit int) *Handler {
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &Handler{ledger: ledger, defaultLimit: defaultLimit}
}

// Register mounts the read-only ledger routes on /merge-history.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.Query)
	g.GET("/statistics", h.Statistics)
	g.GET("/contacts/:id", h.ForContact)
}

func (h *Handler) Query(c echo.Context) error {
	filter, err := parseFilter(c, h.defaultLimit)
	if err != nil {
		return err
	}

	page, err := h.ledger.Query(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func parseFilter(c echo.Context, defaultLimit int) (models.MergeHistoryFilter, error) {
	filter := models.MergeHistoryFilter{ContactID: c.QueryParam("contact_id")}

	var err error
	if filter.Page, err = request.Int(c, "page", 1); err != nil {
		return filter, err
	}
	if filter.Limit, err = request.Int(c, "limit", defaultLimit); err != nil {
		return filter, err
	}
	if filter.EmailOnly, err = request.Bool(c, "email_only"); err != nil {
		return filter, err
	}
	if filter.From, err = request.OptionalTime(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = request.OptionalTime(c, "to"); err != nil {
		return filter, err
	}
	if raw := c.QueryParam("merge_type"); raw != "" {
		mergeType, err := models.ParseMergeType(raw)
		if err != nil {
			return filter, err
		}
		filter.MergeType = &mergeType
	}
	if filter.SourceSystems, err = models.ParseSourceSystems(request.List(c, "source_system")); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.ledger.Statistics(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) ForContact(c echo.Context) error {
	limit, err := request.Int(c, "limit", defaultContactLimit)
	if err != nil {
		return err
	}

	rows, err := h.ledger.ForContact(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}
