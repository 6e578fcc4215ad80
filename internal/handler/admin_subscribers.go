package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/middleware"
	"purchase-options-demo/internal/service"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	storageUnavailableNotice = "Order storage must be configured to view subscriber orders."
	exportUnavailableMessage = "Order storage must be configured to export subscriber data."
)

type SubscriberHandler struct {
	logger            *zap.Logger
	subscriberService service.SubscriberService
}

func NewSubscriberHandler(logger *zap.Logger, subscriberService service.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{
		logger:            logger,
		subscriberService: subscriberService,
	}
}

type subscribersView struct {
	Page        *dto.SubscriberPage
	Notice      string
	CSRF        string
	SortIDURL   string
	SortDateURL string
	PrevURL     string
	NextURL     string
}

func (h *SubscriberHandler) ListSubscribers(c echo.Context) error {
	var query dto.SubscriberListQuery
	err := echo.QueryParamsBinder(c).
		String("orderby", &query.OrderBy).
		String("order", &query.Order).
		Int("paged", &query.Page).
		Int("per_page", &query.PerPage).
		BindError()
	if err != nil {
		h.logger.Debug("ignoring malformed subscriber list query", zap.Error(err))
	}

	view := &subscribersView{CSRF: middleware.CSRFToken(c)}

	page, err := h.subscriberService.List(c.Request().Context(), query)
	if err != nil {
		if !errors.Is(err, service.ErrOrderStorageUnavailable) {
			return err
		}
		view.Notice = storageUnavailableNotice
		return c.Render(http.StatusOK, "admin_subscribers.html", view)
	}

	view.Page = page
	view.SortIDURL = subscribersURL("id", toggledOrder(page, "id"), 1, query.PerPage)
	view.SortDateURL = subscribersURL("date", toggledOrder(page, "date"), 1, query.PerPage)
	if page.Page > 1 {
		view.PrevURL = subscribersURL(page.OrderBy, page.Order, page.Page-1, query.PerPage)
	}
	if page.Page < page.TotalPages {
		view.NextURL = subscribersURL(page.OrderBy, page.Order, page.Page+1, query.PerPage)
	}

	return c.Render(http.StatusOK, "admin_subscribers.html", view)
}

func (h *SubscriberHandler) ShowOrder(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	order, err := h.subscriberService.GetOrder(c.Request().Context(), uint(orderID))
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrOrderStorageUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, storageUnavailableNotice)
	case err != nil:
		return err
	}

	return c.Render(http.StatusOK, "admin_order.html", order)
}

func (h *SubscriberHandler) ExportSubscribers(c echo.Context) error {
	query := dto.SubscriberListQuery{
		OrderBy: c.FormValue("orderby"),
		Order:   c.FormValue("order"),
	}

	var buf bytes.Buffer
	if err := h.subscriberService.Export(c.Request().Context(), &buf, query); err != nil {
		if errors.Is(err, service.ErrOrderStorageUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, exportUnavailableMessage)
		}
		return err
	}

	filename := fmt.Sprintf("subscribers-%s.csv", time.Now().UTC().Format("2006-01-02-150405"))

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")

	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// toggledOrder flips the direction when the column is already the active
// sort.
func toggledOrder(page *dto.SubscriberPage, column string) string {
	if page.OrderBy == column && page.Order == service.SortOrderDesc {
		return service.SortOrderAsc
	}
	if page.OrderBy == column {
		return service.SortOrderDesc
	}
	if column == "date" {
		return service.SortOrderDesc
	}
	return service.SortOrderAsc
}

func subscribersURL(orderBy, order string, page, perPage int) string {
	values := url.Values{}
	values.Set("orderby", orderBy)
	values.Set("order", order)
	values.Set("paged", strconv.Itoa(page))
	if perPage > 0 {
		values.Set("per_page", strconv.Itoa(perPage))
	}
	return "/admin/subscribers?" + values.Encode()
}
