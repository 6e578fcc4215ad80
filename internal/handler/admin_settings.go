package handler

import (
	"encoding/json"
	"net/http"
	"purchase-options-demo/internal/middleware"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/service"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	logger          *zap.Logger
	settingsService service.SettingsService
}

func NewSettingsHandler(logger *zap.Logger, settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		logger:          logger,
		settingsService: settingsService,
	}
}

type settingsView struct {
	Settings      model.Settings
	Discount      string
	FrequencyText string
	Saved         bool
	CSRF          string
}

func (h *SettingsHandler) ShowSettings(c echo.Context) error {
	return h.render(c, h.settingsService.Get(c.Request().Context()), false)
}

// SaveSettings handles the settings form. Unchecked boxes are simply absent
// from the submission.
func (h *SettingsHandler) SaveSettings(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settings form")
	}

	raw := map[string]any{}
	for _, key := range []string{"enable_subscription", "subscription_discount", "frequencies"} {
		if form.Has(key) {
			raw[key] = form.Get(key)
		}
	}

	settings, err := h.settingsService.Save(c.Request().Context(), raw)
	if err != nil {
		return err
	}

	return h.render(c, settings, true)
}

// UpdateSettingsJSON accepts the same fields as a JSON object, with
// frequencies as a list.
func (h *SettingsHandler) UpdateSettingsJSON(c echo.Context) error {
	var raw map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settings payload")
	}

	settings, err := h.settingsService.Save(c.Request().Context(), raw)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) render(c echo.Context, settings model.Settings, saved bool) error {
	return c.Render(http.StatusOK, "admin_settings.html", &settingsView{
		Settings:      settings,
		Discount:      decimal.NewFromFloat(settings.SubscriptionDiscount).String(),
		FrequencyText: strings.Join(settings.Frequencies, "\n"),
		Saved:         saved,
		CSRF:          middleware.CSRFToken(c),
	})
}
