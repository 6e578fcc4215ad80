package server

import (
	"context"
	"io/fs"
	"net/http"
	"purchase-options-demo/internal/config"
	"purchase-options-demo/internal/handler"
	"purchase-options-demo/internal/middleware"
	"purchase-options-demo/internal/service"
	"purchase-options-demo/web"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Product    service.ProductService
	Settings   service.SettingsService
	Cart       service.CartService
	Checkout   service.CheckoutService
	Subscriber service.SubscriberService
}

type Server struct {
	echo              *echo.Echo
	cfg               *config.Config
	storefrontHandler *handler.StorefrontHandler
	settingsHandler   *handler.SettingsHandler
	subscriberHandler *handler.SubscriberHandler
}

func NewServer(cfg *config.Config, logger *zap.Logger, services Services) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	renderer, err := handler.NewTemplateRenderer(web.FS)
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, err
	}
	e.StaticFS("/static", static)

	s := &Server{
		echo: e,
		cfg:  cfg,
		storefrontHandler: handler.NewStorefrontHandler(
			logger,
			services.Product,
			services.Settings,
			services.Cart,
			services.Checkout,
		),
		settingsHandler:   handler.NewSettingsHandler(logger, services.Settings),
		subscriberHandler: handler.NewSubscriberHandler(logger, services.Subscriber),
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	secure := s.cfg.Session.CookieSecure
	session := middleware.ShopperSession(s.cfg.Session.CookieName, secure)

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	api.GET("/cart", s.storefrontHandler.GetCartJSON, session)

	// -------- storefront --------
	// add to cart checks its purchase nonce itself and never rejects on it
	shop := s.echo.Group("", session, middleware.CSRF(secure, "/cart/add"))
	shop.GET("/products/:id", s.storefrontHandler.ShowProduct)
	shop.POST("/cart/add", s.storefrontHandler.AddToCart)
	shop.GET("/cart", s.storefrontHandler.ShowCart)
	shop.POST("/cart/update", s.storefrontHandler.UpdateCart)
	shop.POST("/cart/remove", s.storefrontHandler.RemoveFromCart)
	shop.POST("/checkout", s.storefrontHandler.Checkout)

	// -------- admin --------
	admin := s.echo.Group("/admin",
		middleware.RequireStaff(s.cfg.Admin.Username, s.cfg.Admin.Password),
		middleware.CSRF(secure),
	)
	admin.GET("/settings", s.settingsHandler.ShowSettings)
	admin.POST("/settings", s.settingsHandler.SaveSettings)
	admin.GET("/subscribers", s.subscriberHandler.ListSubscribers)
	admin.GET("/orders/:id", s.subscriberHandler.ShowOrder)
	admin.POST("/subscribers/export", s.subscriberHandler.ExportSubscribers)

	// JSON clients authenticate with basic auth only
	adminAPI := s.echo.Group("/admin/api", middleware.RequireStaff(s.cfg.Admin.Username, s.cfg.Admin.Password))
	adminAPI.PUT("/settings", s.settingsHandler.UpdateSettingsJSON)
}

// Handler exposes the router for in-process use such as tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
