package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/mapleads/internal/config"
	"github.com/octobees/mapleads/internal/handler"
	middlewarepkg "github.com/octobees/mapleads/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Search   *handler.SearchHandler
	Proxy    *handler.ProxyHandler
	Leads    *handler.LeadsHandler
	Searches *handler.SearchesHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, tokens middlewarepkg.TokenParser, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/categories", handlers.Search.Categories)
	e.POST("/search", handlers.Search.Search,
		middlewarepkg.RateLimiter("/search", cfg.RateLimitSearch),
		middlewarepkg.OptionalJWT(tokens),
	)

	proxy := e.Group("/api")
	proxy.GET("/geoapify/places", handlers.Proxy.Places)
	proxy.GET("/geoapify/geocode", handlers.Proxy.Geocode)
	proxy.GET("/geoapify/place-details", handlers.Proxy.PlaceDetails)
	proxy.GET("/geocode", handlers.Proxy.Nominatim)
	proxy.POST("/overpass", handlers.Proxy.Overpass)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(tokens))

	if handlers.Leads != nil {
		secured.GET("/leads", handlers.Leads.List)
		secured.POST("/leads", handlers.Leads.Save)
		secured.GET("/leads/:id", handlers.Leads.Get)
		secured.PATCH("/leads/:id", handlers.Leads.Update)
		secured.DELETE("/leads/:id", handlers.Leads.Delete)
	}

	if handlers.Searches != nil {
		secured.GET("/searches/history", handlers.Searches.History)
		secured.DELETE("/searches/history", handlers.Searches.ClearHistory)
		secured.DELETE("/searches/history/:id", handlers.Searches.DeleteHistory)
		secured.GET("/searches/saved", handlers.Searches.ListSaved)
		secured.POST("/searches/saved", handlers.Searches.Save)
		secured.GET("/searches/saved/:id", handlers.Searches.GetSaved)
		secured.PATCH("/searches/saved/:id", handlers.Searches.UpdateSaved)
		secured.DELETE("/searches/saved/:id", handlers.Searches.DeleteSaved)
		secured.POST("/searches/saved/:id/run", handlers.Searches.Run)
	}

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.DELETE("/cache/expired", handlers.Search.PurgeCache)
}
