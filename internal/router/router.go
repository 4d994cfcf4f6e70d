package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	calendarsync "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_sync"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/middlewares"
)

type RouterConfig struct {
	CalendarSyncHandler *calendarsync.Handler
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		config.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Mount("/calendar-sync", calendarsync.Routes(cfg.CalendarSyncHandler))

	return r
}
