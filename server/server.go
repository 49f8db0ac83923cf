package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"property-valuation/utils"
)

// Server is the HTTP front end of the estimator.
type Server struct {
	httpServer *http.Server
	logger     *utils.Logger
}

// NewRouter builds the route table. It is separate from NewServer so tests
// can drive it through httptest.
func NewRouter(h *ValuationHandler, allowedOrigins []string, baseLogger *utils.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Trace-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Get("/", h.Form)
	r.Post("/valuate", h.Valuate)
	r.Post("/report", h.Report)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/vocabulary", h.GetVocabulary)
		r.Post("/valuations", h.CreateValuation)
	})

	return r
}

func NewServer(port string, h *ValuationHandler, allowedOrigins []string, baseLogger *utils.Logger) *Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewRouter(h, allowedOrigins, baseLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: srv, logger: baseLogger}
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("[server] Listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("[server] Shutting down")
	return s.httpServer.Shutdown(ctx)
}
