// Package server exposes the HTTP surface: the freight quote endpoint, the
// product catalog, and operational routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendalivre/frete/internal/product"
	"github.com/vendalivre/frete/internal/quote"
	"github.com/vendalivre/frete/internal/telemetry"
	"github.com/vendalivre/frete/pkg/freight"
	"go.uber.org/zap"
)

// Server is the HTTP server for the freight service.
type Server struct {
	cfg      Config
	pipeline *quote.Pipeline
	products product.Store
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// New creates a new server instance.
func New(cfg Config, pipeline *quote.Pipeline, products product.Store, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		products: products,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handler builds the route tree. Exposed separately from Run so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/freight/simulate", s.handleSimulateFreight)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Post("/", s.handleCreateProduct)
			r.Get("/{id}", s.handleGetProduct)
			r.Put("/{id}", s.handleUpdateProduct)
			r.Delete("/{id}", s.handleDeleteProduct)
		})
	})

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "freight quote API online; POST /api/freight/simulate to quote",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// simulateRequest mirrors the inbound quote body.
type simulateRequest struct {
	To struct {
		PostalCode string `json:"postal_code"`
	} `json:"to"`
	Packages        []freight.Package        `json:"packages"`
	Options         *freight.ShipmentOptions `json:"options"`
	SelectedService string                   `json:"selected_service"`
}

// simulateResponse is the success body. Delivery is omitted when the
// carrier gave no estimate.
type simulateResponse struct {
	Valor    string `json:"valor"`
	Delivery int    `json:"delivery,omitempty"`
}

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleSimulateFreight(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body"})
		return
	}

	req := quote.Request{
		PostalCode: body.To.PostalCode,
		Service:    body.SelectedService,
		Packages:   body.Packages,
	}
	if body.Options != nil {
		req.Options = *body.Options
	}

	result, err := s.pipeline.Quote(r.Context(), req)
	if err != nil {
		s.writeQuoteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, simulateResponse{
		Valor:    result.Price.StringFixed(2),
		Delivery: result.DeliveryDays,
	})
}

// writeQuoteError maps the quoting taxonomy onto HTTP statuses. Expected
// outcomes carry their message to the caller; internal failures are logged
// in full and answered with a generic message so provider text and
// credentials never leak.
func (s *Server) writeQuoteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, freight.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, freight.ErrServiceNotAvailable):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Message: "the requested service is not available for this postal code",
		})
	case errors.Is(err, freight.ErrCarrierUnavailable):
		s.logger.Ctx(r.Context()).Error("Carrier failure", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Message: "freight quoting is temporarily unavailable, try again later",
		})
	default:
		s.logger.Ctx(r.Context()).Error("Quote failure", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message: "internal error while quoting freight",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
