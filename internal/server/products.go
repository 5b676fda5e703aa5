package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendalivre/frete/internal/product"
	"go.uber.org/zap"
)

// productBody is the inbound create/update payload.
type productBody struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Sizes []string        `json:"size"`
	Image string          `json:"image"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		s.writeProductError(w, r, err)
		return
	}
	if products == nil {
		products = []product.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid product id"})
		return
	}

	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		s.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body"})
		return
	}

	p := product.Product{
		ID:        uuid.New(),
		Name:      body.Name,
		Price:     body.Price,
		Sizes:     body.Sizes,
		Image:     body.Image,
		CreatedAt: time.Now().UTC(),
	}
	if problems := p.Validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid product", Errors: problems})
		return
	}

	if err := s.products.Create(r.Context(), &p); err != nil {
		s.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid product id"})
		return
	}

	var body productBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid JSON body"})
		return
	}

	existing, err := s.products.Get(r.Context(), id)
	if err != nil {
		s.writeProductError(w, r, err)
		return
	}

	p := product.Product{
		ID:        id,
		Name:      body.Name,
		Price:     body.Price,
		Sizes:     body.Sizes,
		Image:     body.Image,
		CreatedAt: existing.CreatedAt,
	}
	if problems := p.Validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid product", Errors: problems})
		return
	}

	if err := s.products.Update(r.Context(), &p); err != nil {
		s.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid product id"})
		return
	}

	if err := s.products.Delete(r.Context(), id); err != nil {
		s.writeProductError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeProductError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, product.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "product not found"})
		return
	}
	s.logger.Ctx(r.Context()).Error("Product store failure", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
}
