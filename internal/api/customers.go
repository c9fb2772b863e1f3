package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/isp-standards/enquiry-intake/internal/model"
	"github.com/isp-standards/enquiry-intake/internal/store"
)

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c model.Customer
	if !decodeBody(w, r, &c) {
		return
	}
	if c.Name == "" || c.Email == "" {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidInput, "name and email are required")
		return
	}

	existing, err := s.store.GetCustomerByEmail(r.Context(), c.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	if existing != nil {
		respondErrorCode(w, http.StatusConflict, codeDuplicate, "customer with this email already exists")
		return
	}

	if c.CustomerID == "" {
		c.CustomerID = uuid.NewString()
	}
	if c.Flag == "" {
		c.Flag = model.FlagKnown
	}
	if err := s.store.CreateCustomer(r.Context(), &c); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	customers, err := s.store.ListCustomers(r.Context(), store.CustomerFilter{Limit: limit, Offset: offset})
	if err != nil {
		respondError(w, err)
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	respondJSON(w, http.StatusOK, customers)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondError(w, err)
		return
	}
	if c == nil {
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "customer not found")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var patch model.CustomerPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	c, err := s.store.UpdateCustomer(r.Context(), chi.URLParam(r, "customerID"), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	if c == nil {
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "customer not found")
		return
	}
	respondJSON(w, http.StatusOK, c)
}
