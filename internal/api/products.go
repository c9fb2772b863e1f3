package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/model"
	"github.com/isp-standards/enquiry-intake/internal/store"
)

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if !decodeBody(w, r, &p) {
		return
	}
	if p.ProductName == "" && p.ChemicalName == "" {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidInput, "product_name or chemical_name is required")
		return
	}

	existing, err := s.store.FindProductByIdentifiers(r.Context(), p.ChemicalName, p.CASNumber, p.CatNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	if existing != nil {
		respondErrorCode(w, http.StatusConflict, codeDuplicate, "product already exists ("+existing.ProductID+")")
		return
	}

	if p.ProductID == "" {
		p.ProductID = uuid.NewString()
	}
	if p.CatNumber == "" {
		p.CatNumber = enquiry.GenerateCatNumber()
	}
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = model.ApprovalPending
	}
	if err := s.store.CreateProduct(r.Context(), &p); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	products, err := s.store.ListProducts(r.Context(), store.ProductFilter{
		ApprovalStatus: r.URL.Query().Get("approval_status"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, err)
		return
	}
	if p == nil {
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type validateItem struct {
	ProductID    string `json:"product_id,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	ChemicalName string `json:"chemical_name,omitempty"`
	CASNumber    string `json:"cas_number,omitempty"`
	CatNumber    string `json:"cat_number,omitempty"`
}

type validateRequest struct {
	Products []validateItem `json:"products"`
}

type validateResult struct {
	Matched   bool   `json:"matched"`
	ProductID string `json:"product_id,omitempty"`
	CatNumber string `json:"cat_number,omitempty"`
}

// validateProducts checks each submitted line item against the catalog by
// id, catalog number, CAS number or name, without creating anything.
func (s *Server) validateProducts(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	results := make([]validateResult, 0, len(req.Products))
	for _, item := range req.Products {
		p, err := s.lookupProduct(r, item)
		if err != nil {
			respondError(w, err)
			return
		}
		if p == nil {
			results = append(results, validateResult{})
			continue
		}
		results = append(results, validateResult{Matched: true, ProductID: p.ProductID, CatNumber: p.CatNumber})
	}
	respondJSON(w, http.StatusOK, map[string][]validateResult{"products": results})
}

func (s *Server) lookupProduct(r *http.Request, item validateItem) (*model.Product, error) {
	if item.ProductID != "" {
		return s.store.GetProduct(r.Context(), item.ProductID)
	}
	name := item.ChemicalName
	if name == "" {
		name = item.ProductName
	}
	return s.store.FindProductByIdentifiers(r.Context(), name, item.CASNumber, item.CatNumber)
}
