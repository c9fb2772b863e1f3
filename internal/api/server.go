// Package api exposes the intake backend over HTTP: customer and product
// catalog management, portal enquiry submission, bulk email ingestion, and
// read access to parsing status and the audit log.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/store"
)

// Server holds the handlers' shared collaborators.
type Server struct {
	store          store.Store
	assembler      *enquiry.Assembler
	batch          *enquiry.BatchProcessor
	allowedOrigins []string
}

// NewServer creates the API server over the given store. An empty origin
// list allows all origins.
func NewServer(st store.Store, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	assembler := enquiry.NewAssembler(st)
	return &Server{
		store:          st,
		assembler:      assembler,
		batch:          enquiry.NewBatchProcessor(enquiry.NewDeduplicator(st), assembler),
		allowedOrigins: allowedOrigins,
	}
}

// Router builds the v1 route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", s.createCustomer)
			r.Get("/", s.listCustomers)
			r.Get("/{customerID}", s.getCustomer)
			r.Patch("/{customerID}", s.updateCustomer)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", s.createProduct)
			r.Get("/", s.listProducts)
			r.Post("/validate", s.validateProducts)
			r.Get("/{productID}", s.getProduct)
		})

		r.Route("/enquiries", func(r chi.Router) {
			r.Post("/", s.createEnquiry)
			r.Get("/", s.listEnquiries)
			r.Post("/bulk", s.bulkEnquiries)
			r.Get("/{enquiryID}", s.getEnquiry)
			r.Patch("/{enquiryID}", s.updateEnquiry)
			r.Get("/{enquiryID}/status", s.getParsingStatus)
			r.Get("/{enquiryID}/dashboard", s.getDashboard)
		})

		r.Get("/changelog", s.listChangeLogs)
	})

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
