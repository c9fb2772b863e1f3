package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/model"
	"github.com/isp-standards/enquiry-intake/internal/store"
)

func (s *Server) createEnquiry(w http.ResponseWriter, r *http.Request) {
	var sub enquiry.Submission
	if !decodeBody(w, r, &sub) {
		return
	}
	e, err := s.assembler.Assemble(r.Context(), sub)
	if err != nil {
		respondError(w, err)
		return
	}
	s.logChange(r, e.EnquiryID, "create", "created via portal")
	respondJSON(w, http.StatusCreated, e)
}

func (s *Server) listEnquiries(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	status := r.URL.Query().Get("status")
	if status != "" && !model.EnquiryStatus(status).Valid() {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidInput, "invalid status filter")
		return
	}
	enquiries, err := s.store.ListEnquiries(r.Context(), store.EnquiryFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		respondError(w, err)
		return
	}
	if enquiries == nil {
		enquiries = []model.Enquiry{}
	}
	respondJSON(w, http.StatusOK, enquiries)
}

func (s *Server) getEnquiry(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.GetEnquiry(r.Context(), urlParam(r, "enquiryID"))
	if err != nil {
		respondError(w, err)
		return
	}
	if e == nil {
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "enquiry not found")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) updateEnquiry(w http.ResponseWriter, r *http.Request) {
	var patch model.EnquiryPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidInput, "invalid status: expected open, processed or closed")
		return
	}

	enquiryID := urlParam(r, "enquiryID")
	e, err := s.store.UpdateEnquiry(r.Context(), enquiryID, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	if e == nil {
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "enquiry not found")
		return
	}
	s.logChange(r, enquiryID, "update", "updated via api")
	respondJSON(w, http.StatusOK, e)
}

type bulkRequest struct {
	Emails []model.EmailRequest `json:"emails"`
}

// bulkEnquiries ingests a list of inbound emails in one call. Individual
// failures are reported per item; the endpoint itself only fails on a
// malformed body.
func (s *Server) bulkEnquiries(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.batch.ProcessBatch(r.Context(), req.Emails)
	if err != nil {
		respondError(w, err)
		return
	}
	for _, item := range result.Enquiries {
		if item.Status == enquiry.StatusAccepted {
			s.logChange(r, item.EnquiryID, "create", "created via bulk ingestion")
		}
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) getParsingStatus(w http.ResponseWriter, r *http.Request) {
	ps, err := s.store.GetParsingStatus(r.Context(), urlParam(r, "enquiryID"))
	if err != nil {
		respondError(w, err)
		return
	}
	if ps == nil {
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "parsing status not found")
		return
	}
	respondJSON(w, http.StatusOK, ps)
}

type dashboardResponse struct {
	Enquiry       *model.Enquiry       `json:"enquiry"`
	Customer      *model.Customer      `json:"customer,omitempty"`
	ParsingStatus *model.ParsingStatus `json:"parsing_status,omitempty"`
}

// getDashboard returns the enquiry together with its customer and parsing
// status for the detail view.
func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	enquiryID := urlParam(r, "enquiryID")
	e, err := s.store.GetEnquiry(r.Context(), enquiryID)
	if err != nil {
		respondError(w, err)
		return
	}
	if e == nil {
		respondErrorCode(w, http.StatusNotFound, codeNotFound, "enquiry not found")
		return
	}

	resp := dashboardResponse{Enquiry: e}
	if resp.Customer, err = s.store.GetCustomer(r.Context(), e.CustomerID); err != nil {
		respondError(w, err)
		return
	}
	if resp.ParsingStatus, err = s.store.GetParsingStatus(r.Context(), enquiryID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) listChangeLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	logs, err := s.store.ListChangeLogs(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	if logs == nil {
		logs = []model.ChangeLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

// logChange writes an audit row. Failures never fail the request.
func (s *Server) logChange(r *http.Request, enquiryID, action, details string) {
	err := s.store.InsertChangeLog(r.Context(), &model.ChangeLog{
		TableName: "enquiries",
		RecordID:  enquiryID,
		Action:    action,
		UserID:    "system",
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
	if err != nil {
		zap.L().Warn("api: failed to write change log",
			zap.String("enquiry_id", enquiryID),
			zap.Error(err),
		)
	}
}
