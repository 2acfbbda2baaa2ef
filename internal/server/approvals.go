package server

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vietddude/chargedesk/internal/core/domain"
)

const msgAddressRequired = "Wallet address is required"

type saveApprovalRequest struct {
	WalletAddress   string `json:"walletAddress"`
	ApprovalAmount  string `json:"approvalAmount"`
	Status          string `json:"status"`
	TransactionHash string `json:"transactionHash"`
}

type updateApprovalRequest struct {
	WalletAddress   string `json:"walletAddress"`
	Status          string `json:"status"`
	TransactionHash string `json:"transactionHash"`
}

func (s *Server) approvalRoutes(r chi.Router) {
	r.Post("/", s.handleSaveApproval)
	r.Put("/", s.handleUpdateApproval)
	r.Get("/", s.handleGetApprovalQuery)
	r.Delete("/", s.handleDeleteApprovalQuery)
	r.Get("/all", s.handleListApprovals)
	r.Get("/{address}", s.handleGetApprovalPath)
	r.Delete("/{address}", s.handleDeleteApprovalPath)
}

func (s *Server) handleSaveApproval(w http.ResponseWriter, r *http.Request) {
	var req saveApprovalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		writeError(w, http.StatusBadRequest, msgAddressRequired)
		return
	}
	status, err := domain.ParseApprovalStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := &domain.ApprovalRecord{
		WalletAddress:   req.WalletAddress,
		ApprovalAmount:  req.ApprovalAmount,
		Timestamp:       domain.NowMillis(),
		TransactionHash: req.TransactionHash,
		Status:          status,
	}
	if err := s.approvals.Save(r.Context(), record); err != nil {
		s.log.Error("Failed to save approval", "address", req.WalletAddress, "error", err)
		writeDomainError(w, err, "Failed to save approval data")
		return
	}
	writeData(w, record)
}

func (s *Server) handleUpdateApproval(w http.ResponseWriter, r *http.Request) {
	var req updateApprovalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		writeError(w, http.StatusBadRequest, msgAddressRequired)
		return
	}
	status, err := domain.ParseApprovalStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.approvals.Update(r.Context(), req.WalletAddress, status, req.TransactionHash)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Approval record not found")
		return
	}
	if err != nil {
		s.log.Error("Failed to update approval", "address", req.WalletAddress, "error", err)
		writeDomainError(w, err, "Failed to update approval status")
		return
	}
	writeData(w, record)
}

// handleGetApprovalQuery serves both ?walletAddress= lookups and, without
// the parameter, the full listing.
func (s *Server) handleGetApprovalQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("walletAddress") {
		s.handleListApprovals(w, r)
		return
	}
	s.getApproval(w, r, q.Get("walletAddress"))
}

func (s *Server) handleGetApprovalPath(w http.ResponseWriter, r *http.Request) {
	s.getApproval(w, r, chi.URLParam(r, "address"))
}

func (s *Server) getApproval(w http.ResponseWriter, r *http.Request, address string) {
	if strings.TrimSpace(address) == "" {
		writeError(w, http.StatusBadRequest, msgAddressRequired)
		return
	}

	record, err := s.approvals.Get(r.Context(), address)
	if err != nil {
		s.log.Error("Failed to get approval", "address", address, "error", err)
		writeDomainError(w, err, "Failed to get approval data")
		return
	}
	// an absent record is data:null, not an error
	writeData(w, record)
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	list, err := s.approvals.ListAll(r.Context())
	if err != nil {
		s.log.Error("Failed to list approvals", "error", err)
		writeDomainError(w, err, "Failed to get all approval data")
		return
	}

	records := list.Records
	if records == nil {
		records = []*domain.ApprovalRecord{}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].WalletAddress < records[j].WalletAddress
	})
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: records, Skipped: list.Skipped})
}

func (s *Server) handleDeleteApprovalQuery(w http.ResponseWriter, r *http.Request) {
	s.deleteApproval(w, r, r.URL.Query().Get("walletAddress"))
}

func (s *Server) handleDeleteApprovalPath(w http.ResponseWriter, r *http.Request) {
	s.deleteApproval(w, r, chi.URLParam(r, "address"))
}

func (s *Server) deleteApproval(w http.ResponseWriter, r *http.Request, address string) {
	if strings.TrimSpace(address) == "" {
		writeError(w, http.StatusBadRequest, msgAddressRequired)
		return
	}

	err := s.approvals.Delete(r.Context(), address)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Approval record not found")
		return
	}
	if err != nil {
		s.log.Error("Failed to delete approval", "address", address, "error", err)
		writeDomainError(w, err, "Failed to delete approval data")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Approval record deleted"})
}
