package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/dashboard"
	"github.com/vietddude/chargedesk/internal/infra/storage"
)

// Dashboard is the controller surface the facade drives.
type Dashboard interface {
	Activate(ctx context.Context) (dashboard.View, error)
	Disconnect()
	View() dashboard.View
	RefreshApprovals(ctx context.Context) (dashboard.View, error)
	CheckBalance(ctx context.Context, address string) (domain.Balances, error)
	CheckAllBalances(ctx context.Context) ([]domain.Balances, error)
	SubmitCharge(ctx context.Context, address, amount, asset string) (*domain.ChargeRecord, error)
	Withdraw(ctx context.Context, amount string) (*domain.ChargeRecord, error)
	Charges(ctx context.Context, filter storage.ChargeFilter) ([]*domain.ChargeRecord, error)
	Contract(ctx context.Context, user string) (*dashboard.ContractSummary, error)
	Notices() []dashboard.Notice
}

type chargeRequest struct {
	WalletAddress string `json:"walletAddress"`
	Amount        string `json:"amount"`
	Asset         string `json:"asset"`
}

type withdrawRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) dashboardRoutes(r chi.Router) {
	r.Get("/", s.handleView)
	r.Post("/connect", s.handleConnect)
	r.Post("/disconnect", s.handleDisconnect)
	r.Post("/approvals/refresh", s.handleRefreshApprovals)
	r.Get("/balances/{address}", s.handleCheckBalance)
	r.Post("/balances/check-all", s.handleCheckAllBalances)
	r.Post("/charge", s.handleCharge)
	r.Post("/withdraw", s.handleWithdraw)
	r.Get("/charges", s.handleCharges)
	r.Get("/notices", s.handleNotices)
	r.Get("/contract", s.handleContract)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dashboard.View())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboard.Activate(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to connect wallet")
		return
	}
	writeData(w, view)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.dashboard.Disconnect()
	writeData(w, s.dashboard.View())
}

func (s *Server) handleRefreshApprovals(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboard.RefreshApprovals(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to load approved users")
		return
	}
	writeData(w, view)
}

func (s *Server) handleCheckBalance(w http.ResponseWriter, r *http.Request) {
	b, err := s.dashboard.CheckBalance(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeDomainError(w, err, "Failed to check balance")
		return
	}
	writeData(w, b)
}

func (s *Server) handleCheckAllBalances(w http.ResponseWriter, r *http.Request) {
	results, err := s.dashboard.CheckAllBalances(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to check balances")
		return
	}
	writeData(w, results)
}

func (s *Server) handleCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.dashboard.SubmitCharge(r.Context(), req.WalletAddress, req.Amount, req.Asset)
	if err != nil {
		writeDomainError(w, err, "Failed to charge user")
		return
	}
	writeData(w, record)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.dashboard.Withdraw(r.Context(), req.Amount)
	if err != nil {
		writeDomainError(w, err, "Failed to withdraw")
		return
	}
	writeData(w, record)
}

func (s *Server) handleCharges(w http.ResponseWriter, r *http.Request) {
	filter := storage.ChargeFilter{WalletAddress: r.URL.Query().Get("walletAddress")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	records, err := s.dashboard.Charges(r.Context(), filter)
	if err != nil {
		s.log.Error("Failed to list charges", "error", err)
		writeDomainError(w, err, "Failed to list charges")
		return
	}
	if records == nil {
		records = []*domain.ChargeRecord{}
	}
	writeData(w, records)
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dashboard.Notices())
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.Contract(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeDomainError(w, err, "Failed to read contract")
		return
	}
	writeData(w, summary)
}
