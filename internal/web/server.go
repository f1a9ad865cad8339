package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/paperledger/paperledger/internal/entity"
	"github.com/paperledger/paperledger/internal/ledger"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TradeJournalReader streams executed trades by journal index.
type TradeJournalReader interface {
	TradesAfter(index uint64) ([]entity.TradeRecordWithIndex, error)
}

// Server exposes the ledger over HTTP.
type Server struct {
	Addr      string
	AccountID string

	service *ledger.Service
	journal TradeJournalReader
	logger  *zap.Logger
}

// NewServer creates a new HTTP server for the given ledger service. The
// journal reader is optional; without it the trades endpoint returns 404.
func NewServer(addr, accountID string, service *ledger.Service, journal TradeJournalReader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:      addr,
		AccountID: accountID,
		service:   service,
		journal:   journal,
		logger:    logger,
	}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ledger", s.handleLedger)
	mux.HandleFunc("/ledger/trade", s.handleTrade)
	mux.HandleFunc("/ledger/trades", s.handleTrades)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type balanceResponse struct {
	QuoteBalance string `json:"quoteBalance"`
	BaseBalance  string `json:"baseBalance"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	entry, err := s.service.Balance(r.Context(), s.AccountID)
	if err != nil {
		s.logger.Error("failed to read balances", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read balances"})
		return
	}

	resp := balanceResponse{
		QuoteBalance: entry.Quote.String(),
		BaseBalance:  entry.Base.String(),
	}
	if !entry.UpdatedAt.IsZero() {
		resp.UpdatedAt = entry.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}

type tradeRequest struct {
	Action   *string          `json:"action"`
	Price    *decimal.Decimal `json:"price"`
	Quantity *decimal.Decimal `json:"quantity"`
}

type tradeResponse struct {
	Success      bool   `json:"success"`
	QuoteBalance string `json:"quoteBalance"`
	BaseBalance  string `json:"baseBalance"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing parameters"})
		return
	}
	if req.Action == nil || req.Price == nil || req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing parameters"})
		return
	}

	entry, err := s.service.Execute(r.Context(), s.AccountID, entity.Action(*req.Action), *req.Price, *req.Quantity)
	if err != nil {
		status, payload := s.tradeError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("trade execution failed", zap.Error(err))
		}
		writeJSON(w, status, payload)
		return
	}

	writeJSON(w, http.StatusOK, tradeResponse{
		Success:      true,
		QuoteBalance: entry.Quote.String(),
		BaseBalance:  entry.Base.String(),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.journal == nil {
		http.NotFound(w, r)
		return
	}

	after := uint64(0)
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid after index"})
			return
		}
		after = parsed
	}

	records, err := s.journal.TradesAfter(after)
	if err != nil {
		s.logger.Error("failed to read trade journal", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read trades"})
		return
	}
	if records == nil {
		records = []entity.TradeRecordWithIndex{}
	}
	writeJSON(w, http.StatusOK, records)
}

// tradeError maps domain errors to the boundary's stable error payloads.
// Balances are guaranteed unchanged for every non-2xx response.
func (s *Server) tradeError(err error) (int, map[string]string) {
	pair := s.service.Pair()
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest, map[string]string{"error": "Invalid price or quantity"}
	case errors.Is(err, ledger.ErrInvalidAction):
		return http.StatusBadRequest, map[string]string{"error": "Invalid action"}
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Insufficient %s balance", pair.Quote)}
	case errors.Is(err, ledger.ErrInsufficientHoldings):
		return http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Insufficient %s balance", pair.Base)}
	default:
		return http.StatusInternalServerError, map[string]string{
			"error":   "Trade execution failed",
			"details": err.Error(),
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Fprintf(w, `{"error":"encode response"}`)
	}
}
