package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	earningsengine "fleetpay/contexts/finance-core/earnings-engine"
	earningserrors "fleetpay/contexts/finance-core/earnings-engine/domain/errors"
	earningshttp "fleetpay/contexts/finance-core/earnings-engine/transport/http"
	payoutservice "fleetpay/contexts/finance-core/payout-service"
	payouterrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	payouthttp "fleetpay/contexts/finance-core/payout-service/transport/http"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	earnings earningsengine.Module
	payouts  payoutservice.Module
}

func New(
	earnings earningsengine.Module,
	payouts payoutservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		earnings: earnings,
		payouts:  payouts,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /v1/couriers/{courier_id}/earnings", s.handleEarningsHistory)
	s.mux.HandleFunc("GET /v1/couriers/{courier_id}/earnings/statistics", s.handleEarningsStatistics)

	s.mux.HandleFunc("POST /v1/payouts/weekly", s.handleGenerateWeekly)
	s.mux.HandleFunc("POST /v1/payouts/bulk", s.handleGenerateBulk)
	s.mux.HandleFunc("GET /v1/payouts/{payout_id}", s.handleGetPayout)
	s.mux.HandleFunc("POST /v1/payouts/{payout_id}/status", s.handleUpdatePayoutStatus)
	s.mux.HandleFunc("GET /v1/couriers/{courier_id}/payouts", s.handleListPayouts)
}

func (s *Server) handleEarningsHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.earnings.Handler.EarningsHistoryHandler(r.Context(), earningshttp.EarningsHistoryRequest{
		CourierID: r.PathValue("courier_id"),
		Start:     r.URL.Query().Get("start"),
		End:       r.URL.Query().Get("end"),
	})
	if err != nil {
		writeEarningsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEarningsStatistics(w http.ResponseWriter, r *http.Request) {
	resp, err := s.earnings.Handler.StatisticsHandler(r.Context(), earningshttp.EarningsHistoryRequest{
		CourierID: r.PathValue("courier_id"),
		Start:     r.URL.Query().Get("start"),
		End:       r.URL.Query().Get("end"),
	})
	if err != nil {
		writeEarningsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateWeekly(w http.ResponseWriter, r *http.Request) {
	var req payouthttp.GenerateWeeklyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.payouts.Handler.GenerateWeeklyHandler(r.Context(), req)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGenerateBulk(w http.ResponseWriter, r *http.Request) {
	var req payouthttp.GenerateBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.payouts.Handler.GenerateBulkHandler(r.Context(), req)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPayout(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payouts.Handler.GetPayoutHandler(r.Context(), r.PathValue("payout_id"))
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payouts.Handler.ListPayoutsHandler(r.Context(), r.PathValue("courier_id"))
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePayoutStatus(w http.ResponseWriter, r *http.Request) {
	var req payouthttp.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.payouts.Handler.UpdateStatusHandler(r.Context(), r.PathValue("payout_id"), req)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEarningsDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, earningserrors.ErrInvalidPeriod),
		errors.Is(err, earningserrors.ErrInvalidDeliveryInput):
		writeEarningsError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, earningserrors.ErrCalculationNotFound):
		writeEarningsError(w, http.StatusNotFound, "calculation_not_found", err.Error())
	default:
		writeEarningsError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePayoutDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payouterrors.ErrInvalidPayoutInput),
		errors.Is(err, payouterrors.ErrInvalidStatus):
		writePayoutError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, payouterrors.ErrPayoutNotFound):
		writePayoutError(w, http.StatusNotFound, "payout_not_found", err.Error())
	case errors.Is(err, payouterrors.ErrNoEarningsInPeriod):
		writePayoutError(w, http.StatusUnprocessableEntity, "no_earnings_in_period", err.Error())
	case errors.Is(err, payouterrors.ErrPayoutExists):
		writePayoutError(w, http.StatusConflict, "payout_exists", err.Error())
	default:
		writePayoutError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEarningsError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, earningshttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writePayoutError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, payouthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
