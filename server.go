package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opensensing/lteshield/shield"
)

// Server handles incoming HTTP requests for inspecting the configured
// shield instance
type Server struct {
	Logger *slog.Logger
	Shield *shield.Shield
	// Mu serializes module transactions with the metrics collector.
	Mu *sync.Mutex
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)

}

// handleStatus reports the bring-up state and, once the module is
// registered, live readings taken from it
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type StatusResponse struct {
		State        string `json:"state"`
		Registration string `json:"registration,omitempty"`
		Operator     string `json:"operator,omitempty"`
		SignalDBm    *int   `json:"signal_dbm,omitempty"`
		ICCID        string `json:"iccid,omitempty"`
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	resp := StatusResponse{State: s.Shield.State().String()}

	if s.Shield.State() == shield.StateRegistered {
		ctx := r.Context()

		status, err := s.Shield.RegistrationStatus(ctx)
		if err != nil {
			s.Logger.Error("Failed to query registration", "error", err)
			s.sendError(w, err.Error(), http.StatusBadGateway)
			return
		}
		resp.Registration = status.String()

		if operator, err := s.Shield.Operator(ctx); err == nil {
			resp.Operator = operator
		} else {
			s.Logger.Warn("Failed to query operator", "error", err)
		}

		if quality, err := s.Shield.SignalQuality(ctx); err == nil {
			if dbm, ok := quality.DBm(); ok {
				resp.SignalDBm = &dbm
			}
		} else {
			s.Logger.Warn("Failed to query signal quality", "error", err)
		}

		if iccid, err := s.Shield.ICCID(ctx); err == nil {
			resp.ICCID = iccid
		} else {
			s.Logger.Warn("Failed to query SIM card", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
