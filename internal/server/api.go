package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"meme-trade-bot-go/internal/engine"
	"meme-trade-bot-go/internal/journal"
)

// APIServer provides a read-only HTTP view over the engine.
type APIServer struct {
	server  *http.Server
	engine  *engine.Engine
	journal *journal.Journal
	logger  *zap.Logger
	start   time.Time
}

// NewAPIServer creates a new APIServer. journal may be nil.
func NewAPIServer(eng *engine.Engine, jrnl *journal.Journal, port int, logger *zap.Logger) *APIServer {
	s := &APIServer{
		engine:  eng,
		journal: jrnl,
		logger:  logger.Named("api-server"),
		start:   time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/api/trades", s.tradesHandler)
	mux.HandleFunc("/api/stats", s.statsHandler)
	mux.HandleFunc("/api/log", s.logHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Uptime        string `json:"uptime"`
		LiveMode      bool   `json:"live_mode"`
		LedgerSize    int    `json:"ledger_size"`
		OpenPositions int    `json:"open_positions"`
		RiskLevel     string `json:"risk_level"`
	}{
		Uptime:        time.Since(s.start).String(),
		LiveMode:      s.engine.LiveMode(),
		LedgerSize:    s.engine.LedgerSize(),
		OpenPositions: len(s.engine.DCAStatus()),
		RiskLevel:     s.engine.RiskLevel(),
	}
	s.writeJSON(w, status)
}

func (s *APIServer) tradesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.engine.LastTrades(engine.DefaultLedgerCapacity))
}

func (s *APIServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Stats     interface{} `json:"stats"`
		Portfolio interface{} `json:"portfolio"`
	}{
		Stats:     s.engine.TotalStats(),
		Portfolio: s.engine.Portfolio(),
	}
	s.writeJSON(w, response)
}

func (s *APIServer) logHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	lines, err := s.journal.Tail(10)
	if err != nil {
		s.logger.Error("Failed to read journal", zap.Error(err))
		http.Error(w, "failed to read journal", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, lines)
}

func (s *APIServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
