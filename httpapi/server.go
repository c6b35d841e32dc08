// Package httpapi is the HTTP control surface named as an external
// collaborator in spec.md §1: start/stop per-collection pipelines, query
// status, and serve the prometheus series from metrics. A real deployment
// may front the core engines with a different surface entirely; this is
// the default adapter that keeps the module runnable end to end.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/marketplaces"
	"github.com/orderflow-labs/relayer/matching"
	"github.com/orderflow-labs/relayer/orderbook"
)

// Server is the control surface's gorilla/mux router over Pipelines and,
// when wired, the order ingestion seam into the matching engine.
type Server struct {
	log        *logging.Logger
	cfg        Config
	srv        *http.Server
	pipelines  *Pipelines
	store      *orderbook.Storage
	matching   *matching.Engine
	dispatcher *marketplaces.Dispatcher
}

// NewServer builds a Server. It does not start listening until Start.
func NewServer(log *logging.Logger, cfg Config, pipelines *Pipelines) *Server {
	named := log.Named(namedLogger)
	named.SetLevel(cfg.Level.Get())
	return &Server{log: named, cfg: cfg, pipelines: pipelines}
}

// WithOrderIngestion wires POST /orders to the given orderbook, matching
// engine, and marketplace dispatcher. Every submitted order is checked
// against dispatcher before it is saved or matched; an unsupported
// (marketplace, kind) pair rejects with ErrUnsupportedOrderKind and never
// reaches the store. Without this call, the route answers 503.
func (s *Server) WithOrderIngestion(store *orderbook.Storage, engine *matching.Engine, dispatcher *marketplaces.Dispatcher) *Server {
	s.store = store
	s.matching = engine
	s.dispatcher = dispatcher
	return s
}

// Handler builds the control surface's router. Exposed separately from
// Start so tests can exercise routes without binding a real listener.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/collections/{id}/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/collections/{id}/stop", s.handleStop).Methods(http.MethodPost)
	r.HandleFunc("/collections/{id}/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Start begins serving on cfg.ListenAddr. It blocks until ctx is
// cancelled, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.log.Info("control surface listening", logging.String("addr", s.cfg.ListenAddr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop closes the listener.
func (s *Server) Stop() {
	if s.srv == nil {
		return
	}
	if err := s.srv.Close(); err != nil {
		s.log.Error("failed to stop control surface cleanly", logging.Error(err))
	}
}

func (s *Server) collectionFromPath(r *http.Request) (common.Address, bool) {
	id := mux.Vars(r)["id"]
	if !common.IsHexAddress(id) {
		return common.Address{}, false
	}
	return common.HexToAddress(id), true
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.collectionFromPath(r)
	if !ok {
		http.Error(w, "invalid collection address", http.StatusBadRequest)
		return
	}
	s.pipelines.Start(collection)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.collectionFromPath(r)
	if !ok {
		http.Error(w, "invalid collection address", http.StatusBadRequest)
		return
	}
	s.pipelines.Stop(collection)
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Collection string `json:"collection"`
	Active     bool   `json:"active"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.collectionFromPath(r)
	if !ok {
		http.Error(w, "invalid collection address", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		Collection: collection.Hex(),
		Active:     s.pipelines.IsActive(collection),
	})
}
