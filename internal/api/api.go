// Package api implements the HTTP surface over a node's chain and peer
// directory: POST/GET /transactions, GET /peers, POST /peer, plus the
// ambient /metrics and /healthz endpoints, per spec section 6.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/solheim-systems/simplecoin/internal/ledger"
	"github.com/solheim-systems/simplecoin/internal/ledgertypes"
	"github.com/solheim-systems/simplecoin/internal/metrics"
	"github.com/solheim-systems/simplecoin/internal/p2p"
)

// transactionsRequestTimeout bounds how long a POST /transactions call
// waits on the mining goroutine before giving up.
const transactionsRequestTimeout = 30 * time.Second

// Chain is the read surface api needs from the node's chain.
type Chain interface {
	Iterator(startIndexOffset int) []*ledger.Block
	BlockAt(index uint64) *ledger.Block
	GetBalance(accountKey string, upToBlockIndex *uint64) int64
}

// Submitter is the write surface api needs from the node orchestrator.
type Submitter interface {
	SubmitTransactions(ctx context.Context, txs []*ledgertypes.Transaction) (*ledger.Block, []*ledgertypes.Transaction, error)
}

// Directory is the read surface api needs from the peer directory.
type Directory interface {
	Snapshot() []p2p.Peer
}

// Server holds the dependencies the HTTP handlers close over.
type Server struct {
	chain     Chain
	submitter Submitter
	directory Directory
	peerFn    http.HandlerFunc
	logger    *zap.Logger
}

// New builds the api Server and its router. peerHandler is mounted
// directly as POST /peer, since the handshake protocol lives in internal/p2p.
func New(chain Chain, submitter Submitter, directory Directory, peerHandler http.HandlerFunc, logger *zap.Logger) (*Server, *mux.Router) {
	s := &Server{chain: chain, submitter: submitter, directory: directory, peerFn: peerHandler, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/transactions", s.postTransactions).Methods(http.MethodPost)
	r.HandleFunc("/transactions", s.getTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{blockID}", s.getTransaction).Methods(http.MethodGet)
	r.HandleFunc("/peers", s.getPeers).Methods(http.MethodGet)
	r.HandleFunc("/peer", s.peerFn).Methods(http.MethodPost)
	r.HandleFunc("/balance/{account}", s.getBalance).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	return s, r
}

// postTransactions implements POST /transactions: decode the batch, submit
// it whole to the mining goroutine, and always answer HTTP 200 (spec
// section 6: parse/runtime failures report {status: "error"} at 200, never
// a non-200 status).
func (s *Server) postTransactions(w http.ResponseWriter, r *http.Request) {
	var req postTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, postTransactionsResponse{Status: "error"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), transactionsRequestTimeout)
	defer cancel()

	_, _, err := s.submitter.SubmitTransactions(ctx, req.Transactions)
	if err != nil {
		s.logger.Debug("submit transactions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, postTransactionsResponse{Status: "error"})
		return
	}

	writeJSON(w, http.StatusOK, postTransactionsResponse{Status: "ok", NumAccepted: len(req.Transactions)})
}

// getTransactions implements GET /transactions[?start=K]: returns blocks
// from the K-th (1-indexed) block onward.
func (s *Server) getTransactions(w http.ResponseWriter, r *http.Request) {
	start := 1
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid start parameter", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	blocks := s.chain.Iterator(start - 1)
	writeJSON(w, http.StatusOK, blocks)
}

// getTransaction implements GET /transactions/<blockID>: a single block, or
// a 404-equivalent text response if it is out of range.
func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.ParseUint(vars["blockID"], 10, 64)
	if err != nil {
		http.Error(w, "invalid block id", http.StatusBadRequest)
		return
	}
	block := s.chain.BlockAt(index)
	if block == nil {
		http.Error(w, "block not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// getBalance answers an account's current balance, an ambient convenience
// endpoint layered over Chain.GetBalance for operators and CLIs.
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	balance := s.chain.GetBalance(account, nil)
	writeJSON(w, http.StatusOK, balanceResponse{Account: account, Balance: balance})
}

// getPeers implements GET /peers[?mode=json|html]. Rendering is a
// collaborator concern per spec section 6; only the JSON form is served
// here, mode=html degrades to the same JSON body rather than failing the
// request.
func (s *Server) getPeers(w http.ResponseWriter, r *http.Request) {
	snapshot := s.directory.Snapshot()
	out := make([]peerView, 0, len(snapshot))
	for _, p := range snapshot {
		out = append(out, peerView{PublicKey: p.PublicKey.Wire(), IP: p.IP, Port: p.Port})
	}
	writeJSON(w, http.StatusOK, peersResponse{Peers: out})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
