package api

import "github.com/solheim-systems/simplecoin/internal/ledgertypes"

// postTransactionsRequest is the body of POST /transactions, per spec
// section 6: {transactions: [TxJSON, ...]}.
type postTransactionsRequest struct {
	Transactions []*ledgertypes.Transaction `json:"transactions"`
}

// postTransactionsResponse mirrors spec section 6's {status, numAccepted}
// contract. NumAccepted is the count of transactions parsed from the
// request body, not the count actually sealed into a block, matching
// app.py's literal len(transactions) regardless of downstream rejection.
// Status is always "ok" or "error"; failures still answer 200, matching
// the original's "never fail the HTTP layer on a bad batch" behavior.
type postTransactionsResponse struct {
	Status      string `json:"status"`
	NumAccepted int    `json:"numAccepted"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type peerView struct {
	PublicKey string `json:"publicKey"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
}

type peersResponse struct {
	Peers []peerView `json:"peers"`
}
