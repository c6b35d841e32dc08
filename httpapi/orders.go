package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orderflow-labs/relayer/marketplaces"
	"github.com/orderflow-labs/relayer/num"
	"github.com/orderflow-labs/relayer/types"
)

var errInvalidTokenID = errors.New("httpapi: invalid or overflowing tokenId")

// orderRequest is the wire shape for POST /orders: a pre-validated,
// already-signed order from the marketplace SDK ingestion layer (an
// external collaborator; this handler is the seam it submits through).
type orderRequest struct {
	ChainID      uint64 `json:"chainId"`
	Side         uint8  `json:"side"`
	Scope        uint8  `json:"scope"`
	Marketplace  string `json:"marketplace"`
	Kind         string `json:"kind"`
	Collection   string `json:"collection"`
	TokenID      string `json:"tokenId,omitempty"`
	Complication string `json:"complication"`
	Currency     string `json:"currency"`
	StartPrice   string `json:"startPriceEth"`
	StartTime    int64  `json:"startTime"`
	EndTime      int64  `json:"endTime"`
	Signer       string `json:"signer"`
	Nonce        uint64 `json:"nonce"`
	RawPayload   string `json:"rawPayload"`
}

type matchResponse struct {
	ID             string `json:"id"`
	Counterpart    string `json:"counterpart"`
	MaxGasPriceEth string `json:"maxGasPriceEth"`
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	if s.matching == nil || s.dispatcher == nil {
		http.Error(w, "matching engine not configured", http.StatusServiceUnavailable)
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := decodeOrderRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order.ID = order.ComputeID()

	if err := order.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Reject an unsupported (marketplace, kind) pair synchronously, before
	// any state mutation: neither store.Save nor MatchOrder ever sees it.
	if _, err := s.dispatcher.Dispatch(marketplaces.Marketplace(order.Marketplace), marketplaces.OrderKind(order.Kind)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.Save(r.Context(), order); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	matches, err := s.matching.MatchOrder(r.Context(), order)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchResponse{
			ID:             m.ID.String(),
			Counterpart:    m.Counterpart(order.ID).String(),
			MaxGasPriceEth: m.MaxGasPriceEth.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func decodeOrderRequest(req orderRequest) (*types.Order, error) {
	price, err := num.DecimalFromString(req.StartPrice)
	if err != nil {
		return nil, err
	}
	o := &types.Order{
		ChainID:       req.ChainID,
		Side:          types.Side(req.Side),
		Scope:         types.Scope(req.Scope),
		Marketplace:   req.Marketplace,
		Kind:          req.Kind,
		Collection:    common.HexToAddress(req.Collection),
		Complication:  common.HexToAddress(req.Complication),
		Currency:      common.HexToAddress(req.Currency),
		StartPriceEth: price,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Signer:        common.HexToAddress(req.Signer),
		Nonce:         req.Nonce,
		RawPayload:    []byte(req.RawPayload),
		Status:        types.OrderStatusActive,
	}
	if req.TokenID != "" {
		tok, overflowed := num.UintFromString(req.TokenID, 10)
		if overflowed {
			return nil, errInvalidTokenID
		}
		o.TokenID = tok
	}
	return o, nil
}
