package orderbook

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orderflow-labs/relayer/num"
	"github.com/orderflow-labs/relayer/types"
)

// storedOrder is the JSON-on-the-wire shape for orders:{id}:full. types.Order
// is kept free of storage-format concerns; this is the only place that
// knows Redis values are JSON strings.
type storedOrder struct {
	ID            string `json:"id"`
	ChainID       uint64 `json:"chainId"`
	Side          uint8  `json:"side"`
	Scope         uint8  `json:"scope"`
	Marketplace   string `json:"marketplace"`
	Kind          string `json:"kind"`
	Collection    string `json:"collection"`
	TokenID       string `json:"tokenId,omitempty"`
	Complication  string `json:"complication"`
	Currency      string `json:"currency"`
	StartPriceEth string `json:"startPriceEth"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
	Signer        string `json:"signer"`
	Nonce         uint64 `json:"nonce"`
	RawPayload    string `json:"rawPayload"`
	Status        uint8  `json:"status"`
}

func encodeOrder(o *types.Order) ([]byte, error) {
	s := storedOrder{
		ID:            o.ID.String(),
		ChainID:       o.ChainID,
		Side:          uint8(o.Side),
		Scope:         uint8(o.Scope),
		Marketplace:   o.Marketplace,
		Kind:          o.Kind,
		Collection:    o.Collection.Hex(),
		Complication:  o.Complication.Hex(),
		Currency:      o.Currency.Hex(),
		StartPriceEth: o.StartPriceEth.String(),
		StartTime:     o.StartTime,
		EndTime:       o.EndTime,
		Signer:        o.Signer.Hex(),
		Nonce:         o.Nonce,
		RawPayload:    hex.EncodeToString(o.RawPayload),
		Status:        uint8(o.Status),
	}
	if o.TokenID != nil {
		s.TokenID = o.TokenID.String()
	}
	return json.Marshal(s)
}

func decodeOrder(buf []byte) (*types.Order, error) {
	var s storedOrder
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("orderbook: decode stored order: %w", err)
	}
	id, err := types.HashFromHex(s.ID)
	if err != nil {
		return nil, err
	}
	price, err := num.DecimalFromString(s.StartPriceEth)
	if err != nil {
		return nil, fmt.Errorf("orderbook: decode startPriceEth: %w", err)
	}
	raw, err := hex.DecodeString(s.RawPayload)
	if err != nil {
		return nil, fmt.Errorf("orderbook: decode rawPayload: %w", err)
	}
	o := &types.Order{
		ID:            id,
		ChainID:       s.ChainID,
		Side:          types.Side(s.Side),
		Scope:         types.Scope(s.Scope),
		Marketplace:   s.Marketplace,
		Kind:          s.Kind,
		Collection:    common.HexToAddress(s.Collection),
		Complication:  common.HexToAddress(s.Complication),
		Currency:      common.HexToAddress(s.Currency),
		StartPriceEth: price,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Signer:        common.HexToAddress(s.Signer),
		Nonce:         s.Nonce,
		RawPayload:    raw,
		Status:        types.OrderStatus(s.Status),
	}
	if s.TokenID != "" {
		tok, overflowed := num.UintFromString(s.TokenID, 10)
		if overflowed {
			return nil, fmt.Errorf("orderbook: decode tokenId: invalid or overflowing value %q", s.TokenID)
		}
		o.TokenID = tok
	}
	return o, nil
}

// storedMatch is the JSON-on-the-wire shape for order-matches:{id}:full.
type storedMatch struct {
	ID             string `json:"id"`
	OrderA         string `json:"orderA"`
	OrderB         string `json:"orderB"`
	MaxGasPriceEth string `json:"maxGasPriceEth"`
	ProposedAt     int64  `json:"proposedAt"`
}

func encodeMatch(m *types.Match) ([]byte, error) {
	return json.Marshal(storedMatch{
		ID:             m.ID.String(),
		OrderA:         m.OrderA.String(),
		OrderB:         m.OrderB.String(),
		MaxGasPriceEth: m.MaxGasPriceEth.String(),
		ProposedAt:     m.ProposedAt,
	})
}

func decodeMatch(buf []byte) (*types.Match, error) {
	var s storedMatch
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("orderbook: decode stored match: %w", err)
	}
	id, err := types.HashFromHex(s.ID)
	if err != nil {
		return nil, err
	}
	a, err := types.HashFromHex(s.OrderA)
	if err != nil {
		return nil, err
	}
	b, err := types.HashFromHex(s.OrderB)
	if err != nil {
		return nil, err
	}
	gas, err := num.DecimalFromString(s.MaxGasPriceEth)
	if err != nil {
		return nil, fmt.Errorf("orderbook: decode maxGasPriceEth: %w", err)
	}
	return &types.Match{
		ID:             id,
		OrderA:         a,
		OrderB:         b,
		MaxGasPriceEth: gas,
		ProposedAt:     s.ProposedAt,
	}, nil
}
