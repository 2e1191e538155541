// Package types defines the wire format of the auction API: request
// bodies, the response envelope, and the snapshot pushed to websocket
// observers. It is import-light on purpose so clients can depend on it.
package types

import "github.com/shopspring/decimal"

// Client -> Server

type PlaceBidRequest struct {
	BidderID string          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type PassRequest struct {
	ParticipantID string `json:"participant_id"`
}

// ResolveRequest asks for an immediate admin assignment of the item on
// the block to WinnerID at Amount.
type ResolveRequest struct {
	WinnerID string          `json:"winner_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// ListPlayerRequest puts a held player on the transfer market.
type ListPlayerRequest struct {
	SellerID string          `json:"seller_id"`
	PlayerID string          `json:"player_id"`
	Price    decimal.Decimal `json:"price"`
}

// Server -> Client

// APIError carries a stable machine-readable code next to the human
// message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the envelope every REST endpoint answers with.
type APIResponse struct {
	Status int       `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// ServerMessage frames everything sent over the websocket.
type ServerMessage struct {
	Type     string    `json:"type"` // "StateSnapshot" | "Error"
	Version  int       `json:"version,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}
