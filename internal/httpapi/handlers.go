package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/draftpit/auction-engine/internal/auction"
	"github.com/draftpit/auction-engine/internal/hub"
	"github.com/draftpit/auction-engine/internal/ledger"
	"github.com/draftpit/auction-engine/internal/market"
	"github.com/draftpit/auction-engine/internal/queue"
	"github.com/draftpit/auction-engine/internal/roster"
	"github.com/draftpit/auction-engine/internal/session"
	"github.com/draftpit/auction-engine/internal/types"
	wire "github.com/draftpit/auction-engine/pkg/types"
)

// statusFor maps engine errors onto HTTP status and a stable error code.
// Anything unmapped is a 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auction.ErrBidTooLow):
		return http.StatusConflict, "bid_too_low"
	case errors.Is(err, auction.ErrAuctionClosed):
		return http.StatusConflict, "auction_closed"
	case errors.Is(err, auction.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, session.ErrAlreadyActive):
		return http.StatusConflict, "already_active"
	case errors.Is(err, session.ErrNotStarted):
		return http.StatusConflict, "not_started"
	case errors.Is(err, session.ErrNothingToRevert):
		return http.StatusConflict, "nothing_to_revert"
	case errors.Is(err, market.ErrWindowClosed):
		return http.StatusConflict, "window_closed"
	case errors.Is(err, market.ErrDuplicateListing):
		return http.StatusConflict, "duplicate_listing"
	case errors.Is(err, auction.ErrInsufficientBudget), errors.Is(err, ledger.ErrInsufficientBudget):
		return http.StatusUnprocessableEntity, "insufficient_budget"
	case errors.Is(err, auction.ErrNotInterestedParty):
		return http.StatusForbidden, "not_interested_party"
	case errors.Is(err, auction.ErrSelfBidForbidden):
		return http.StatusForbidden, "self_bid_forbidden"
	case errors.Is(err, market.ErrNotOwner):
		return http.StatusForbidden, "not_owner"
	case errors.Is(err, roster.ErrUnknownLeague):
		return http.StatusNotFound, "unknown_league"
	case errors.Is(err, ledger.ErrUnknownParticipant):
		return http.StatusNotFound, "unknown_participant"
	case errors.Is(err, queue.ErrUnknownPlayer):
		return http.StatusNotFound, "unknown_player"
	case errors.Is(err, market.ErrInvalidPrice):
		return http.StatusBadRequest, "invalid_price"
	case errors.Is(err, session.ErrSessionClosed), errors.Is(err, hub.ErrHubClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(wire.APIResponse{Status: status, Data: data})
}

func respondErr(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	respondError(w, status, code, err)
}

func respondError(w http.ResponseWriter, status int, code string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(wire.APIResponse{
		Status: status,
		Error:  &wire.APIError{Code: code, Message: err.Error()},
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", err)
		return false
	}
	return true
}

// ack is the thin reply for commands that do not return a resource.
type ack struct {
	Complete bool `json:"complete"`
}

func StartAuction(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Ensure(r.Context(), chi.URLParam(r, "leagueID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		if res := s.Start(r.Context()); res.Err != nil {
			respondErr(w, res.Err)
			return
		}
		v, err := s.State(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, types.State(v))
	}
}

func PlaceBid(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.PlaceBidRequest
		if !decode(w, r, &req) {
			return
		}
		s, err := h.Ensure(r.Context(), chi.URLParam(r, "leagueID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		res := s.Bid(r.Context(), chi.URLParam(r, "playerID"), req.BidderID, req.Amount)
		if res.Err != nil {
			respondErr(w, res.Err)
			return
		}
		respond(w, http.StatusCreated, types.Bid(res.Bid))
	}
}

func PassOn(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.PassRequest
		if !decode(w, r, &req) {
			return
		}
		s, err := h.Ensure(r.Context(), chi.URLParam(r, "leagueID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		res := s.PassOn(r.Context(), chi.URLParam(r, "playerID"), req.ParticipantID)
		if res.Err != nil {
			respondErr(w, res.Err)
			return
		}
		respond(w, http.StatusOK, ack{Complete: res.Complete})
	}
}

func AdvanceItem(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Ensure(r.Context(), chi.URLParam(r, "leagueID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		res := s.AdvanceItem(r.Context())
		if res.Err != nil {
			respondErr(w, res.Err)
			return
		}
		respond(w, http.StatusOK, ack{Complete: res.Complete})
	}
}

func ResolveItem(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.ResolveRequest
		if !decode(w, r, &req) {
			return
		}
		s, err := h.Ensure(r.Context(), chi.URLParam(r, "leagueID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		res := s.Resolve(r.Context(), chi.URLParam(r, "playerID"), req.WinnerID, req.Amount)
		if res.Err != nil {
			respondErr(w, res.Err)
			return
		}
		respond(w, http.StatusOK, ack{Complete: res.Complete})
	}
}

func RevertItem(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Ensure(r.Context(), chi.URLParam(r, "leagueID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		if res := s.Revert(r.Context(), chi.URLParam(r, "playerID")); res.Err != nil {
			respondErr(w, res.Err)
			return
		}
		respond(w, http.StatusOK, nil)
	}
}

func CreateListing(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.ListPlayerRequest
		if !decode(w, r, &req) {
			return
		}
		s, err := h.Ensure(r.Context(), chi.URLParam(r, "leagueID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		res := s.List(r.Context(), req.PlayerID, req.SellerID, req.Price)
		if res.Err != nil {
			respondErr(w, res.Err)
			return
		}
		respond(w, http.StatusCreated, types.Listing(*res.Listing))
	}
}

// GetState reads without creating: a league nobody touched yet is a 404,
// not an empty session.
func GetState(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID := chi.URLParam(r, "leagueID")
		s, err := h.Get(r.Context(), leagueID)
		if err != nil {
			respondErr(w, err)
			return
		}
		if s == nil {
			respondError(w, http.StatusNotFound, "unknown_league", roster.ErrUnknownLeague)
			return
		}
		v, err := s.State(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, types.State(v))
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
