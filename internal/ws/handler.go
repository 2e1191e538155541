// Package ws streams versioned league snapshots to websocket observers.
// The stream is read-only; commands go through the REST API.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/draftpit/auction-engine/internal/hub"
	"github.com/draftpit/auction-engine/internal/session"
	"github.com/draftpit/auction-engine/internal/types"
	wire "github.com/draftpit/auction-engine/pkg/types"
)

const writeTimeout = 3 * time.Second

func Handler(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID := chi.URLParam(r, "leagueID")
		if leagueID == "" {
			http.Error(w, "missing league id", http.StatusBadRequest)
			return
		}

		s, err := h.Get(r.Context(), leagueID)
		if err != nil {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		if s == nil {
			http.Error(w, "league not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Snapshot, 8)
		observerID := uuid.NewString()

		if err := s.Observe(r.Context(), observerID, out); err != nil {
			return
		}
		defer s.Forget(observerID)

		// Writer goroutine. The session drops snapshots rather than
		// block, so out only closes when the session shuts down.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case snap, ok := <-out:
					if !ok {
						return
					}
					dto := types.Snapshot(snap)
					msg := wire.ServerMessage{Type: "StateSnapshot", Version: snap.Version, Snapshot: &dto}
					payload, err := json.Marshal(msg)
					if err != nil {
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		// Reader loop: observers have nothing to say, but reading is how
		// we notice the client is gone. Clean close or dead peer, either
		// way the observer is done.
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				return
			}
		}
	}
}
