package broadcast

import (
	"context"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const MatchUpdated = "MATCH_UPDATED"

// BoardLoader reads the state pushed to a match room.
type BoardLoader func(ctx context.Context, matchID uuid.UUID) (any, error)

// MatchNotifier publishes the board of a match after every committed change.
type MatchNotifier struct {
	hub  *Hub
	load BoardLoader
}

func NewMatchNotifier(hub *Hub, load BoardLoader) *MatchNotifier {
	return &MatchNotifier{hub: hub, load: load}
}

func RoomFor(matchID uuid.UUID) string {
	return "match_" + matchID.String()
}

func (n *MatchNotifier) MatchChanged(ctx context.Context, matchID uuid.UUID) {
	room := RoomFor(matchID)
	if n.hub.RoomSize(room) == 0 {
		return
	}
	board, err := n.load(ctx, matchID)
	if err != nil {
		n.hub.logger.Error("failed to load board for broadcast", "match_id", matchID, "error", err)
		return
	}
	n.hub.BroadcastToRoom(room, Message{Type: MatchUpdated, Payload: board, RoomID: room})
}

// Upgrader accepts browsers from allowed origins; "*" allows any.
func Upgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
}
