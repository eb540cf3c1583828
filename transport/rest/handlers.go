package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

type roomLister interface {
	List() []room.Info
	Len() int
}

type counters interface {
	Snapshot() map[string]int64
}

// roomIDCounter is a shared id sequence that can tell how many ids it handed out.
type roomIDCounter interface {
	Current(ctx context.Context) (int64, error)
}

type handlers struct {
	logger *slog.Logger
	rooms  roomLister
	stats  counters
	ids    roomIDCounter
}

// statsHandler - counters of the process plus the number of open rooms and,
// with a shared id sequence, the ids issued by every process.
func (that *handlers) statsHandler(w http.ResponseWriter, req *http.Request) {
	snapshot := that.stats.Snapshot()
	snapshot["rooms_open"] = int64(that.rooms.Len())

	if that.ids != nil {
		issued, err := that.ids.Current(req.Context())
		if err != nil {
			that.logger.Warn("failed to read room id sequence", "error", err)
		} else {
			snapshot["room_ids_issued"] = issued
		}
	}

	that.writeJSON(w, snapshot)
}

func (that *handlers) roomsHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, that.rooms.List())
}

func (that *handlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
