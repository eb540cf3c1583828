package stats

import "sync/atomic"

// Counters are process-wide runtime counters. A nil *Counters is valid and counts nothing.
type Counters struct {
	RoomsCreated      atomic.Int64
	RoomsRemoved      atomic.Int64
	MovesAccepted     atomic.Int64
	MovesRejected     atomic.Int64
	GamesFinished     atomic.Int64
	ConnectionsOpened atomic.Int64
	ConnectionsClosed atomic.Int64
	MessagesDropped   atomic.Int64
}

func New() *Counters {
	return &Counters{}
}

func (that *Counters) IncRoomsCreated() {
	if that != nil {
		that.RoomsCreated.Add(1)
	}
}

func (that *Counters) IncRoomsRemoved() {
	if that != nil {
		that.RoomsRemoved.Add(1)
	}
}

func (that *Counters) IncMovesAccepted() {
	if that != nil {
		that.MovesAccepted.Add(1)
	}
}

func (that *Counters) IncMovesRejected() {
	if that != nil {
		that.MovesRejected.Add(1)
	}
}

func (that *Counters) IncGamesFinished() {
	if that != nil {
		that.GamesFinished.Add(1)
	}
}

func (that *Counters) IncConnectionsOpened() {
	if that != nil {
		that.ConnectionsOpened.Add(1)
	}
}

func (that *Counters) IncConnectionsClosed() {
	if that != nil {
		that.ConnectionsClosed.Add(1)
	}
}

func (that *Counters) IncMessagesDropped() {
	if that != nil {
		that.MessagesDropped.Add(1)
	}
}

// Snapshot returns a copy suitable for JSON output.
func (that *Counters) Snapshot() map[string]int64 {
	if that == nil {
		return map[string]int64{}
	}

	opened := that.ConnectionsOpened.Load()
	closed := that.ConnectionsClosed.Load()

	return map[string]int64{
		"rooms_created":      that.RoomsCreated.Load(),
		"rooms_removed":      that.RoomsRemoved.Load(),
		"moves_accepted":     that.MovesAccepted.Load(),
		"moves_rejected":     that.MovesRejected.Load(),
		"games_finished":     that.GamesFinished.Load(),
		"connections_opened": opened,
		"connections_active": opened - closed,
		"messages_dropped":   that.MessagesDropped.Load(),
	}
}
