package engine

import (
	"github.com/patrickwarner/adsengine/internal/bundle"
	"github.com/patrickwarner/adsengine/internal/clientstate"
)

// DebugSnapshot is a read-only view of engine state for the reference
// debug tooling (cmd/mcp-debug); it has no effect on engine behavior.
type DebugSnapshot struct {
	State           string
	CurrentCategory string
	AdsPerHour      uint64
	AdsPerDay       uint64
	AdsShownLastHour int
	AdsShownLastDay  int
	ClientState     clientstate.State
	Bundle          bundle.State
}

// Debug returns a point-in-time snapshot of the Engine's internal state,
// for read-only inspection by debug tooling.
func (e *Engine) Debug() DebugSnapshot {
	now := e.now().Unix()
	return DebugSnapshot{
		State:            e.state.String(),
		CurrentCategory:  e.winnerOverTimeCategory(),
		AdsPerHour:       e.cfg.AdsPerHour,
		AdsPerDay:        e.cfg.AdsPerDay,
		AdsShownLastHour: e.clientState.AdsShownRecent(3600, now),
		AdsShownLastDay:  e.clientState.AdsShownRecent(86400, now),
		ClientState:      e.clientState.Snapshot(),
		Bundle:           *e.bundle.Snapshot(),
	}
}
