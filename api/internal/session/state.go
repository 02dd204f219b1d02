package session

import (
	"context"

	"documind-bot/api/internal/store"
)

type State int

const (
	Idle State = iota
	AwaitingMenuAction
)

func (s State) String() string {
	if s == AwaitingMenuAction {
		return "awaiting_menu_action"
	}
	return "idle"
}

// input is an event together with what the state derivation found for it.
type input struct {
	Event
	doc store.Entry // set in AwaitingMenuAction
}

// handler performs the side effects of a transition and returns the state the
// chat ends up in.
type handler func(c *Controller, ctx context.Context, in input) (State, error)

// transitions is the complete (State, EventKind) table. The state is derived
// per event: an action press against a cached message is AwaitingMenuAction,
// everything else is Idle. Photos and commands behave the same in both states:
// a new photo simply starts a new document.
var transitions = map[State]map[EventKind]handler{
	Idle: {
		EventStart:        (*Controller).start,        // -> Idle
		EventClear:        (*Controller).clear,        // -> Idle
		EventPhoto:        (*Controller).photo,        // -> AwaitingMenuAction | Idle
		EventPhotoCaption: (*Controller).direct,       // -> AwaitingMenuAction | Idle
		EventUnrecognized: (*Controller).unrecognized, // -> Idle
		EventAction:       (*Controller).staleAction,  // -> Idle
	},
	AwaitingMenuAction: {
		EventStart:        (*Controller).start,
		EventClear:        (*Controller).clear,
		EventPhoto:        (*Controller).photo,
		EventPhotoCaption: (*Controller).direct,
		EventUnrecognized: (*Controller).unrecognized,
		EventAction:       (*Controller).menuAction, // -> AwaitingMenuAction | Idle on new_scan
	},
}
