package session

import (
	"strings"

	"documind-bot/api/internal/render"
)

// Action is the opaque identifier carried by a menu button.
type Action string

const (
	Summarize   Action = render.ActionSummarize
	TranslateEN Action = render.ActionTranslateEN
	TranslateUA Action = render.ActionTranslateUA
	Keywords    Action = render.ActionKeywords
	ShowMenu    Action = render.ActionBackToMenu
	NewScan     Action = render.ActionNewScan
)

func ParseAction(data string) Action { return Action(strings.TrimSpace(data)) }

// Generates reports whether the action needs the generation service. Anything
// outside the pure UI transitions does, including identifiers we do not know.
func (a Action) Generates() bool { return a != ShowMenu && a != NewScan && a != "" }
