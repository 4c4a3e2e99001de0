package game

import (
	"errors"

	"github.com/TomaTV/taquiz.fr/internal/models"
)

// ErrNotHost indicates a non-host attempted a host-gated action. The gate
// is checked before any write is attempted, so shared state is untouched.
var ErrNotHost = errors.New("only the host can do this")

// Action is something a player asks the session to do.
type Action string

const (
	ActionJoin            Action = "join"
	ActionSubmitQuestions Action = "submit_questions"
	ActionSubmitAnswer    Action = "submit_answer"
	ActionStartQuiz       Action = "start_quiz"
	ActionNavigateResults Action = "navigate_results"
	ActionToggleReveal    Action = "toggle_reveal"
	ActionResetSession    Action = "reset_session"
)

// IsAuthorized reports whether the player may perform the action.
// Presentation-driving actions are host-only; everything else requires
// nothing beyond being a recognized player. Enforcement is cooperative at
// the client layer: all participants run the same logic and are assumed
// non-adversarial.
func IsAuthorized(player models.Player, action Action) bool {
	switch action {
	case ActionStartQuiz, ActionNavigateResults, ActionToggleReveal, ActionResetSession:
		return player.IsHost
	default:
		return true
	}
}
