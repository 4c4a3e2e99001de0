package game

import (
	"testing"

	"github.com/TomaTV/taquiz.fr/internal/models"
)

func TestIsAuthorized(t *testing.T) {
	host := models.Player{ID: "h", IsHost: true}
	guest := models.Player{ID: "g", IsHost: false}

	gated := []Action{ActionStartQuiz, ActionNavigateResults, ActionToggleReveal, ActionResetSession}
	open := []Action{ActionJoin, ActionSubmitQuestions, ActionSubmitAnswer}

	for _, action := range gated {
		if !IsAuthorized(host, action) {
			t.Errorf("host denied %s", action)
		}
		if IsAuthorized(guest, action) {
			t.Errorf("guest allowed %s", action)
		}
	}

	for _, action := range open {
		if !IsAuthorized(host, action) {
			t.Errorf("host denied %s", action)
		}
		if !IsAuthorized(guest, action) {
			t.Errorf("guest denied %s", action)
		}
	}
}
