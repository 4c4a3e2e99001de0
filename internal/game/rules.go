package game

import (
	"errors"
	"math/rand"

	"github.com/TomaTV/taquiz.fr/internal/constants"
	"github.com/TomaTV/taquiz.fr/internal/models"
)

var (
	// ErrInsufficientQuestions indicates the assembled pool is below the
	// minimum needed to start. No shared state may be written in that case.
	ErrInsufficientQuestions = errors.New("not enough questions to start")

	// ErrQuizAlreadyStarted indicates a start attempt on a session that
	// already left the waiting phase.
	ErrQuizAlreadyStarted = errors.New("quiz already started")

	// ErrQuizNotFinished indicates a reset attempt on a session that is
	// not showing results.
	ErrQuizNotFinished = errors.New("quiz has not finished")
)

// StepKind classifies the outcome of evaluating the aggregation rule on an
// observed snapshot.
type StepKind int

const (
	// StepNone: the active question is still incomplete, or the session
	// is not answering. Nothing to write.
	StepNone StepKind = iota
	// StepAdvance: every current player answered and more questions
	// remain. Write NextIndex as the absolute new index.
	StepAdvance
	// StepResults: every current player answered the last question. Move
	// the session to results.
	StepResults
)

// Step is a pure decision; it carries no side effects. NextIndex is
// absolute, computed from the snapshot the decision was made on, so writing
// it twice from the same observation cannot advance the session twice.
type Step struct {
	Kind      StepKind
	NextIndex int
}

// AllAnswered reports whether every player currently in the session has an
// answer recorded for the given question index. The live player set is
// authoritative: a player who joins mid-quiz is counted immediately and
// holds back progress until they answer the active question. An empty
// player set never counts as complete.
func AllAnswered(session models.Session, index int) bool {
	if len(session.Players) == 0 {
		return false
	}
	for id := range session.Players {
		if !session.HasAnswered(id, index) {
			return false
		}
	}
	return true
}

// NextStep evaluates the aggregation rule on a snapshot. It is safe to run
// on every client; only the host's client may act on the result.
func NextStep(session models.Session) Step {
	if session.Phase != models.PhaseAnswering {
		return Step{Kind: StepNone}
	}
	index := session.CurrentQuestionIndex
	if index < 0 || index >= len(session.Questions) {
		return Step{Kind: StepNone}
	}
	if !AllAnswered(session, index) {
		return Step{Kind: StepNone}
	}
	if index == len(session.Questions)-1 {
		return Step{Kind: StepResults}
	}
	return Step{Kind: StepAdvance, NextIndex: index + 1}
}

// StartQuiz validates the waiting -> answering transition and returns the
// assembled, shuffled question list. It performs no writes; on error the
// caller must not issue the phase write.
func StartQuiz(session models.Session, rng *rand.Rand) ([]string, error) {
	if session.Phase != models.PhaseWaiting {
		return nil, ErrQuizAlreadyStarted
	}
	if PoolSize(session.QuestionSubmissions) < constants.MinQuestionsToStart {
		return nil, ErrInsufficientQuestions
	}
	return AssemblePool(session.QuestionSubmissions, rng), nil
}

// ValidateReset validates the results -> waiting transition. Resetting is
// only legal from the results phase; a mid-quiz reset would tear shared
// state out from under answering players.
func ValidateReset(session models.Session) error {
	if session.Phase != models.PhaseResults {
		return ErrQuizNotFinished
	}
	return nil
}

// ClampSelected bounds a results-navigation target to the valid question
// range.
func ClampSelected(session models.Session, index int) int {
	if index < 0 {
		return 0
	}
	if last := len(session.Questions) - 1; index > last && last >= 0 {
		return last
	}
	if len(session.Questions) == 0 {
		return 0
	}
	return index
}
