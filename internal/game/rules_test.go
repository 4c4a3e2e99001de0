package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/TomaTV/taquiz.fr/internal/models"
)

func answeringSession(questions int, index int) models.Session {
	return models.Session{
		ID:                   "AB12CD34",
		Phase:                models.PhaseAnswering,
		Players:              map[string]models.Player{},
		Answers:              map[string]map[int]models.Answer{},
		Questions:            make([]string, questions),
		CurrentQuestionIndex: index,
	}
}

func addPlayer(s *models.Session, id string, answered ...int) {
	s.Players[id] = models.Player{ID: id, Name: id}
	for _, i := range answered {
		if s.Answers[id] == nil {
			s.Answers[id] = map[int]models.Answer{}
		}
		s.Answers[id][i] = models.Answer{Text: "x"}
	}
}

func TestAllAnswered(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		s := answeringSession(3, 0)
		addPlayer(&s, "p1", 0)
		addPlayer(&s, "p2", 0)
		if !AllAnswered(s, 0) {
			t.Error("AllAnswered = false, want true")
		}
	})

	t.Run("one missing", func(t *testing.T) {
		s := answeringSession(3, 0)
		addPlayer(&s, "p1", 0)
		addPlayer(&s, "p2")
		if AllAnswered(s, 0) {
			t.Error("AllAnswered = true with a missing answer")
		}
	})

	t.Run("no players", func(t *testing.T) {
		s := answeringSession(3, 0)
		if AllAnswered(s, 0) {
			t.Error("AllAnswered = true with no players")
		}
	})

	t.Run("late joiner blocks progress", func(t *testing.T) {
		s := answeringSession(3, 1)
		addPlayer(&s, "p1", 0, 1)
		addPlayer(&s, "p2", 0, 1)
		// p3 joined mid-quiz and has not answered the active question.
		addPlayer(&s, "p3")
		if AllAnswered(s, 1) {
			t.Error("AllAnswered = true despite late joiner without answer")
		}
	})

	t.Run("late joiner need not backfill earlier answers", func(t *testing.T) {
		s := answeringSession(3, 1)
		addPlayer(&s, "p1", 0, 1)
		addPlayer(&s, "p3", 1)
		if !AllAnswered(s, 1) {
			t.Error("AllAnswered = false despite all active-question answers present")
		}
	})
}

func TestNextStep(t *testing.T) {
	t.Run("incomplete question", func(t *testing.T) {
		s := answeringSession(3, 0)
		addPlayer(&s, "p1", 0)
		addPlayer(&s, "p2")
		if step := NextStep(s); step.Kind != StepNone {
			t.Errorf("step = %+v, want StepNone", step)
		}
	})

	t.Run("advance to next question", func(t *testing.T) {
		s := answeringSession(3, 1)
		addPlayer(&s, "p1", 1)
		addPlayer(&s, "p2", 1)
		step := NextStep(s)
		if step.Kind != StepAdvance {
			t.Fatalf("step = %+v, want StepAdvance", step)
		}
		if step.NextIndex != 2 {
			t.Errorf("NextIndex = %d, want 2", step.NextIndex)
		}
	})

	t.Run("last question goes to results", func(t *testing.T) {
		s := answeringSession(3, 2)
		addPlayer(&s, "p1", 2)
		addPlayer(&s, "p2", 2)
		if step := NextStep(s); step.Kind != StepResults {
			t.Errorf("step = %+v, want StepResults", step)
		}
	})

	t.Run("not answering", func(t *testing.T) {
		s := answeringSession(3, 0)
		s.Phase = models.PhaseWaiting
		addPlayer(&s, "p1", 0)
		if step := NextStep(s); step.Kind != StepNone {
			t.Errorf("step = %+v, want StepNone in waiting phase", step)
		}
	})

	t.Run("decision is stable for the same snapshot", func(t *testing.T) {
		// Two clients evaluating the same stale snapshot must compute
		// the same absolute target index, so a duplicate write cannot
		// advance twice.
		s := answeringSession(3, 0)
		addPlayer(&s, "p1", 0)
		addPlayer(&s, "p2", 0)
		first := NextStep(s)
		second := NextStep(s)
		if first != second {
			t.Errorf("repeated evaluation differs: %+v vs %+v", first, second)
		}
		if first.NextIndex != 1 {
			t.Errorf("NextIndex = %d, want absolute index 1", first.NextIndex)
		}
	})
}

func TestStartQuiz(t *testing.T) {
	t.Run("too few questions", func(t *testing.T) {
		s := models.Session{
			Phase: models.PhaseWaiting,
			QuestionSubmissions: map[string]models.QuestionSubmission{
				"p1": {Questions: []string{"Q1", "Q2"}},
			},
		}
		if _, err := StartQuiz(s, nil); !errors.Is(err, ErrInsufficientQuestions) {
			t.Errorf("err = %v, want ErrInsufficientQuestions", err)
		}
	})

	t.Run("exactly three across players", func(t *testing.T) {
		s := models.Session{
			Phase: models.PhaseWaiting,
			QuestionSubmissions: map[string]models.QuestionSubmission{
				"p1": {Questions: []string{"Q1", "Q2"}, SubmittedAt: 1},
				"p2": {Questions: []string{"Q3"}, SubmittedAt: 2},
			},
		}
		questions, err := StartQuiz(s, rand.New(rand.NewSource(7)))
		if err != nil {
			t.Fatalf("StartQuiz: %v", err)
		}
		if len(questions) != 3 {
			t.Errorf("len(questions) = %d, want 3", len(questions))
		}
	})

	t.Run("already started", func(t *testing.T) {
		s := models.Session{
			Phase: models.PhaseAnswering,
			QuestionSubmissions: map[string]models.QuestionSubmission{
				"p1": {Questions: []string{"Q1", "Q2", "Q3"}},
			},
		}
		if _, err := StartQuiz(s, nil); !errors.Is(err, ErrQuizAlreadyStarted) {
			t.Errorf("err = %v, want ErrQuizAlreadyStarted", err)
		}
	})
}

func TestValidateReset(t *testing.T) {
	tests := []struct {
		phase models.Phase
		want  error
	}{
		{models.PhaseWaiting, ErrQuizNotFinished},
		{models.PhaseAnswering, ErrQuizNotFinished},
		{models.PhaseResults, nil},
	}
	for _, tt := range tests {
		err := ValidateReset(models.Session{Phase: tt.phase})
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateReset(%s) = %v, want %v", tt.phase, err, tt.want)
		}
	}
}

func TestClampSelected(t *testing.T) {
	s := models.Session{Questions: []string{"Q1", "Q2", "Q3"}}

	tests := []struct {
		index int
		want  int
	}{
		{-1, 0},
		{0, 0},
		{2, 2},
		{3, 2},
	}
	for _, tt := range tests {
		if got := ClampSelected(s, tt.index); got != tt.want {
			t.Errorf("ClampSelected(%d) = %d, want %d", tt.index, got, tt.want)
		}
	}

	empty := models.Session{}
	if got := ClampSelected(empty, 5); got != 0 {
		t.Errorf("ClampSelected on empty questions = %d, want 0", got)
	}
}
