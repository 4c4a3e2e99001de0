package models

// Phase is the globally agreed stage of a session. A fourth stage, question
// authoring, is local UI state on each client and is never written to the
// shared record.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseAnswering Phase = "answering"
	PhaseResults   Phase = "results"
)

// Session is the full shared record for one quiz, as delivered to
// subscribers on every observed change. Timestamps are Unix milliseconds.
type Session struct {
	ID                   string                        `json:"id"`
	Phase                Phase                         `json:"phase"`
	CreatedAt            int64                         `json:"createdAt"`
	Players              map[string]Player             `json:"players"`
	QuestionSubmissions  map[string]QuestionSubmission `json:"questionSubmissions"`
	Questions            []string                      `json:"questions"`
	CurrentQuestionIndex int                           `json:"currentQuestionIndex"`
	Answers              map[string]map[int]Answer     `json:"answers"`
	SelectedQuestion     int                           `json:"selectedQuestion"`
	RevealNames          bool                          `json:"revealNames"`
}

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
	JoinedAt int64  `json:"joinedAt"`
}

// QuestionSubmission is one player's contributed questions. A resubmission
// overwrites the previous entry wholesale.
type QuestionSubmission struct {
	Questions   []string `json:"questions"`
	SubmittedAt int64    `json:"submittedAt"`
}

type Answer struct {
	Text        string `json:"text"`
	SubmittedAt int64  `json:"submittedAt"`
}

// HasAnswered reports whether the player has an answer recorded for the
// given question index.
func (s Session) HasAnswered(playerID string, index int) bool {
	_, ok := s.Answers[playerID][index]
	return ok
}

// Host returns the session's host player. The second return is false only
// for a corrupted record; exactly one host is written at creation and never
// reassigned.
func (s Session) Host() (Player, bool) {
	for _, p := range s.Players {
		if p.IsHost {
			return p, true
		}
	}
	return Player{}, false
}
