package websocket

import (
	"github.com/TomaTV/taquiz.fr/internal/models"
)

type MessageType string

const (
	// Client -> Server
	MessageTypeCreateSession   MessageType = "create_session"
	MessageTypeJoinSession     MessageType = "join_session"
	MessageTypeSubmitQuestions MessageType = "submit_questions"
	MessageTypeStartQuiz       MessageType = "start_quiz"
	MessageTypeSubmitAnswer    MessageType = "submit_answer"
	MessageTypeNavigateResults MessageType = "navigate_results"
	MessageTypeToggleReveal    MessageType = "toggle_reveal"
	MessageTypeResetSession    MessageType = "reset_session"
	MessageTypePing            MessageType = "ping"

	// Server -> Client
	MessageTypeJoined       MessageType = "joined"
	MessageTypeSessionState MessageType = "session_state"
	MessageTypeError        MessageType = "error"
	MessageTypePong         MessageType = "pong"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

type CreateSessionPayload struct {
	Name string `json:"name"`
}

type JoinSessionPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type SubmitQuestionsPayload struct {
	Questions []string `json:"questions"`
}

type SubmitAnswerPayload struct {
	Text string `json:"text"`
}

type NavigateResultsPayload struct {
	Delta int `json:"delta"`
}

type JoinedPayload struct {
	SessionID string        `json:"session_id"`
	Player    models.Player `json:"player"`
}

type SessionStatePayload struct {
	Session models.Session `json:"session"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
