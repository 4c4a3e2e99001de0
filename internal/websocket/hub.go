package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/TomaTV/taquiz.fr/internal/models"
	"github.com/TomaTV/taquiz.fr/internal/repository"
	"github.com/TomaTV/taquiz.fr/internal/session"
)

const opTimeout = 5 * time.Second

type ClientMessage struct {
	Client  *Client
	Message Message
}

// Hub owns the websocket connections of one gateway process. Each
// connection gets its own session.Client; all coordination between
// participants goes through the shared store, so several gateway processes
// can serve the same session.
type Hub struct {
	clients       map[*Client]bool
	Register      chan *Client
	Unregister    chan *Client
	HandleMessage chan *ClientMessage

	repo *repository.SessionRepository

	mu sync.RWMutex
}

func NewHub(repo *repository.SessionRepository) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		HandleMessage: make(chan *ClientMessage),
		repo:          repo,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case clientMsg := <-h.HandleMessage:
			h.handleClientMessage(clientMsg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	log.Printf("Client registered: %s", client.Conn.RemoteAddr())
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		// Cancel the subscription before retiring the send channel:
		// snapshot deliveries arrive on other participants' goroutines and
		// must find the channel either open or flagged closed, never
		// mid-close.
		if client.Session != nil {
			client.Session.Close()
		}
		client.closeSend()
		log.Printf("Client unregistered: %s", client.Conn.RemoteAddr())
	}
}

func (h *Hub) handleClientMessage(clientMsg *ClientMessage) {
	client := clientMsg.Client
	msg := clientMsg.Message

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch msg.Type {
	case MessageTypeCreateSession:
		h.handleCreate(ctx, client, msg.Payload)

	case MessageTypeJoinSession:
		h.handleJoin(ctx, client, msg.Payload)

	case MessageTypeSubmitQuestions:
		var payload SubmitQuestionsPayload
		if sc := h.sessionFor(client, msg.Payload, &payload); sc != nil {
			if err := sc.SubmitQuestions(ctx, payload.Questions); err != nil {
				client.SendError(err.Error())
			}
		}

	case MessageTypeStartQuiz:
		if sc := h.sessionFor(client, nil, nil); sc != nil {
			if err := sc.StartQuiz(ctx); err != nil {
				client.SendError(err.Error())
			}
		}

	case MessageTypeSubmitAnswer:
		var payload SubmitAnswerPayload
		if sc := h.sessionFor(client, msg.Payload, &payload); sc != nil {
			if err := sc.SubmitAnswer(ctx, payload.Text); err != nil {
				client.SendError(err.Error())
			}
		}

	case MessageTypeNavigateResults:
		var payload NavigateResultsPayload
		if sc := h.sessionFor(client, msg.Payload, &payload); sc != nil {
			if err := sc.NavigateResults(ctx, payload.Delta); err != nil {
				client.SendError(err.Error())
			}
		}

	case MessageTypeToggleReveal:
		if sc := h.sessionFor(client, nil, nil); sc != nil {
			if err := sc.ToggleReveal(ctx); err != nil {
				client.SendError(err.Error())
			}
		}

	case MessageTypeResetSession:
		if sc := h.sessionFor(client, nil, nil); sc != nil {
			if err := sc.Reset(ctx); err != nil {
				client.SendError(err.Error())
			}
		}

	case MessageTypePing:
		client.SendMessage(MessageTypePong, nil)

	default:
		client.SendError("Unknown message type: " + string(msg.Type))
	}
}

func (h *Hub) handleCreate(ctx context.Context, client *Client, payload any) {
	var p CreateSessionPayload
	if !decodePayload(client, payload, &p) {
		return
	}
	if client.Session != nil {
		client.SendError("Already in a session")
		return
	}

	sc := session.NewClient(h.repo)
	sc.OnSnapshot(func(s models.Session) {
		client.SendMessage(MessageTypeSessionState, SessionStatePayload{Session: s})
	})

	sessionID, err := sc.Create(ctx, p.Name)
	if err != nil {
		client.SendError(err.Error())
		return
	}

	client.Session = sc
	client.SendMessage(MessageTypeJoined, JoinedPayload{
		SessionID: sessionID,
		Player:    sc.Player(),
	})
	log.Printf("Session created: id=%s, host=%s", sessionID, p.Name)
}

func (h *Hub) handleJoin(ctx context.Context, client *Client, payload any) {
	var p JoinSessionPayload
	if !decodePayload(client, payload, &p) {
		return
	}
	if client.Session != nil {
		client.SendError("Already in a session")
		return
	}

	sc := session.NewClient(h.repo)
	sc.OnSnapshot(func(s models.Session) {
		client.SendMessage(MessageTypeSessionState, SessionStatePayload{Session: s})
	})

	if err := sc.Join(ctx, p.Code, p.Name); err != nil {
		client.SendError(err.Error())
		return
	}

	client.Session = sc
	client.SendMessage(MessageTypeJoined, JoinedPayload{
		SessionID: repository.NormalizeSessionID(p.Code),
		Player:    sc.Player(),
	})
	log.Printf("Player joined: session=%s, name=%s", repository.NormalizeSessionID(p.Code), p.Name)
}

// sessionFor decodes the payload (when dest is non-nil) and returns the
// client's session, reporting errors to the client itself.
func (h *Hub) sessionFor(client *Client, payload any, dest any) *session.Client {
	if dest != nil && !decodePayload(client, payload, dest) {
		return nil
	}
	if client.Session == nil {
		client.SendError("Not in a session")
		return nil
	}
	return client.Session
}

func decodePayload(client *Client, payload any, dest any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		client.SendError("Invalid payload")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		client.SendError("Invalid payload")
		return false
	}
	return true
}
