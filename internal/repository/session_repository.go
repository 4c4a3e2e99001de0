package repository

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/TomaTV/taquiz.fr/internal/constants"
	"github.com/TomaTV/taquiz.fr/internal/models"
	"github.com/TomaTV/taquiz.fr/internal/store"
)

var (
	// ErrSessionNotFound indicates the join code has no backing record.
	ErrSessionNotFound = errors.New("session not found")

	ErrEmptyPlayerName   = errors.New("player name is required")
	ErrPlayerNameTooLong = errors.New("player name is too long")

	ErrNoQuestions      = errors.New("at least one question is required")
	ErrTooManyQuestions = errors.New("too many questions in one submission")
	ErrQuestionTooLong  = errors.New("question text is too long")

	ErrEmptyAnswer          = errors.New("answer text is required")
	ErrAnswerTooLong        = errors.New("answer text is too long")
	ErrInvalidQuestionIndex = errors.New("question index is out of range")
)

const sessionCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SessionRepository maps session domain operations onto store paths. It
// owns the on-the-wire schema; every value is JSON-encoded at its path
// under "sessions/{id}". It enforces input validation only — phase
// preconditions belong to the callers.
type SessionRepository struct {
	store       store.Store
	clock       func() time.Time
	newCode     func() (string, error)
	newPlayerID func() string
}

func NewSessionRepository(st store.Store) *SessionRepository {
	return &SessionRepository{
		store:       st,
		clock:       time.Now,
		newCode:     newSessionCode,
		newPlayerID: uuid.NewString,
	}
}

// NormalizeSessionID maps human-entered codes onto the stored form. Codes
// are case-insensitive on input and stored uppercase.
func NormalizeSessionID(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateSession creates a new session in the waiting phase with the caller
// as its host. The returned session id doubles as the shareable join code.
func (r *SessionRepository) CreateSession(ctx context.Context, hostName string) (models.Session, models.Player, error) {
	name, err := validatePlayerName(hostName)
	if err != nil {
		return models.Session{}, models.Player{}, err
	}

	sessionID, err := r.uniqueSessionCode(ctx)
	if err != nil {
		return models.Session{}, models.Player{}, err
	}

	now := r.clock().UnixMilli()
	host := models.Player{
		ID:       r.newPlayerID(),
		Name:     name,
		IsHost:   true,
		JoinedAt: now,
	}

	writes := []fieldWrite{
		{"id", sessionID},
		{"createdAt", now},
		{"phase", models.PhaseWaiting},
		{"currentQuestionIndex", 0},
		{"selectedQuestion", 0},
		{"revealNames", false},
		{"players/" + host.ID, host},
	}
	if err := r.putFields(ctx, sessionID, writes); err != nil {
		return models.Session{}, models.Player{}, err
	}

	session, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return models.Session{}, models.Player{}, err
	}
	return session, host, nil
}

// JoinSession adds a player to an existing session. The code is normalized
// before lookup.
func (r *SessionRepository) JoinSession(ctx context.Context, sessionID, playerName string) (models.Player, error) {
	name, err := validatePlayerName(playerName)
	if err != nil {
		return models.Player{}, err
	}

	sessionID = NormalizeSessionID(sessionID)
	if err := r.checkExists(ctx, sessionID); err != nil {
		return models.Player{}, err
	}

	player := models.Player{
		ID:       r.newPlayerID(),
		Name:     name,
		IsHost:   false,
		JoinedAt: r.clock().UnixMilli(),
	}
	if err := r.putField(ctx, sessionID, "players/"+player.ID, player); err != nil {
		return models.Player{}, err
	}
	return player, nil
}

// SubmitQuestions records a player's contributed questions, replacing any
// previous submission from the same player. Blank entries are dropped
// before validation.
func (r *SessionRepository) SubmitQuestions(ctx context.Context, sessionID, playerID string, texts []string) error {
	questions := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > constants.MaxQuestionLength {
			return ErrQuestionTooLong
		}
		questions = append(questions, t)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	if len(questions) > constants.MaxQuestionsPerPlayer {
		return ErrTooManyQuestions
	}

	submission := models.QuestionSubmission{
		Questions:   questions,
		SubmittedAt: r.clock().UnixMilli(),
	}
	return r.putField(ctx, sessionID, "questionSubmissions/"+playerID, submission)
}

// SubmitAnswer records a player's answer for one question index. A later
// write for the same (player, index) pair overwrites the earlier one.
func (r *SessionRepository) SubmitAnswer(ctx context.Context, sessionID, playerID string, questionIndex int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyAnswer
	}
	if utf8.RuneCountInString(text) > constants.MaxAnswerLength {
		return ErrAnswerTooLong
	}
	if questionIndex < 0 {
		return ErrInvalidQuestionIndex
	}

	answer := models.Answer{
		Text:        text,
		SubmittedAt: r.clock().UnixMilli(),
	}
	field := fmt.Sprintf("answers/%s/%d", playerID, questionIndex)
	return r.putField(ctx, sessionID, field, answer)
}

// GetSession reads and decodes the full session record.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	entries, err := r.store.Snapshot(ctx, sessionPath(sessionID))
	if err != nil {
		return models.Session{}, err
	}
	if len(entries) == 0 {
		return models.Session{}, ErrSessionNotFound
	}
	return decodeSession(sessionID, entries)
}

// Subscribe delivers the current snapshot immediately, then again after
// every observed mutation by any participant. The returned cancel stops
// deliveries; callers must invoke it on teardown. A snapshot read that
// fails mid-subscription is skipped, leaving the subscriber on its
// last-known-good state.
func (r *SessionRepository) Subscribe(ctx context.Context, sessionID string, onUpdate func(models.Session)) (func(), error) {
	sessionID = NormalizeSessionID(sessionID)
	if err := r.checkExists(ctx, sessionID); err != nil {
		return nil, err
	}

	cancel, err := r.store.Watch(ctx, sessionPath(sessionID), func() {
		session, err := r.GetSession(ctx, sessionID)
		if err != nil {
			return
		}
		onUpdate(session)
	})
	if err != nil {
		return nil, err
	}

	if session, err := r.GetSession(ctx, sessionID); err == nil {
		onUpdate(session)
	}
	return cancel, nil
}

// ResetSession returns a session to the waiting phase for another run with
// the same group. Players are retained; everything else is cleared. The
// phase flips last so any observer of the flip already sees cleared fields.
func (r *SessionRepository) ResetSession(ctx context.Context, sessionID string) error {
	base := sessionPath(sessionID)
	for _, sub := range []string{"answers", "questionSubmissions", "questions"} {
		if err := r.store.Delete(ctx, base+"/"+sub); err != nil {
			return err
		}
	}
	writes := []fieldWrite{
		{"questions", []string{}},
		{"currentQuestionIndex", 0},
		{"selectedQuestion", 0},
		{"revealNames", false},
		{"phase", models.PhaseWaiting},
	}
	return r.putFields(ctx, sessionID, writes)
}

func (r *SessionRepository) SetPhase(ctx context.Context, sessionID string, phase models.Phase) error {
	return r.putField(ctx, sessionID, "phase", phase)
}

func (r *SessionRepository) SetQuestions(ctx context.Context, sessionID string, questions []string) error {
	return r.putField(ctx, sessionID, "questions", questions)
}

func (r *SessionRepository) SetCurrentQuestionIndex(ctx context.Context, sessionID string, index int) error {
	return r.putField(ctx, sessionID, "currentQuestionIndex", index)
}

func (r *SessionRepository) SetSelectedQuestion(ctx context.Context, sessionID string, index int) error {
	return r.putField(ctx, sessionID, "selectedQuestion", index)
}

func (r *SessionRepository) SetRevealNames(ctx context.Context, sessionID string, reveal bool) error {
	return r.putField(ctx, sessionID, "revealNames", reveal)
}

type fieldWrite struct {
	field string
	value any
}

func (r *SessionRepository) putFields(ctx context.Context, sessionID string, writes []fieldWrite) error {
	for _, w := range writes {
		if err := r.putField(ctx, sessionID, w.field, w.value); err != nil {
			return err
		}
	}
	return nil
}

func (r *SessionRepository) putField(ctx context.Context, sessionID, field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	return r.store.Put(ctx, sessionPath(sessionID)+"/"+field, data)
}

func (r *SessionRepository) checkExists(ctx context.Context, sessionID string) error {
	_, err := r.store.Get(ctx, sessionPath(sessionID)+"/id")
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

func (r *SessionRepository) uniqueSessionCode(ctx context.Context) (string, error) {
	const maxAttempts = 10
	for range maxAttempts {
		code, err := r.newCode()
		if err != nil {
			return "", err
		}
		err = r.checkExists(ctx, code)
		if errors.Is(err, ErrSessionNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate unique session code after %d attempts", maxAttempts)
}

func newSessionCode() (string, error) {
	// Bytes at or above the largest multiple of the charset size are
	// redrawn; a plain modulo would skew toward the first few characters.
	const limit = byte(256 / len(sessionCodeCharset) * len(sessionCodeCharset))

	code := make([]byte, 0, constants.SessionCodeLength)
	buf := make([]byte, constants.SessionCodeLength)
	for len(code) < constants.SessionCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate session code: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, sessionCodeCharset[int(b)%len(sessionCodeCharset)])
			if len(code) == constants.SessionCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

func validatePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyPlayerName
	}
	if utf8.RuneCountInString(name) > constants.MaxPlayerNameLength {
		return "", ErrPlayerNameTooLong
	}
	return name, nil
}

func sessionPath(sessionID string) string {
	return "sessions/" + sessionID
}

func decodeSession(sessionID string, entries map[string][]byte) (models.Session, error) {
	session := models.Session{
		ID:                  sessionID,
		Phase:               models.PhaseWaiting,
		Players:             make(map[string]models.Player),
		QuestionSubmissions: make(map[string]models.QuestionSubmission),
		Answers:             make(map[string]map[int]models.Answer),
	}

	prefix := sessionPath(sessionID) + "/"
	for path, raw := range entries {
		field := strings.TrimPrefix(path, prefix)
		if field == path {
			continue
		}

		var err error
		switch {
		case field == "id":
			err = json.Unmarshal(raw, &session.ID)
		case field == "phase":
			err = json.Unmarshal(raw, &session.Phase)
		case field == "createdAt":
			err = json.Unmarshal(raw, &session.CreatedAt)
		case field == "questions":
			err = json.Unmarshal(raw, &session.Questions)
		case field == "currentQuestionIndex":
			err = json.Unmarshal(raw, &session.CurrentQuestionIndex)
		case field == "selectedQuestion":
			err = json.Unmarshal(raw, &session.SelectedQuestion)
		case field == "revealNames":
			err = json.Unmarshal(raw, &session.RevealNames)
		case strings.HasPrefix(field, "players/"):
			var p models.Player
			if err = json.Unmarshal(raw, &p); err == nil {
				session.Players[p.ID] = p
			}
		case strings.HasPrefix(field, "questionSubmissions/"):
			playerID := strings.TrimPrefix(field, "questionSubmissions/")
			var qs models.QuestionSubmission
			if err = json.Unmarshal(raw, &qs); err == nil {
				session.QuestionSubmissions[playerID] = qs
			}
		case strings.HasPrefix(field, "answers/"):
			err = decodeAnswer(&session, field, raw)
		}
		if err != nil {
			return models.Session{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return session, nil
}

func decodeAnswer(session *models.Session, field string, raw []byte) error {
	parts := strings.Split(strings.TrimPrefix(field, "answers/"), "/")
	if len(parts) != 2 {
		return fmt.Errorf("malformed answer path %q", field)
	}
	playerID := parts[0]
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("malformed answer index %q", parts[1])
	}

	var answer models.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return err
	}
	if session.Answers[playerID] == nil {
		session.Answers[playerID] = make(map[int]models.Answer)
	}
	session.Answers[playerID][index] = answer
	return nil
}
