package session

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/TomaTV/taquiz.fr/internal/game"
	"github.com/TomaTV/taquiz.fr/internal/models"
	"github.com/TomaTV/taquiz.fr/internal/repository"
)

var (
	// ErrNotInSession indicates an operation before Create or Join.
	ErrNotInSession = errors.New("not in a session")
	// ErrNoActiveQuestion indicates an answer submitted outside the
	// answering phase.
	ErrNoActiveQuestion = errors.New("no active question")
)

// Client is one participant's view of a session. Every participant runs the
// same client logic against the same shared record; the shared record is
// always the source of truth and the local snapshot is a read-through
// cache. The aggregation computation runs on every observed snapshot, but
// only the host's client issues the resulting writes, and each advance is
// written as an absolute index recorded in lastAdvanced, so re-observing a
// stale snapshot never moves the session twice.
type Client struct {
	repo *repository.SessionRepository
	rng  *rand.Rand

	mu            sync.Mutex
	sessionID     string
	player        models.Player
	snapshot      models.Session
	hasSnapshot   bool
	lastAdvanced  int
	resultsIssued bool
	cancel        func()
	onSnapshot    func(models.Session)
}

func NewClient(repo *repository.SessionRepository) *Client {
	return &Client{
		repo: repo,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnSnapshot registers the callback invoked with every observed session
// snapshot. Set it before Create or Join; the initial snapshot is delivered
// during subscription.
func (c *Client) OnSnapshot(fn func(models.Session)) {
	c.mu.Lock()
	c.onSnapshot = fn
	c.mu.Unlock()
}

// Create starts a new session with the caller as host and subscribes to it.
// The returned id is the shareable join code.
func (c *Client) Create(ctx context.Context, hostName string) (string, error) {
	session, host, err := c.repo.CreateSession(ctx, hostName)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.sessionID = session.ID
	c.player = host
	c.mu.Unlock()

	if err := c.subscribe(ctx); err != nil {
		return "", err
	}
	return session.ID, nil
}

// Join adds the caller to an existing session and subscribes to it.
func (c *Client) Join(ctx context.Context, code, name string) error {
	player, err := c.repo.JoinSession(ctx, code, name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = repository.NormalizeSessionID(code)
	c.player = player
	c.mu.Unlock()

	return c.subscribe(ctx)
}

// SubmitQuestions contributes the caller's questions to the session pool.
func (c *Client) SubmitQuestions(ctx context.Context, texts []string) error {
	sessionID, player, err := c.identity()
	if err != nil {
		return err
	}
	return c.repo.SubmitQuestions(ctx, sessionID, player.ID, texts)
}

// StartQuiz assembles and shuffles the pool and moves the session to the
// answering phase. Host only; fails without writing when the pool has fewer
// than the minimum questions or the session already started.
func (c *Client) StartQuiz(ctx context.Context) error {
	sessionID, player, err := c.identity()
	if err != nil {
		return err
	}
	if !game.IsAuthorized(player, game.ActionStartQuiz) {
		return game.ErrNotHost
	}

	// Decide on a fresh read, not the cached snapshot, so a submission
	// committed just before start is included.
	session, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	questions, err := game.StartQuiz(session, c.rng)
	if err != nil {
		return err
	}

	// Questions and index land before the phase flip; a subscriber that
	// observes the answering phase already sees the pool.
	if err := c.repo.SetQuestions(ctx, sessionID, questions); err != nil {
		return err
	}
	if err := c.repo.SetCurrentQuestionIndex(ctx, sessionID, 0); err != nil {
		return err
	}
	return c.repo.SetPhase(ctx, sessionID, models.PhaseAnswering)
}

// SubmitAnswer records the caller's answer for the active question. Whether
// the caller "has answered" is always derived from the shared record, so a
// failed write needs no local rollback.
func (c *Client) SubmitAnswer(ctx context.Context, text string) error {
	sessionID, player, err := c.identity()
	if err != nil {
		return err
	}

	c.mu.Lock()
	snapshot := c.snapshot
	hasSnapshot := c.hasSnapshot
	c.mu.Unlock()

	if !hasSnapshot || snapshot.Phase != models.PhaseAnswering {
		return ErrNoActiveQuestion
	}
	return c.repo.SubmitAnswer(ctx, sessionID, player.ID, snapshot.CurrentQuestionIndex, text)
}

// NavigateResults moves the shared results browser by delta questions,
// clamped to the valid range. Host only.
func (c *Client) NavigateResults(ctx context.Context, delta int) error {
	sessionID, player, err := c.identity()
	if err != nil {
		return err
	}
	if !game.IsAuthorized(player, game.ActionNavigateResults) {
		return game.ErrNotHost
	}

	c.mu.Lock()
	snapshot := c.snapshot
	c.mu.Unlock()

	target := game.ClampSelected(snapshot, snapshot.SelectedQuestion+delta)
	if target == snapshot.SelectedQuestion {
		return nil
	}
	return c.repo.SetSelectedQuestion(ctx, sessionID, target)
}

// ToggleReveal flips whether results show player names. Host only.
func (c *Client) ToggleReveal(ctx context.Context) error {
	sessionID, player, err := c.identity()
	if err != nil {
		return err
	}
	if !game.IsAuthorized(player, game.ActionToggleReveal) {
		return game.ErrNotHost
	}

	c.mu.Lock()
	reveal := c.snapshot.RevealNames
	c.mu.Unlock()

	return c.repo.SetRevealNames(ctx, sessionID, !reveal)
}

// Reset returns the session to the waiting phase for another run with the
// same players. Host only, and only from the results phase.
func (c *Client) Reset(ctx context.Context) error {
	sessionID, player, err := c.identity()
	if err != nil {
		return err
	}
	if !game.IsAuthorized(player, game.ActionResetSession) {
		return game.ErrNotHost
	}

	session, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := game.ValidateReset(session); err != nil {
		return err
	}
	return c.repo.ResetSession(ctx, sessionID)
}

// Session returns the last observed snapshot; ok is false before the first
// delivery.
func (c *Client) Session() (models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.hasSnapshot
}

// Player returns the caller's own player record.
func (c *Client) Player() models.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// HasAnswered reports whether the caller answered the active question,
// derived from the shared record.
func (c *Client) HasAnswered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasSnapshot && c.snapshot.HasAnswered(c.player.ID, c.snapshot.CurrentQuestionIndex)
}

// Close releases the subscription. It must be called when the participant
// leaves so the client stops acting on a session it is no longer part of.
func (c *Client) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Client) subscribe(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	cancel, err := c.repo.Subscribe(ctx, sessionID, c.observe)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return nil
}

// observe is the reactor: it runs on every delivered snapshot, refreshes
// the local cache, notifies the UI, and — on the host's client only —
// applies the aggregation decision.
func (c *Client) observe(snapshot models.Session) {
	c.mu.Lock()
	c.snapshot = snapshot
	c.hasSnapshot = true
	if snapshot.Phase == models.PhaseWaiting {
		c.lastAdvanced = 0
		c.resultsIssued = false
	}

	step := game.Step{Kind: game.StepNone}
	if c.player.IsHost {
		step = game.NextStep(snapshot)
		switch step.Kind {
		case game.StepAdvance:
			if step.NextIndex <= c.lastAdvanced {
				step.Kind = game.StepNone
			} else {
				c.lastAdvanced = step.NextIndex
			}
		case game.StepResults:
			if c.resultsIssued {
				step.Kind = game.StepNone
			} else {
				c.resultsIssued = true
			}
		}
	}
	onSnapshot := c.onSnapshot
	sessionID := c.sessionID
	c.mu.Unlock()

	if onSnapshot != nil {
		onSnapshot(snapshot)
	}

	switch step.Kind {
	case game.StepAdvance:
		if err := c.repo.SetCurrentQuestionIndex(context.Background(), sessionID, step.NextIndex); err != nil {
			log.Printf("session client: advance question: %v", err)
		}
	case game.StepResults:
		// Selection and reveal land before the phase flip, like the
		// start transition.
		if err := c.repo.SetSelectedQuestion(context.Background(), sessionID, 0); err != nil {
			log.Printf("session client: reset selected question: %v", err)
		}
		if err := c.repo.SetRevealNames(context.Background(), sessionID, false); err != nil {
			log.Printf("session client: reset name reveal: %v", err)
		}
		if err := c.repo.SetPhase(context.Background(), sessionID, models.PhaseResults); err != nil {
			log.Printf("session client: enter results: %v", err)
		}
	}
}

func (c *Client) identity() (string, models.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == "" {
		return "", models.Player{}, ErrNotInSession
	}
	return c.sessionID, c.player, nil
}
