package core

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"smooze.app/wingman/internal/store"
)

const (
	GreetingMessage = "Hey there! 😎 I'm 'Smooze', your AI wingman ready to make your day awesome! What dating adventures can I help you with today? Let's make some magic happen! ✨"
	FallbackMessage = "Sorry, I couldn't process that. Please try again."
)

var (
	ErrEmptyMessage       = errors.New("message text cannot be empty")
	ErrConversationClosed = errors.New("conversation closed")
)

type TurnState string

const (
	StateIdle       TurnState = "idle"
	StateSending    TurnState = "sending"
	StateSuccess    TurnState = "success"
	StateFailure    TurnState = "failure"
	StateSuperseded TurnState = "superseded"
)

// TurnRecorder receives a diagnostics record when a turn ends.
type TurnRecorder interface {
	RecordTurn(rec *store.TurnRecord) error
}

// Conversation owns one chat's message log and runs its turns. Every
// submission takes a new generation number; a turn appends its reply only if
// its generation is still current when the model answers.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	log      *store.MessageLog
	pipeline *Pipeline
	recorder TurnRecorder

	mu             sync.Mutex
	generation     uint64
	cancelInflight context.CancelFunc
	state          TurnState
	closed         bool
}

// NewConversation starts a conversation seeded with the bot greeting.
// recorder may be nil.
func NewConversation(pipeline *Pipeline, recorder TurnRecorder) *Conversation {
	c := &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		log:       store.NewMessageLog(),
		pipeline:  pipeline,
		recorder:  recorder,
		state:     StateIdle,
	}
	c.log.Append(store.Message{Text: GreetingMessage, Sender: store.SenderBot})
	return c
}

func (c *Conversation) Messages() []store.Message {
	return c.log.Snapshot()
}

func (c *Conversation) Len() int {
	return c.log.Len()
}

// Subscribe streams a snapshot after every append. See store.MessageLog.Subscribe.
func (c *Conversation) Subscribe() (<-chan []store.Message, func()) {
	return c.log.Subscribe()
}

func (c *Conversation) State() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears the conversation down. The in-flight turn, if any, is
// cancelled and its reply discarded; further submissions are rejected and
// every subscription is closed.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	if c.cancelInflight != nil {
		c.cancelInflight()
		c.cancelInflight = nil
	}
	c.state = StateIdle
	c.log.Close()
}

// TurnResult describes how a turn ended. Err is kept for diagnostics only.
type TurnResult struct {
	State      TurnState
	BotMessage *store.Message
	Err        *InferenceError
}

// Outcome maps the turn state to the name used by the journal and the API.
func (r TurnResult) Outcome() store.TurnOutcome {
	switch r.State {
	case StateFailure:
		return store.OutcomeFallback
	case StateSuperseded:
		return store.OutcomeSuperseded
	default:
		return store.OutcomeSuccess
	}
}

// Turn is a handle on a submitted message and its pending reply.
type Turn struct {
	ID          string
	UserMessage store.Message

	done   chan struct{}
	result TurnResult
}

func (t *Turn) Done() <-chan struct{} { return t.done }

// Wait blocks until the turn ends or ctx is done.
func (t *Turn) Wait(ctx context.Context) (TurnResult, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return TurnResult{}, ctx.Err()
	}
}

// Submit appends text as a user message and starts a turn for it. Any turn
// still in flight is superseded.
func (c *Conversation) Submit(ctx context.Context, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConversationClosed
	}

	// The summary covers what came before this message; the message itself
	// goes into the response prompt.
	transcript := BuildTranscript(c.log.Snapshot())
	stored := c.log.Append(store.Message{Text: text, Sender: store.SenderUser})

	c.generation++
	gen := c.generation
	if c.cancelInflight != nil {
		c.cancelInflight()
	}
	// The turn outlives the caller's request; only supersession or Close stop it.
	turnCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelInflight = cancel
	c.state = StateSending
	c.mu.Unlock()

	turn := &Turn{
		ID:          uuid.NewString(),
		UserMessage: stored[0],
		done:        make(chan struct{}),
	}
	go c.run(turnCtx, cancel, gen, turn, transcript, text)
	return turn, nil
}

func (c *Conversation) run(ctx context.Context, cancel context.CancelFunc, gen uint64, turn *Turn, transcript, latest string) {
	defer cancel()
	defer close(turn.done)

	start := time.Now()
	res := c.pipeline.Run(ctx, transcript, latest)

	reply, state := res.Text, StateSuccess
	if !res.IsOk() {
		reply, state = FallbackMessage, StateFailure
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Printf("Discarding stale turn %s for conversation %s", turn.ID, c.ID)
		turn.result = TurnResult{State: StateSuperseded, Err: res.Err}
		c.record(turn.ID, turn.result.Outcome(), res.Err, time.Since(start))
		return
	}
	stored := c.log.Append(store.Message{Text: reply, Sender: store.SenderBot})
	c.cancelInflight = nil
	c.state = StateIdle
	c.mu.Unlock()

	if state == StateFailure {
		log.Printf("Error generating AI response for conversation %s: %v", c.ID, res.Err)
	}
	turn.result = TurnResult{State: state, BotMessage: &stored[0], Err: res.Err}
	c.record(turn.ID, turn.result.Outcome(), res.Err, time.Since(start))
}

func (c *Conversation) record(turnID string, outcome store.TurnOutcome, ierr *InferenceError, d time.Duration) {
	if c.recorder == nil {
		return
	}
	rec := &store.TurnRecord{
		ID:             turnID,
		ConversationID: c.ID,
		Outcome:        outcome,
		Duration:       d,
	}
	if ierr != nil {
		rec.FailedStage = string(ierr.Stage)
		rec.Error = ierr.Error()
	}
	if err := c.recorder.RecordTurn(rec); err != nil {
		log.Printf("Failed to record turn %s for conversation %s: %v", turnID, c.ID, err)
	}
}
