package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"smooze.app/wingman/internal/store"
)

func waitTurn(t *testing.T, turn *Turn) TurnResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := turn.Wait(ctx)
	if err != nil {
		t.Fatalf("turn did not finish: %v", err)
	}
	return res
}

func TestNewConversationSeedsGreeting(t *testing.T) {
	conv := NewConversation(NewPipeline(NewMockCompleter(), false), nil)

	msgs := conv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected greeting only, got %d messages", len(msgs))
	}
	if msgs[0].ID != 1 || msgs[0].Sender != store.SenderBot || msgs[0].Text != GreetingMessage {
		t.Fatalf("unexpected greeting: %+v", msgs[0])
	}
	if conv.State() != StateIdle {
		t.Fatalf("state = %q, want idle", conv.State())
	}
	if conv.ID == "" {
		t.Fatalf("expected conversation id")
	}
}

func TestSubmitSuccessAppendsTwoMessages(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"summary", "<response>Smooth. Ask her about the concert 🎶</response>"}}
	journal := &memJournal{}
	conv := NewConversation(NewPipeline(c, false), journal)
	before := conv.Len()

	turn, err := conv.Submit(context.Background(), "she likes indie music")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if turn.UserMessage.Sender != store.SenderUser || turn.UserMessage.Text != "she likes indie music" {
		t.Fatalf("unexpected user message: %+v", turn.UserMessage)
	}

	res := waitTurn(t, turn)
	if res.State != StateSuccess || res.BotMessage == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.BotMessage.Text != "Smooth. Ask her about the concert 🎶" {
		t.Fatalf("unexpected reply %q", res.BotMessage.Text)
	}
	if conv.Len() != before+2 {
		t.Fatalf("len = %d, want %d", conv.Len(), before+2)
	}
	if conv.State() != StateIdle {
		t.Fatalf("state = %q, want idle", conv.State())
	}

	// The summary only sees what came before the new message.
	calls := c.calls()
	if calls[0] != BuildSummaryPrompt("Bot: "+GreetingMessage) {
		t.Fatalf("unexpected summary prompt: %q", calls[0])
	}

	recs := journal.all()
	if len(recs) != 1 || recs[0].Outcome != store.OutcomeSuccess || recs[0].ID != turn.ID {
		t.Fatalf("unexpected journal: %+v", recs)
	}
}

func TestSubmitFailureAppendsFallback(t *testing.T) {
	c := &scriptedCompleter{errs: []error{errors.New("network down")}}
	journal := &memJournal{}
	conv := NewConversation(NewPipeline(c, false), journal)
	before := conv.Len()

	turn, err := conv.Submit(context.Background(), "help")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	res := waitTurn(t, turn)

	if res.State != StateFailure || res.BotMessage == nil || res.BotMessage.Text != FallbackMessage {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Err == nil || res.Err.Stage != StageSummary {
		t.Fatalf("expected summary-stage error, got %+v", res.Err)
	}
	if n := len(c.calls()); n != 1 {
		t.Fatalf("expected the response call to be skipped, got %d calls", n)
	}
	if conv.Len() != before+2 {
		t.Fatalf("len = %d, want %d", conv.Len(), before+2)
	}

	recs := journal.all()
	if len(recs) != 1 || recs[0].Outcome != store.OutcomeFallback || recs[0].FailedStage != "summary" {
		t.Fatalf("unexpected journal: %+v", recs)
	}
	if strings.Contains(recs[0].Error, "help") {
		t.Fatalf("journal must not carry message text")
	}
}

func TestSubmitRejectsBlankText(t *testing.T) {
	conv := NewConversation(NewPipeline(NewMockCompleter(), false), nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := conv.Submit(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("Submit(%q) err = %v, want ErrEmptyMessage", text, err)
		}
	}
	if conv.Len() != 1 {
		t.Fatalf("blank submissions must not be appended")
	}
}

// blockFirstTurn blocks the summary call of the first turn (the only one
// whose transcript has no user line) until its context is cancelled.
func blockFirstTurn(started chan<- struct{}) completerFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Please provide a brief summary") && !strings.Contains(prompt, "User:") {
			started <- struct{}{}
			<-ctx.Done()
			return "", ctx.Err()
		}
		if strings.HasPrefix(prompt, "Please provide a brief summary") {
			return "summary", nil
		}
		return "<response>second reply</response>", nil
	}
}

func TestNewSubmissionSupersedesInflightTurn(t *testing.T) {
	started := make(chan struct{}, 1)
	journal := &memJournal{}
	conv := NewConversation(NewPipeline(blockFirstTurn(started), false), journal)

	first, err := conv.Submit(context.Background(), "first")
	if err != nil {
		t.Fatalf("Submit first err: %v", err)
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first turn never reached the model")
	}
	if conv.State() != StateSending {
		t.Fatalf("state = %q, want sending", conv.State())
	}

	second, err := conv.Submit(context.Background(), "second")
	if err != nil {
		t.Fatalf("Submit second err: %v", err)
	}

	firstRes := waitTurn(t, first)
	if firstRes.State != StateSuperseded || firstRes.BotMessage != nil {
		t.Fatalf("first turn should be superseded, got %+v", firstRes)
	}
	secondRes := waitTurn(t, second)
	if secondRes.State != StateSuccess || secondRes.BotMessage.Text != "second reply" {
		t.Fatalf("unexpected second result %+v", secondRes)
	}

	msgs := conv.Messages()
	var texts []string
	for i, m := range msgs {
		texts = append(texts, m.Text)
		if i > 0 && m.ID <= msgs[i-1].ID {
			t.Fatalf("ids not increasing: %+v", msgs)
		}
	}
	want := []string{GreetingMessage, "first", "second", "second reply"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Fatalf("messages = %q, want %q", texts, want)
	}

	outcomes := map[store.TurnOutcome]int{}
	for _, r := range journal.all() {
		outcomes[r.Outcome]++
	}
	if outcomes[store.OutcomeSuperseded] != 1 || outcomes[store.OutcomeSuccess] != 1 {
		t.Fatalf("unexpected journal outcomes: %v", outcomes)
	}
}

func TestCloseDiscardsInflightTurn(t *testing.T) {
	started := make(chan struct{}, 1)
	conv := NewConversation(NewPipeline(blockFirstTurn(started), false), nil)

	turn, err := conv.Submit(context.Background(), "anyone there?")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	<-started
	conv.Close()

	res := waitTurn(t, turn)
	if res.State != StateSuperseded {
		t.Fatalf("state = %q, want superseded", res.State)
	}
	if conv.Len() != 2 {
		t.Fatalf("len = %d, want greeting + user message", conv.Len())
	}
	if _, err := conv.Submit(context.Background(), "hello?"); !errors.Is(err, ErrConversationClosed) {
		t.Fatalf("err = %v, want ErrConversationClosed", err)
	}
	conv.Close()
}

func TestTurnSurvivesCallerCancellation(t *testing.T) {
	// MockCompleter fails on a cancelled context.
	conv := NewConversation(NewPipeline(NewMockCompleter(), false), nil)

	ctx, cancel := context.WithCancel(context.Background())
	turn, err := conv.Submit(ctx, "hi")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	cancel()

	res := waitTurn(t, turn)
	if res.State != StateSuccess || res.BotMessage.Text != "Okay that's adorable 😄 Tell me more, what's the vibe so far?" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSubscribeSeesBotReply(t *testing.T) {
	conv := NewConversation(NewPipeline(NewMockCompleter(), false), nil)
	updates, cancel := conv.Subscribe()
	defer cancel()

	turn, err := conv.Submit(context.Background(), "hey")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	waitTurn(t, turn)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if len(snap) == 3 && snap[2].Sender == store.SenderBot {
				return
			}
		case <-deadline:
			t.Fatal("never saw snapshot with bot reply")
		}
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	conv := NewConversation(NewPipeline(NewMockCompleter(), false), nil)
	updates, cancel := conv.Subscribe()
	defer cancel()

	conv.Close()

	select {
	case _, ok := <-updates:
		if ok {
			t.Fatal("expected subscription to be closed, got a snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription still open after Close")
	}
}

func TestTurnResultOutcome(t *testing.T) {
	tests := []struct {
		state TurnState
		want  store.TurnOutcome
	}{
		{StateSuccess, store.OutcomeSuccess},
		{StateFailure, store.OutcomeFallback},
		{StateSuperseded, store.OutcomeSuperseded},
	}
	for _, tt := range tests {
		if got := (TurnResult{State: tt.state}).Outcome(); got != tt.want {
			t.Errorf("Outcome(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
