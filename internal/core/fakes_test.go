package core

import (
	"context"
	"sync"

	"smooze.app/wingman/internal/store"
)

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// scriptedCompleter answers calls in order from replies/errs and keeps the
// prompts it was given.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", nil
}

func (s *scriptedCompleter) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

type memJournal struct {
	mu      sync.Mutex
	records []store.TurnRecord
}

func (j *memJournal) RecordTurn(rec *store.TurnRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, *rec)
	return nil
}

func (j *memJournal) GetTurnsByConversationID(conversationID string, limit int) ([]store.TurnRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []store.TurnRecord
	for _, r := range j.records {
		if r.ConversationID == conversationID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (j *memJournal) all() []store.TurnRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]store.TurnRecord, len(j.records))
	copy(out, j.records)
	return out
}
